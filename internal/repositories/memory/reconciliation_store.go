package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
)

// ReconciliationStore is the in-memory session store. Sessions are handed out
// and taken in as deep copies so callers never share candidate slices with
// stored state.
type ReconciliationStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.ReconciliationSession
}

// NewReconciliationStore creates an empty in-memory session store.
func NewReconciliationStore() *ReconciliationStore {
	return &ReconciliationStore{sessions: make(map[string]domain.ReconciliationSession)}
}

// Ensure ReconciliationStore implements the repository facade
var _ portsrepo.ReconciliationRepositoryFacade = (*ReconciliationStore)(nil)

func (s *ReconciliationStore) CreateSession(_ context.Context, session domain.ReconciliationSession) (*domain.ReconciliationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.SessionID]; exists {
		return nil, fmt.Errorf("%w: session %s already exists", apperrors.ErrStorage, session.SessionID)
	}
	s.sessions[session.SessionID] = session.Clone()
	stored := session.Clone()
	return &stored, nil
}

func (s *ReconciliationStore) SaveSession(_ context.Context, session domain.ReconciliationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.SessionID]; !exists {
		return fmt.Errorf("%w: session %s", apperrors.ErrSessionNotFound, session.SessionID)
	}
	s.sessions[session.SessionID] = session.Clone()
	return nil
}

func (s *ReconciliationStore) GetSession(_ context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrSessionNotFound, sessionID)
	}
	copied := session.Clone()
	return &copied, nil
}
