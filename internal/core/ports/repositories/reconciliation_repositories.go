package repositories

import (
	"context"

	"github.com/finacct/ledger_backend/internal/core/domain"
)

// ReconciliationRepositoryFacade persists reconciliation sessions. Sessions
// are fetched, mutated as private clones, and written back; the service wraps
// that read-modify-write in one critical section so concurrent callers on the
// same session cannot overwrite each other's transition.
type ReconciliationRepositoryFacade interface {
	// CreateSession stores a new session and returns the stored value.
	CreateSession(ctx context.Context, session domain.ReconciliationSession) (*domain.ReconciliationSession, error)
	// SaveSession overwrites an existing session; apperrors.ErrSessionNotFound
	// when it was never created.
	SaveSession(ctx context.Context, session domain.ReconciliationSession) error
	// GetSession returns a deep copy of the session.
	GetSession(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)
}
