package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finacct/ledger_backend/internal/core/domain"
	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
	"github.com/finacct/ledger_backend/internal/middleware"
)

// reconciliationService drives the session and candidate state machines.
//
// The store exposes a fetch/mutate-clone/write-back pattern; this service
// wraps every read-modify-write in one critical section so concurrent callers
// on the same session cannot overwrite each other's transition. Audit hooks
// run synchronously on the calling goroutine after the store commit, outside
// the critical section, so a slow hook blocks its caller but not other
// sessions.
type reconciliationService struct {
	repo    portsrepo.ReconciliationRepositoryFacade
	scoring portssvc.ScoringStrategy

	mu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []portssvc.ReconciliationAuditHook
}

// NewReconciliationService creates the reconciliation service over the given
// store and scoring strategy.
func NewReconciliationService(repo portsrepo.ReconciliationRepositoryFacade, scoring portssvc.ScoringStrategy) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{repo: repo, scoring: scoring}
}

// Ensure reconciliationService implements the portssvc.ReconciliationSvcFacade interface
var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// RegisterAuditHook adds a hook to the dispatch list. Hooks registered after
// an event was emitted do not receive it retroactively.
func (s *reconciliationService) RegisterAuditHook(hook portssvc.ReconciliationAuditHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *reconciliationService) emit(events ...portssvc.ReconciliationAuditEvent) {
	s.hooksMu.RLock()
	hooks := make([]portssvc.ReconciliationAuditHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.RUnlock()

	for _, event := range events {
		for _, hook := range hooks {
			hook.Record(event)
		}
	}
}

// CreateSession opens a fresh session for the company.
func (s *reconciliationService) CreateSession(ctx context.Context, companyID string) (*domain.ReconciliationSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session := domain.ReconciliationSession{
		SessionID: uuid.NewString(),
		CompanyID: companyID,
		Status:    domain.SessionOpen,
		OpenedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	created, err := s.repo.CreateSession(ctx, session)
	s.mu.Unlock()
	if err != nil {
		logger.Error("Failed to create reconciliation session", slog.String("error", err.Error()), slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID: created.SessionID,
		Action:    portssvc.SessionCreated,
	})
	logger.Info("Reconciliation session created", slog.String("session_id", created.SessionID), slog.String("company_id", companyID))
	return created, nil
}

// AddCandidate scores a proposal and attaches the resulting candidate to the
// session.
func (s *reconciliationService) AddCandidate(ctx context.Context, sessionID string, proposal domain.MatchProposal) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	candidate := domain.MatchCandidate{
		CandidateID:    uuid.NewString(),
		TransactionID:  proposal.TransactionID,
		JournalEntryID: proposal.JournalEntryID,
		ProposedAt:     time.Now().UTC(),
		Score:          s.scoring.Score(proposal),
		Status:         domain.CandidatePending,
		GroupID:        proposal.GroupID,
	}

	_, err := s.modifySession(ctx, sessionID, func(session *domain.ReconciliationSession) error {
		return session.AddCandidate(candidate)
	})
	if err != nil {
		return nil, err
	}

	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID:   sessionID,
		CandidateID: &candidate.CandidateID,
		Action:      portssvc.CandidateAdded,
	})
	logger.Info("Match candidate added", slog.String("session_id", sessionID), slog.String("candidate_id", candidate.CandidateID), slog.Float64("score", float64(candidate.Score)))
	return &candidate, nil
}

// Accept finalizes one candidate, auto-rejecting every other candidate still
// in play and closing the session.
func (s *reconciliationService) Accept(ctx context.Context, sessionID string, candidateID string) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var accepted domain.MatchCandidate
	_, err := s.modifySession(ctx, sessionID, func(session *domain.ReconciliationSession) error {
		var err error
		accepted, err = session.Accept(candidateID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID:   sessionID,
		CandidateID: &accepted.CandidateID,
		Action:      portssvc.CandidateAccepted,
	})
	logger.Info("Candidate accepted, session closed", slog.String("session_id", sessionID), slog.String("candidate_id", candidateID))
	return &accepted, nil
}

// Reject turns down one pending candidate; the session stays open.
func (s *reconciliationService) Reject(ctx context.Context, sessionID string, candidateID string) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var rejected domain.MatchCandidate
	_, err := s.modifySession(ctx, sessionID, func(session *domain.ReconciliationSession) error {
		var err error
		rejected, err = session.Reject(candidateID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID:   sessionID,
		CandidateID: &rejected.CandidateID,
		Action:      portssvc.CandidateRejected,
	})
	logger.Info("Candidate rejected", slog.String("session_id", sessionID), slog.String("candidate_id", candidateID))
	return &rejected, nil
}

// AcceptPartial moves the listed candidates of one group to PartiallyAccepted
// and parks the session in PendingPartial.
func (s *reconciliationService) AcceptPartial(ctx context.Context, sessionID string, groupID string, candidateIDs []string) ([]domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var updated []domain.MatchCandidate
	_, err := s.modifySession(ctx, sessionID, func(session *domain.ReconciliationSession) error {
		var err error
		updated, err = session.PartialAccept(groupID, candidateIDs)
		return err
	})
	if err != nil {
		return nil, err
	}

	// One event per group action; the group reference identifies the set.
	note := fmt.Sprintf("group %s", groupID)
	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID: sessionID,
		Action:    portssvc.CandidatePartiallyAccepted,
		Note:      &note,
	})
	logger.Info("Candidates partially accepted", slog.String("session_id", sessionID), slog.String("group_id", groupID), slog.Int("count", len(updated)))
	return updated, nil
}

// WriteOff terminally disposes one candidate with a recorded reason.
func (s *reconciliationService) WriteOff(ctx context.Context, sessionID string, candidateID string, reason string) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var writtenOff domain.MatchCandidate
	_, err := s.modifySession(ctx, sessionID, func(session *domain.ReconciliationSession) error {
		var err error
		writtenOff, err = session.WriteOff(candidateID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID:   sessionID,
		CandidateID: &writtenOff.CandidateID,
		Action:      portssvc.CandidateWrittenOff,
		Note:        &reason,
	})
	logger.Info("Candidate written off", slog.String("session_id", sessionID), slog.String("candidate_id", candidateID))
	return &writtenOff, nil
}

// Reopen resets the session and all candidates to their pending states. This
// is the one mutator allowed on a closed session.
func (s *reconciliationService) Reopen(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session, err := s.modifySession(ctx, sessionID, func(session *domain.ReconciliationSession) error {
		session.Reopen()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(portssvc.ReconciliationAuditEvent{
		SessionID: sessionID,
		Action:    portssvc.SessionReopened,
	})
	logger.Info("Session reopened", slog.String("session_id", sessionID))
	return session, nil
}

// Session returns a deep copy of the session.
func (s *reconciliationService) Session(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// modifySession runs fetch, mutate, and write-back as one critical section.
// The mutation operates on a private clone; nothing is written back when it
// fails.
func (s *reconciliationService) modifySession(ctx context.Context, sessionID string, mutate func(*domain.ReconciliationSession) error) (*domain.ReconciliationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	working := session.Clone()
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSession(ctx, working); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &working, nil
}
