package services

import (
	"context"

	"github.com/finacct/ledger_backend/internal/core/domain"
)

// ScoringStrategy scores a proposed transaction/entry pairing into [0, 1].
type ScoringStrategy interface {
	Score(proposal domain.MatchProposal) float32
}

// ReconciliationAuditAction labels the reconciliation events dispatched to
// registered audit hooks.
type ReconciliationAuditAction string

const (
	SessionCreated             ReconciliationAuditAction = "SESSION_CREATED"
	CandidateAdded             ReconciliationAuditAction = "CANDIDATE_ADDED"
	CandidateAccepted          ReconciliationAuditAction = "CANDIDATE_ACCEPTED"
	CandidateRejected          ReconciliationAuditAction = "CANDIDATE_REJECTED"
	CandidatePartiallyAccepted ReconciliationAuditAction = "CANDIDATE_PARTIALLY_ACCEPTED"
	CandidateWrittenOff        ReconciliationAuditAction = "CANDIDATE_WRITTEN_OFF"
	SessionReopened            ReconciliationAuditAction = "SESSION_REOPENED"
)

// ReconciliationAuditEvent describes one session or candidate transition.
type ReconciliationAuditEvent struct {
	SessionID   string
	CandidateID *string
	Action      ReconciliationAuditAction
	Note        *string
}

// ReconciliationAuditHook receives audit events synchronously after the
// session store commit. Hooks must tolerate being called from any goroutine.
type ReconciliationAuditHook interface {
	Record(event ReconciliationAuditEvent)
}

// ReconciliationSvcFacade orchestrates session creation, the candidate
// lifecycle, and audit-hook dispatch.
type ReconciliationSvcFacade interface {
	CreateSession(ctx context.Context, companyID string) (*domain.ReconciliationSession, error)
	AddCandidate(ctx context.Context, sessionID string, proposal domain.MatchProposal) (*domain.MatchCandidate, error)
	Accept(ctx context.Context, sessionID string, candidateID string) (*domain.MatchCandidate, error)
	Reject(ctx context.Context, sessionID string, candidateID string) (*domain.MatchCandidate, error)
	AcceptPartial(ctx context.Context, sessionID string, groupID string, candidateIDs []string) ([]domain.MatchCandidate, error)
	WriteOff(ctx context.Context, sessionID string, candidateID string, reason string) (*domain.MatchCandidate, error)
	Reopen(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)
	Session(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)
	RegisterAuditHook(hook ReconciliationAuditHook)
}
