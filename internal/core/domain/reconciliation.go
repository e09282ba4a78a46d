package domain

import (
	"fmt"
	"time"

	"github.com/finacct/ledger_backend/internal/apperrors"
)

// CandidateStatus is the disposition of a proposed transaction/entry pairing.
type CandidateStatus string

const (
	CandidatePending           CandidateStatus = "PENDING"
	CandidateAccepted          CandidateStatus = "ACCEPTED"
	CandidatePartiallyAccepted CandidateStatus = "PARTIALLY_ACCEPTED"
	CandidateRejected          CandidateStatus = "REJECTED"
	CandidateWrittenOff        CandidateStatus = "WRITTEN_OFF"
)

// SessionStatus is the lifecycle state of a reconciliation session.
type SessionStatus string

const (
	SessionOpen           SessionStatus = "OPEN"
	SessionPendingPartial SessionStatus = "PENDING_PARTIAL"
	SessionClosed         SessionStatus = "CLOSED"
)

// MatchCandidate is a proposed pairing between one bank transaction and one
// journal entry awaiting disposition. The journal entry is referenced by id
// only; the ledger and reconciliation stores never reference each other.
type MatchCandidate struct {
	CandidateID    string          `json:"candidateID"`
	TransactionID  string          `json:"transactionID"`
	JournalEntryID string          `json:"journalEntryID"`
	ProposedAt     time.Time       `json:"proposedAt"`
	Score          float32         `json:"score"` // 0.0 - 1.0
	Status         CandidateStatus `json:"status"`
	GroupID        *string         `json:"groupID,omitempty"`
	WriteOffReason *string         `json:"writeOffReason,omitempty"`
}

// MatchProposal is the raw material for a candidate: the deltas and
// descriptions the scoring strategy evaluates.
type MatchProposal struct {
	TransactionID          string  `json:"transactionID"`
	JournalEntryID         string  `json:"journalEntryID"`
	AmountDeltaMinor       int64   `json:"amountDeltaMinor"`
	DateDeltaDays          int64   `json:"dateDeltaDays"`
	TransactionDescription string  `json:"transactionDescription"`
	JournalDescription     string  `json:"journalDescription"`
	GroupID                *string `json:"groupID,omitempty"`
}

// ReconciliationSession owns one company's in-progress matching workflow and
// its candidates.
type ReconciliationSession struct {
	SessionID  string           `json:"sessionID"`
	CompanyID  string           `json:"companyID"`
	Status     SessionStatus    `json:"status"`
	OpenedAt   time.Time        `json:"openedAt"`
	Candidates []MatchCandidate `json:"candidates"`
}

// EnsureMutable fails when the session has been finalized. Reopen is the only
// mutator exempt from this check.
func (s *ReconciliationSession) EnsureMutable() error {
	if s.Status == SessionClosed {
		return fmt.Errorf("%w: session %s is closed", apperrors.ErrInvalidTransition, s.SessionID)
	}
	return nil
}

// AddCandidate appends a candidate to an open session.
func (s *ReconciliationSession) AddCandidate(candidate MatchCandidate) error {
	if err := s.EnsureMutable(); err != nil {
		return err
	}
	s.Candidates = append(s.Candidates, candidate)
	return nil
}

// Accept finalizes the target candidate, auto-rejects every other candidate
// still in play, and closes the session.
func (s *ReconciliationSession) Accept(candidateID string) (MatchCandidate, error) {
	if err := s.EnsureMutable(); err != nil {
		return MatchCandidate{}, err
	}
	var accepted *MatchCandidate
	for i := range s.Candidates {
		candidate := &s.Candidates[i]
		if candidate.CandidateID == candidateID {
			if candidate.Status != CandidatePending && candidate.Status != CandidatePartiallyAccepted {
				return MatchCandidate{}, fmt.Errorf("%w: candidate %s is not pending", apperrors.ErrInvalidTransition, candidateID)
			}
			candidate.Status = CandidateAccepted
			candidate.WriteOffReason = nil
			accepted = candidate
		} else if candidate.Status == CandidatePending || candidate.Status == CandidatePartiallyAccepted {
			candidate.Status = CandidateRejected
		}
	}
	if accepted == nil {
		return MatchCandidate{}, fmt.Errorf("%w: candidate %s", apperrors.ErrCandidateNotFound, candidateID)
	}
	s.Status = SessionClosed
	return *accepted, nil
}

// Reject turns down one pending candidate; the session stays open for
// further matching.
func (s *ReconciliationSession) Reject(candidateID string) (MatchCandidate, error) {
	if err := s.EnsureMutable(); err != nil {
		return MatchCandidate{}, err
	}
	candidate := s.findCandidate(candidateID)
	if candidate == nil {
		return MatchCandidate{}, fmt.Errorf("%w: candidate %s", apperrors.ErrCandidateNotFound, candidateID)
	}
	if candidate.Status != CandidatePending {
		return MatchCandidate{}, fmt.Errorf("%w: candidate %s is not pending", apperrors.ErrInvalidTransition, candidateID)
	}
	candidate.Status = CandidateRejected
	return *candidate, nil
}

// PartialAccept moves every listed candidate of the group to
// PartiallyAccepted and parks the session in PendingPartial.
func (s *ReconciliationSession) PartialAccept(groupID string, candidateIDs []string) ([]MatchCandidate, error) {
	if err := s.EnsureMutable(); err != nil {
		return nil, err
	}
	if len(candidateIDs) == 0 {
		return nil, fmt.Errorf("%w: partial accept requires at least one candidate", apperrors.ErrInvalidTransition)
	}
	requested := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		requested[id] = struct{}{}
	}
	var updated []MatchCandidate
	for i := range s.Candidates {
		candidate := &s.Candidates[i]
		if _, ok := requested[candidate.CandidateID]; !ok {
			continue
		}
		if candidate.GroupID == nil || *candidate.GroupID != groupID {
			return nil, fmt.Errorf("%w: candidate %s does not belong to group %s", apperrors.ErrInvalidTransition, candidate.CandidateID, groupID)
		}
		if candidate.Status != CandidatePending {
			return nil, fmt.Errorf("%w: candidate %s is not pending", apperrors.ErrInvalidTransition, candidate.CandidateID)
		}
		candidate.Status = CandidatePartiallyAccepted
		updated = append(updated, *candidate)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("%w: no pending candidates were found for group %s", apperrors.ErrInvalidTransition, groupID)
	}
	s.Status = SessionPendingPartial
	return updated, nil
}

// WriteOff terminally disposes one candidate with a recorded reason. Allowed
// from Pending, PartiallyAccepted, or Rejected.
func (s *ReconciliationSession) WriteOff(candidateID string, reason string) (MatchCandidate, error) {
	if err := s.EnsureMutable(); err != nil {
		return MatchCandidate{}, err
	}
	candidate := s.findCandidate(candidateID)
	if candidate == nil {
		return MatchCandidate{}, fmt.Errorf("%w: candidate %s", apperrors.ErrCandidateNotFound, candidateID)
	}
	switch candidate.Status {
	case CandidatePending, CandidatePartiallyAccepted, CandidateRejected:
	default:
		return MatchCandidate{}, fmt.Errorf("%w: candidate %s cannot be written off from status %s", apperrors.ErrInvalidTransition, candidateID, candidate.Status)
	}
	candidate.Status = CandidateWrittenOff
	candidate.WriteOffReason = &reason
	s.Status = SessionPendingPartial
	return *candidate, nil
}

// Reopen resets every candidate to Pending and the session to Open. A no-op
// on an already-open session.
func (s *ReconciliationSession) Reopen() {
	if s.Status == SessionOpen {
		return
	}
	for i := range s.Candidates {
		s.Candidates[i].Status = CandidatePending
		s.Candidates[i].WriteOffReason = nil
	}
	s.Status = SessionOpen
}

func (s *ReconciliationSession) findCandidate(candidateID string) *MatchCandidate {
	for i := range s.Candidates {
		if s.Candidates[i].CandidateID == candidateID {
			return &s.Candidates[i]
		}
	}
	return nil
}

// Clone returns a deep copy so store implementations can hand out sessions
// without sharing candidate slices with callers.
func (s ReconciliationSession) Clone() ReconciliationSession {
	clone := s
	clone.Candidates = make([]MatchCandidate, len(s.Candidates))
	copy(clone.Candidates, s.Candidates)
	return clone
}
