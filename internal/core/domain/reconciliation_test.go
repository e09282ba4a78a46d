package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
)

func newSession(candidateIDs ...string) domain.ReconciliationSession {
	session := domain.ReconciliationSession{
		SessionID: "sess-1",
		CompanyID: "co-1",
		Status:    domain.SessionOpen,
		OpenedAt:  time.Now(),
	}
	for _, id := range candidateIDs {
		session.Candidates = append(session.Candidates, domain.MatchCandidate{
			CandidateID: id,
			Status:      domain.CandidatePending,
		})
	}
	return session
}

func TestSessionAccept_AutoRejectsCompetitors(t *testing.T) {
	session := newSession("c1", "c2", "c3")

	accepted, err := session.Accept("c2")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateAccepted, accepted.Status)
	assert.Equal(t, domain.SessionClosed, session.Status)
	assert.Equal(t, domain.CandidateRejected, session.Candidates[0].Status)
	assert.Equal(t, domain.CandidateRejected, session.Candidates[2].Status)

	_, err = session.Accept("c1")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "closed sessions are immutable")
}

func TestSessionAccept_UnknownCandidate(t *testing.T) {
	session := newSession("c1")
	_, err := session.Accept("c9")
	require.ErrorIs(t, err, apperrors.ErrCandidateNotFound)
}

func TestSessionReject_RequiresPending(t *testing.T) {
	session := newSession("c1")

	rejected, err := session.Reject("c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateRejected, rejected.Status)
	assert.Equal(t, domain.SessionOpen, session.Status)

	_, err = session.Reject("c1")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestSessionPartialAccept(t *testing.T) {
	groupA := "grp-a"
	session := newSession("c1", "c2")
	session.Candidates[0].GroupID = &groupA

	_, err := session.PartialAccept(groupA, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "empty id list is rejected")

	_, err = session.PartialAccept(groupA, []string{"c2"})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "candidate outside the group is rejected")

	updated, err := session.PartialAccept(groupA, []string{"c1"})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, domain.CandidatePartiallyAccepted, updated[0].Status)
	assert.Equal(t, domain.SessionPendingPartial, session.Status)
}

func TestSessionWriteOff_States(t *testing.T) {
	session := newSession("c1", "c2")
	_, err := session.Reject("c1")
	require.NoError(t, err)

	writtenOff, err := session.WriteOff("c1", "bank fee")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateWrittenOff, writtenOff.Status)
	require.NotNil(t, writtenOff.WriteOffReason)
	assert.Equal(t, "bank fee", *writtenOff.WriteOffReason)
	assert.Equal(t, domain.SessionPendingPartial, session.Status)

	_, err = session.WriteOff("c1", "again")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "written-off is terminal")
}

func TestSessionReopen_ResetsCandidates(t *testing.T) {
	session := newSession("c1", "c2")
	_, err := session.WriteOff("c1", "difference accepted")
	require.NoError(t, err)
	_, err = session.Accept("c2")
	require.NoError(t, err)

	session.Reopen()
	assert.Equal(t, domain.SessionOpen, session.Status)
	for _, candidate := range session.Candidates {
		assert.Equal(t, domain.CandidatePending, candidate.Status)
		assert.Nil(t, candidate.WriteOffReason)
	}

	// Reopening an open session changes nothing.
	session.Reopen()
	assert.Equal(t, domain.SessionOpen, session.Status)
}

func TestSessionClone_IsDeep(t *testing.T) {
	session := newSession("c1")
	clone := session.Clone()
	clone.Candidates[0].Status = domain.CandidateRejected

	assert.Equal(t, domain.CandidatePending, session.Candidates[0].Status)
}
