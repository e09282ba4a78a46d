package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
	"github.com/finacct/ledger_backend/internal/core/services"
	"github.com/finacct/ledger_backend/internal/repositories/memory"
)

// recordingHook captures dispatched audit events for assertions.
type recordingHook struct {
	mu     sync.Mutex
	events []portssvc.ReconciliationAuditEvent
}

func (h *recordingHook) Record(event portssvc.ReconciliationAuditEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHook) recorded() []portssvc.ReconciliationAuditEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]portssvc.ReconciliationAuditEvent(nil), h.events...)
}

type ReconciliationServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	service portssvc.ReconciliationSvcFacade
	hook    *recordingHook

	session domain.ReconciliationSession
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.hook = &recordingHook{}
	suite.service = services.NewReconciliationService(memory.NewReconciliationStore(), services.NewDefaultScoringStrategy())
	suite.service.RegisterAuditHook(suite.hook)

	session, err := suite.service.CreateSession(suite.ctx, "co-1")
	suite.Require().NoError(err)
	suite.session = *session
}

func (suite *ReconciliationServiceTestSuite) addCandidate(groupID *string) domain.MatchCandidate {
	candidate, err := suite.service.AddCandidate(suite.ctx, suite.session.SessionID, domain.MatchProposal{
		TransactionID:          "txn-1",
		JournalEntryID:         "je-1",
		AmountDeltaMinor:       0,
		DateDeltaDays:          0,
		TransactionDescription: "ACME invoice 42",
		JournalDescription:     "ACME invoice 42",
		GroupID:                groupID,
	})
	suite.Require().NoError(err)
	return *candidate
}

func (suite *ReconciliationServiceTestSuite) TestCreateSession_StartsOpen() {
	suite.Equal(domain.SessionOpen, suite.session.Status)
	suite.Equal("co-1", suite.session.CompanyID)
	suite.Empty(suite.session.Candidates)
}

func (suite *ReconciliationServiceTestSuite) TestAddCandidate_ScoresProposal() {
	candidate := suite.addCandidate(nil)
	suite.Equal(domain.CandidatePending, candidate.Status)
	suite.InDelta(1.0, float64(candidate.Score), 0.0001)

	session, err := suite.service.Session(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)
	suite.Require().Len(session.Candidates, 1)
}

func (suite *ReconciliationServiceTestSuite) TestAccept_ClosesSessionAndRejectsOthers() {
	first := suite.addCandidate(nil)
	second := suite.addCandidate(nil)

	accepted, err := suite.service.Accept(suite.ctx, suite.session.SessionID, first.CandidateID)
	suite.Require().NoError(err)
	suite.Equal(domain.CandidateAccepted, accepted.Status)

	session, err := suite.service.Session(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)
	suite.Equal(domain.SessionClosed, session.Status)
	for _, candidate := range session.Candidates {
		if candidate.CandidateID == second.CandidateID {
			suite.Equal(domain.CandidateRejected, candidate.Status)
		}
	}

	// A closed session refuses further candidates.
	_, err = suite.service.AddCandidate(suite.ctx, suite.session.SessionID, domain.MatchProposal{TransactionID: "txn-9", JournalEntryID: "je-9"})
	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *ReconciliationServiceTestSuite) TestReject_KeepsSessionOpen() {
	candidate := suite.addCandidate(nil)

	rejected, err := suite.service.Reject(suite.ctx, suite.session.SessionID, candidate.CandidateID)
	suite.Require().NoError(err)
	suite.Equal(domain.CandidateRejected, rejected.Status)

	session, err := suite.service.Session(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)
	suite.Equal(domain.SessionOpen, session.Status)

	// Rejecting twice is an invalid transition.
	_, err = suite.service.Reject(suite.ctx, suite.session.SessionID, candidate.CandidateID)
	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *ReconciliationServiceTestSuite) TestAcceptPartial_GroupIntegrity() {
	groupA := "grp-a"
	groupB := "grp-b"
	inGroup := suite.addCandidate(&groupA)
	outOfGroup := suite.addCandidate(&groupB)

	_, err := suite.service.AcceptPartial(suite.ctx, suite.session.SessionID, groupA, []string{inGroup.CandidateID, outOfGroup.CandidateID})
	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = suite.service.AcceptPartial(suite.ctx, suite.session.SessionID, groupA, nil)
	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)

	updated, err := suite.service.AcceptPartial(suite.ctx, suite.session.SessionID, groupA, []string{inGroup.CandidateID})
	suite.Require().NoError(err)
	suite.Require().Len(updated, 1)
	suite.Equal(domain.CandidatePartiallyAccepted, updated[0].Status)

	session, err := suite.service.Session(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)
	suite.Equal(domain.SessionPendingPartial, session.Status)
}

func (suite *ReconciliationServiceTestSuite) TestWriteOff_AllowedFromRejected() {
	candidate := suite.addCandidate(nil)
	_, err := suite.service.Reject(suite.ctx, suite.session.SessionID, candidate.CandidateID)
	suite.Require().NoError(err)

	writtenOff, err := suite.service.WriteOff(suite.ctx, suite.session.SessionID, candidate.CandidateID, "unmatched bank fee")
	suite.Require().NoError(err)
	suite.Equal(domain.CandidateWrittenOff, writtenOff.Status)
	suite.Require().NotNil(writtenOff.WriteOffReason)
	suite.Equal("unmatched bank fee", *writtenOff.WriteOffReason)

	session, err := suite.service.Session(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)
	suite.Equal(domain.SessionPendingPartial, session.Status)

	// WrittenOff is terminal.
	_, err = suite.service.WriteOff(suite.ctx, suite.session.SessionID, candidate.CandidateID, "again")
	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *ReconciliationServiceTestSuite) TestWriteOff_NotAllowedFromAccepted() {
	candidate := suite.addCandidate(nil)
	_, err := suite.service.Accept(suite.ctx, suite.session.SessionID, candidate.CandidateID)
	suite.Require().NoError(err)

	_, err = suite.service.WriteOff(suite.ctx, suite.session.SessionID, candidate.CandidateID, "oops")
	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *ReconciliationServiceTestSuite) TestReopen_ResetsEveryCandidate() {
	candidate := suite.addCandidate(nil)
	other := suite.addCandidate(nil)
	_, err := suite.service.WriteOff(suite.ctx, suite.session.SessionID, candidate.CandidateID, "difference accepted")
	suite.Require().NoError(err)
	_, err = suite.service.Accept(suite.ctx, suite.session.SessionID, other.CandidateID)
	suite.Require().NoError(err)

	session, err := suite.service.Reopen(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)
	suite.Equal(domain.SessionOpen, session.Status)
	for _, c := range session.Candidates {
		suite.Equal(domain.CandidatePending, c.Status)
		suite.Nil(c.WriteOffReason)
	}
}

func (suite *ReconciliationServiceTestSuite) TestUnknownSessionAndCandidate() {
	_, err := suite.service.Accept(suite.ctx, "sess-missing", "cand-1")
	suite.Require().ErrorIs(err, apperrors.ErrSessionNotFound)

	_, err = suite.service.Accept(suite.ctx, suite.session.SessionID, "cand-missing")
	suite.Require().ErrorIs(err, apperrors.ErrCandidateNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestAuditHooks_ReceiveLifecycleEvents() {
	candidate := suite.addCandidate(nil)
	_, err := suite.service.WriteOff(suite.ctx, suite.session.SessionID, candidate.CandidateID, "bank fee")
	suite.Require().NoError(err)
	_, err = suite.service.Reopen(suite.ctx, suite.session.SessionID)
	suite.Require().NoError(err)

	events := suite.hook.recorded()
	suite.Require().Len(events, 4)
	suite.Equal(portssvc.SessionCreated, events[0].Action)
	suite.Equal(portssvc.CandidateAdded, events[1].Action)
	suite.Equal(portssvc.CandidateWrittenOff, events[2].Action)
	suite.Require().NotNil(events[2].Note)
	suite.Equal("bank fee", *events[2].Note)
	suite.Equal(portssvc.SessionReopened, events[3].Action)

	// Failed transitions emit nothing.
	before := len(suite.hook.recorded())
	_, err = suite.service.Reject(suite.ctx, suite.session.SessionID, "cand-missing")
	suite.Require().ErrorIs(err, apperrors.ErrCandidateNotFound)
	suite.Len(suite.hook.recorded(), before)
}

func (suite *ReconciliationServiceTestSuite) TestAcceptPartial_EmitsOneGroupedEvent() {
	groupID := "grp-1"
	first := suite.addCandidate(&groupID)
	second := suite.addCandidate(&groupID)

	before := len(suite.hook.recorded())
	_, err := suite.service.AcceptPartial(suite.ctx, suite.session.SessionID, groupID, []string{first.CandidateID, second.CandidateID})
	suite.Require().NoError(err)

	events := suite.hook.recorded()
	suite.Require().Len(events, before+1, "one event covers the whole group")
	last := events[len(events)-1]
	suite.Equal(portssvc.CandidatePartiallyAccepted, last.Action)
	suite.Nil(last.CandidateID)
	suite.Require().NotNil(last.Note)
	suite.Equal("group grp-1", *last.Note)
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
