package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finacct/ledger_backend/internal/core/domain"
)

func TestPeriodActionTargetState(t *testing.T) {
	assert.Equal(t, domain.SoftClosed, domain.SoftClose.TargetState())
	assert.Equal(t, domain.Closed, domain.Close.TargetState())
	assert.Equal(t, domain.SoftClosed, domain.ReopenSoft.TargetState())
	assert.Equal(t, domain.Open, domain.ReopenFull.TargetState())
}

func TestJournalCanPost(t *testing.T) {
	journal := domain.Journal{PeriodState: domain.Open}
	assert.True(t, journal.CanPost(false))

	journal.PeriodState = domain.SoftClosed
	assert.False(t, journal.CanPost(false))
	assert.True(t, journal.CanPost(true), "soft-close is overridable")

	journal.PeriodState = domain.Closed
	assert.False(t, journal.CanPost(true), "close is absolute")
}

func TestJournalRecordLock(t *testing.T) {
	journal := domain.Journal{JournalID: "jnl-gl", PeriodState: domain.Open}
	period := domain.PeriodRef{FiscalYear: 2024, Period: 1}

	journal.RecordLock(domain.PeriodLockInfo{Period: period, Action: domain.SoftClose, LockedAt: time.Now(), LockedBy: "user-1"})
	journal.RecordLock(domain.PeriodLockInfo{Period: period, Action: domain.Close, LockedAt: time.Now(), LockedBy: "user-2"})
	// Reopening a never-closed period is still recorded.
	journal.RecordLock(domain.PeriodLockInfo{Period: period, Action: domain.ReopenSoft, LockedAt: time.Now(), LockedBy: "user-1"})

	assert.Equal(t, domain.SoftClosed, journal.PeriodState)
	require.Len(t, journal.LockHistory, 3)
	assert.Equal(t, domain.SoftClose, journal.LockHistory[0].Action)
	assert.Equal(t, domain.Close, journal.LockHistory[1].Action)
	require.NotNil(t, journal.LatestLock)
	assert.Equal(t, domain.ReopenSoft, journal.LatestLock.Action)
}
