package domain

import "time"

// LedgerType categorizes a journal within a company's ledger set.
type LedgerType string

const (
	General            LedgerType = "GENERAL"
	AccountsPayable    LedgerType = "ACCOUNTS_PAYABLE"
	AccountsReceivable LedgerType = "ACCOUNTS_RECEIVABLE"
	Cash               LedgerType = "CASH"
	SubLedger          LedgerType = "SUB_LEDGER"
)

// PeriodState is the posting gate for a journal's current fiscal period.
type PeriodState string

const (
	Open       PeriodState = "OPEN"
	SoftClosed PeriodState = "SOFT_CLOSED"
	Closed     PeriodState = "CLOSED"
)

// PeriodAction is a requested period-lock transition. Any action is accepted
// from any current state; this journal is the system of record for what was
// requested, not a turnstile.
type PeriodAction string

const (
	SoftClose  PeriodAction = "SOFT_CLOSE"
	Close      PeriodAction = "CLOSE"
	ReopenSoft PeriodAction = "REOPEN_SOFT"
	ReopenFull PeriodAction = "REOPEN_FULL"
)

// TargetState maps the action to the period state it produces.
func (a PeriodAction) TargetState() PeriodState {
	switch a {
	case Close:
		return Closed
	case ReopenFull:
		return Open
	default: // SoftClose, ReopenSoft
		return SoftClosed
	}
}

// PeriodRef identifies one fiscal period of a fiscal year.
type PeriodRef struct {
	FiscalYear int32 `json:"fiscalYear"`
	Period     uint8 `json:"period"`
}

// PeriodLockInfo is one row of a journal's approval trail. Appended, never
// mutated or removed.
type PeriodLockInfo struct {
	Period            PeriodRef    `json:"period"`
	Action            PeriodAction `json:"action"`
	ApprovalReference *string      `json:"approvalReference,omitempty"`
	LockedAt          time.Time    `json:"lockedAt"`
	LockedBy          string       `json:"lockedBy"`
}

// Journal tracks per-(company, journal) period lock state and its history.
type Journal struct {
	JournalID   string           `json:"journalID"`
	CompanyID   string           `json:"companyID"`
	LedgerType  LedgerType       `json:"ledgerType"`
	PeriodState PeriodState      `json:"periodState"`
	LatestLock  *PeriodLockInfo  `json:"latestLock,omitempty"`
	LockHistory []PeriodLockInfo `json:"lockHistory"`
}

// CanPost reports whether the journal's current period state admits postings.
// Soft-close is overridable upstream; close is absolute.
func (j Journal) CanPost(allowSoftCloseOverride bool) bool {
	switch j.PeriodState {
	case Open:
		return true
	case SoftClosed:
		return allowSoftCloseOverride
	default:
		return false
	}
}

// RecordLock appends a lock row and updates the journal's current state.
func (j *Journal) RecordLock(info PeriodLockInfo) {
	j.PeriodState = info.Action.TargetState()
	j.LockHistory = append(j.LockHistory, info)
	j.LatestLock = &j.LockHistory[len(j.LockHistory)-1]
}
