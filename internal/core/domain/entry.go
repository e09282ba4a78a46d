package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finacct/ledger_backend/internal/apperrors"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Proposed EntryStatus = "PROPOSED"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// EntryOrigin records where an entry came from.
type EntryOrigin string

const (
	Manual      EntryOrigin = "MANUAL"
	Ingestion   EntryOrigin = "INGESTION"
	AiSuggested EntryOrigin = "AI_SUGGESTED"
	Adjustment  EntryOrigin = "ADJUSTMENT"
)

// PostingMode selects between a validation-only preview and a committed post.
type PostingMode string

const (
	DryRun PostingMode = "DRY_RUN"
	Commit PostingMode = "COMMIT"
)

// PostingSide indicates whether a line debits or credits its account.
type PostingSide string

const (
	Debit  PostingSide = "DEBIT"
	Credit PostingSide = "CREDIT"
)

// Flip returns the opposite posting side.
func (s PostingSide) Flip() PostingSide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// ReconciliationState enumerates the entry-level reconciliation states.
type ReconciliationState string

const (
	Unreconciled          ReconciliationState = "UNRECONCILED"
	ReconciliationPending ReconciliationState = "PENDING"
	Reconciled            ReconciliationState = "RECONCILED"
	WriteOff              ReconciliationState = "WRITE_OFF"
)

// ReconciliationStatus carries the entry's reconciliation state plus the
// payload of that state: the owning session for Pending/Reconciled, the
// approval reference for WriteOff.
type ReconciliationStatus struct {
	State             ReconciliationState `json:"state"`
	SessionID         string              `json:"sessionID,omitempty"`
	ApprovalReference string              `json:"approvalReference,omitempty"`
}

// NewUnreconciled returns the initial reconciliation status.
func NewUnreconciled() ReconciliationStatus {
	return ReconciliationStatus{State: Unreconciled}
}

// state treats the zero value as Unreconciled so struct-literal entries
// behave like freshly posted ones.
func (r ReconciliationStatus) state() ReconciliationState {
	if r.State == "" {
		return Unreconciled
	}
	return r.State
}

// JournalLine is a single debit or credit within a journal entry. Amounts are
// integer minor units; FunctionalAmountMinor is the amount converted into the
// company's functional currency.
type JournalLine struct {
	LineID                string        `json:"lineID"`
	AccountID             string        `json:"accountID"`
	Side                  PostingSide   `json:"side"`
	AmountMinor           int64         `json:"amountMinor"` // transactional currency
	Currency              Currency      `json:"currency"`
	FunctionalAmountMinor int64         `json:"functionalAmountMinor"`
	FunctionalCurrency    Currency      `json:"functionalCurrency"`
	ExchangeRate          *CurrencyRate `json:"exchangeRate,omitempty"`
	TaxCode               *TaxCode      `json:"taxCode,omitempty"`
	Memo                  *string       `json:"memo,omitempty"`
}

// provenanceToleranceMinor bounds the rounding drift allowed between a
// converted amount and the stated functional amount.
const provenanceToleranceMinor = 2

// HasCurrencyProvenance reports whether the line's functional amount is
// justified. Same-currency lines must carry no rate and identical amounts; a
// cross-currency line needs a rate whose base/quote match the line's
// currencies, a non-empty source, and round(amount * rate) within the
// tolerance of the functional amount.
func (l JournalLine) HasCurrencyProvenance() bool {
	if l.Currency == l.FunctionalCurrency {
		return l.ExchangeRate == nil && l.AmountMinor == l.FunctionalAmountMinor
	}

	rate := l.ExchangeRate
	if rate == nil {
		return false
	}
	if rate.Base != l.Currency || rate.Quote != l.FunctionalCurrency {
		return false
	}
	if rate.Source == nil || *rate.Source == "" {
		return false
	}

	converted := rate.Rate.Mul(decimal.NewFromInt(l.AmountMinor)).Round(0)
	drift := converted.Sub(decimal.NewFromInt(l.FunctionalAmountMinor)).Abs()
	return drift.LessThanOrEqual(decimal.NewFromInt(provenanceToleranceMinor))
}

// JournalEntry is a balanced financial event composed of debit/credit lines.
type JournalEntry struct {
	EntryID              string               `json:"entryID"`
	JournalID            string               `json:"journalID"`
	Status               EntryStatus          `json:"status"`
	ReconciliationStatus ReconciliationStatus `json:"reconciliationStatus"`
	Lines                []JournalLine        `json:"lines"`
	Origin               EntryOrigin          `json:"origin"`
	Memo                 *string              `json:"memo,omitempty"`
	ReversesEntryID      *string              `json:"reversesEntryID,omitempty"`
	ReversedByEntryID    *string              `json:"reversedByEntryID,omitempty"`
}

// IsBalanced reports whether functional-currency debits equal credits.
func (e JournalEntry) IsBalanced() bool {
	var debits, credits int64
	for _, line := range e.Lines {
		if line.Side == Debit {
			debits += line.FunctionalAmountMinor
		} else {
			credits += line.FunctionalAmountMinor
		}
	}
	return debits == credits
}

// Validate checks the entry's cross-field invariants: double-entry balance
// and per-line currency provenance.
func (e JournalEntry) Validate() error {
	if !e.IsBalanced() {
		return fmt.Errorf("%w: journal entry must balance", apperrors.ErrValidation)
	}
	for _, line := range e.Lines {
		if !line.HasCurrencyProvenance() {
			return fmt.Errorf("%w: Currency amounts must include provenance", apperrors.ErrValidation)
		}
	}
	return nil
}

// MarkReconciliationPending moves the entry under a reconciliation session.
// Re-marking an already pending entry just retargets the session.
func (e *JournalEntry) MarkReconciliationPending(sessionID string) error {
	switch e.ReconciliationStatus.state() {
	case Unreconciled, ReconciliationPending:
		e.ReconciliationStatus = ReconciliationStatus{State: ReconciliationPending, SessionID: sessionID}
		return nil
	default:
		return fmt.Errorf("%w: cannot mark entry pending after reconciliation or write-off", apperrors.ErrValidation)
	}
}

// MarkReconciled finalizes reconciliation under the session that holds the
// entry pending. Idempotent when already reconciled.
func (e *JournalEntry) MarkReconciled(sessionID string) error {
	switch e.ReconciliationStatus.state() {
	case ReconciliationPending:
		if e.ReconciliationStatus.SessionID != sessionID {
			return fmt.Errorf("%w: entry is pending reconciliation under session %s", apperrors.ErrValidation, e.ReconciliationStatus.SessionID)
		}
		e.ReconciliationStatus = ReconciliationStatus{State: Reconciled, SessionID: sessionID}
		return nil
	case Reconciled:
		return nil
	default:
		return fmt.Errorf("%w: entry must be pending before reconciliation", apperrors.ErrValidation)
	}
}

// MarkWriteOff terminally accepts an unreconciled difference. Requires a
// recorded approval reference. Idempotent when already written off.
func (e *JournalEntry) MarkWriteOff(approvalReference string) error {
	if strings.TrimSpace(approvalReference) == "" {
		return fmt.Errorf("%w: write-off requires an approval reference", apperrors.ErrValidation)
	}
	switch e.ReconciliationStatus.state() {
	case Unreconciled, ReconciliationPending:
		e.ReconciliationStatus = ReconciliationStatus{State: WriteOff, ApprovalReference: approvalReference}
		return nil
	case WriteOff:
		return nil
	default:
		return fmt.Errorf("%w: reconciled entries cannot be written off", apperrors.ErrValidation)
	}
}

// ClearReconciliation resets the entry to Unreconciled.
func (e *JournalEntry) ClearReconciliation() {
	e.ReconciliationStatus = NewUnreconciled()
}
