package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
)

var (
	usd = domain.Currency{Code: "USD", Precision: 2}
	eur = domain.Currency{Code: "EUR", Precision: 2}
)

func fxRate(rate string, source *string) *domain.CurrencyRate {
	return &domain.CurrencyRate{
		Base:   eur,
		Quote:  usd,
		Rate:   decimal.RequireFromString(rate),
		Source: source,
	}
}

func strPtr(s string) *string { return &s }

func TestHasCurrencyProvenance_SameCurrency(t *testing.T) {
	line := domain.JournalLine{
		AmountMinor:           1000,
		Currency:              usd,
		FunctionalAmountMinor: 1000,
		FunctionalCurrency:    usd,
	}
	assert.True(t, line.HasCurrencyProvenance())

	line.FunctionalAmountMinor = 999
	assert.False(t, line.HasCurrencyProvenance(), "same-currency amounts must match exactly")

	line.FunctionalAmountMinor = 1000
	line.ExchangeRate = fxRate("1.0", strPtr("ECB"))
	assert.False(t, line.HasCurrencyProvenance(), "same-currency lines must not carry a rate")
}

func TestHasCurrencyProvenance_CrossCurrency(t *testing.T) {
	base := domain.JournalLine{
		AmountMinor:           9300,
		Currency:              eur,
		FunctionalAmountMinor: 10000,
		FunctionalCurrency:    usd,
	}

	tests := []struct {
		name string
		rate *domain.CurrencyRate
		want bool
	}{
		{name: "no rate", rate: nil, want: false},
		{name: "valid rate within tolerance", rate: fxRate("1.0753", strPtr("ECB")), want: true},
		{name: "rounding lands exactly at tolerance", rate: fxRate("1.075", strPtr("ECB")), want: true}, // 9997.5 rounds to 9998, drift 2
		{name: "rate too far off", rate: fxRate("1.07", strPtr("ECB")), want: false},
		{name: "missing source", rate: fxRate("1.0753", nil), want: false},
		{name: "empty source", rate: fxRate("1.0753", strPtr("")), want: false},
		{
			name: "swapped base and quote",
			rate: &domain.CurrencyRate{Base: usd, Quote: eur, Rate: decimal.RequireFromString("1.0753"), Source: strPtr("ECB")},
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			line := base
			line.ExchangeRate = tc.rate
			assert.Equal(t, tc.want, line.HasCurrencyProvenance())
		})
	}
}

func balancedEntry(amountMinor int64) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:   "je-1",
		JournalID: "jnl-gl",
		Lines: []domain.JournalLine{
			{LineID: "l1", AccountID: "a1", Side: domain.Debit, AmountMinor: amountMinor, Currency: usd, FunctionalAmountMinor: amountMinor, FunctionalCurrency: usd},
			{LineID: "l2", AccountID: "a2", Side: domain.Credit, AmountMinor: amountMinor, Currency: usd, FunctionalAmountMinor: amountMinor, FunctionalCurrency: usd},
		},
	}
}

func TestJournalEntryValidate(t *testing.T) {
	entry := balancedEntry(12500)
	require.NoError(t, entry.Validate())

	entry.Lines[1].FunctionalAmountMinor = 12400
	err := entry.Validate()
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "journal entry must balance")

	entry = balancedEntry(12500)
	entry.Lines[0].Currency = eur
	err = entry.Validate()
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "Currency amounts must include provenance")
}

func TestPostingSideFlip(t *testing.T) {
	assert.Equal(t, domain.Credit, domain.Debit.Flip())
	assert.Equal(t, domain.Debit, domain.Credit.Flip())
}

func TestReconciliationStatusTransitions(t *testing.T) {
	entry := balancedEntry(100)

	require.NoError(t, entry.MarkReconciliationPending("sess-1"))
	assert.Equal(t, domain.ReconciliationPending, entry.ReconciliationStatus.State)

	// Pending under another session cannot be reconciled by this one.
	err := entry.MarkReconciled("sess-2")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, entry.MarkReconciled("sess-1"))
	assert.Equal(t, domain.Reconciled, entry.ReconciliationStatus.State)
	require.NoError(t, entry.MarkReconciled("sess-1"), "reconciling twice is a no-op")

	err = entry.MarkWriteOff("apr-1")
	require.ErrorIs(t, err, apperrors.ErrValidation, "reconciled entries cannot be written off")

	entry.ClearReconciliation()
	assert.Equal(t, domain.Unreconciled, entry.ReconciliationStatus.State)
}

func TestReconciliationZeroValueActsUnreconciled(t *testing.T) {
	var entry domain.JournalEntry

	require.NoError(t, entry.MarkReconciliationPending("sess-1"))
	assert.Equal(t, domain.ReconciliationPending, entry.ReconciliationStatus.State)

	entry = domain.JournalEntry{}
	require.NoError(t, entry.MarkWriteOff("apr-9"))
	assert.Equal(t, domain.WriteOff, entry.ReconciliationStatus.State)

	entry = domain.JournalEntry{}
	err := entry.MarkReconciled("sess-1")
	require.ErrorIs(t, err, apperrors.ErrValidation, "zero value is unreconciled, not pending")
}

func TestMarkWriteOff(t *testing.T) {
	entry := balancedEntry(100)

	err := entry.MarkWriteOff("   ")
	require.ErrorIs(t, err, apperrors.ErrValidation, "blank approval reference is rejected")

	require.NoError(t, entry.MarkWriteOff("apr-77"))
	assert.Equal(t, domain.WriteOff, entry.ReconciliationStatus.State)
	assert.Equal(t, "apr-77", entry.ReconciliationStatus.ApprovalReference)

	require.NoError(t, entry.MarkWriteOff("apr-78"), "write-off is idempotent")
	assert.Equal(t, "apr-77", entry.ReconciliationStatus.ApprovalReference, "first approval reference sticks")

	err = entry.MarkReconciled("sess-1")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
