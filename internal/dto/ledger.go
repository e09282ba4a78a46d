package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPayload mirrors domain.Currency for request binding.
type CurrencyPayload struct {
	Code      string `json:"code" binding:"required,uppercase,len=3"`
	Precision uint8  `json:"precision"`
}

// FiscalCalendarPayload mirrors domain.FiscalCalendar.
type FiscalCalendarPayload struct {
	PeriodsPerYear uint8 `json:"periodsPerYear" binding:"required,min=1,max=13"`
	OpeningMonth   uint8 `json:"openingMonth" binding:"required,min=1,max=12"`
}

// CreateCompanyRequest bootstraps a tenant-scoped company and its seeded
// general ledger journal.
type CreateCompanyRequest struct {
	Name           string                `json:"name" binding:"required"`
	BaseCurrency   CurrencyPayload       `json:"baseCurrency" binding:"required"`
	FiscalCalendar FiscalCalendarPayload `json:"fiscalCalendar" binding:"required"`
}

// TaxCodePayload mirrors domain.TaxCode.
type TaxCodePayload struct {
	Code        string  `json:"code" binding:"required"`
	Description string  `json:"description"`
	RatePercent float32 `json:"ratePercent"`
}

// UpsertAccountRequest creates or overwrites one chart-of-accounts node.
type UpsertAccountRequest struct {
	AccountID       string          `json:"accountID" binding:"required"`
	Code            string          `json:"code" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	AccountType     string          `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE OFF_BALANCE"`
	ParentAccountID *string         `json:"parentAccountID,omitempty"`
	CurrencyMode    string          `json:"currencyMode" binding:"required,oneof=FUNCTIONAL_ONLY TRANSACTIONAL MULTI_CURRENCY"`
	TaxCode         *TaxCodePayload `json:"taxCode,omitempty"`
	IsSummary       bool            `json:"isSummary"`
	IsActive        bool            `json:"isActive"`
}

// ChartAccountPayload is one row of a chart template; parents are referenced
// by code.
type ChartAccountPayload struct {
	Code         string          `json:"code" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	AccountType  string          `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE OFF_BALANCE"`
	ParentCode   *string         `json:"parentCode,omitempty"`
	CurrencyMode string          `json:"currencyMode" binding:"required,oneof=FUNCTIONAL_ONLY TRANSACTIONAL MULTI_CURRENCY"`
	TaxCode      *TaxCodePayload `json:"taxCode,omitempty"`
	IsSummary    bool            `json:"isSummary"`
}

// SeedChartRequest bulk-creates a chart of accounts, all-or-nothing.
type SeedChartRequest struct {
	Accounts []ChartAccountPayload `json:"accounts" binding:"required,min=1,dive"`
}

// ExchangeRatePayload mirrors domain.CurrencyRate.
type ExchangeRatePayload struct {
	Base       CurrencyPayload `json:"base" binding:"required"`
	Quote      CurrencyPayload `json:"quote" binding:"required"`
	Rate       decimal.Decimal `json:"rate" binding:"required"`
	Source     *string         `json:"source,omitempty"`
	ObservedAt time.Time       `json:"observedAt"`
}

// JournalLinePayload is one debit or credit line of an entry.
type JournalLinePayload struct {
	LineID                string               `json:"lineID" binding:"required"`
	AccountID             string               `json:"accountID" binding:"required"`
	Side                  string               `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	AmountMinor           int64                `json:"amountMinor"`
	Currency              CurrencyPayload      `json:"currency" binding:"required"`
	FunctionalAmountMinor int64                `json:"functionalAmountMinor"`
	FunctionalCurrency    CurrencyPayload      `json:"functionalCurrency" binding:"required"`
	ExchangeRate          *ExchangeRatePayload `json:"exchangeRate,omitempty"`
	TaxCode               *TaxCodePayload      `json:"taxCode,omitempty"`
	Memo                  *string              `json:"memo,omitempty"`
}

// PostEntryRequest submits a journal entry for validation (DRY_RUN) or
// commit (COMMIT).
type PostEntryRequest struct {
	EntryID   string               `json:"entryID" binding:"required"`
	JournalID string               `json:"journalID" binding:"required"`
	Origin    string               `json:"origin" binding:"required,oneof=MANUAL INGESTION AI_SUGGESTED ADJUSTMENT"`
	Memo      *string              `json:"memo,omitempty"`
	Lines     []JournalLinePayload `json:"lines" binding:"dive"`
	Mode      string               `json:"mode" binding:"omitempty,oneof=DRY_RUN COMMIT"`
}

// ReverseEntryRequest asks for a balancing, sign-flipped entry linked to the
// original.
type ReverseEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PeriodRefPayload identifies one fiscal period.
type PeriodRefPayload struct {
	FiscalYear int32 `json:"fiscalYear" binding:"required"`
	Period     uint8 `json:"period" binding:"required,min=1,max=13"`
}

// LockPeriodRequest applies a period action to a journal.
type LockPeriodRequest struct {
	Period            PeriodRefPayload `json:"period" binding:"required"`
	Action            string           `json:"action" binding:"required,oneof=SOFT_CLOSE CLOSE REOPEN_SOFT REOPEN_FULL"`
	ApprovalReference *string          `json:"approvalReference,omitempty"`
}

// EnsurePeriodRequest initializes or reads the state of one period tuple.
type EnsurePeriodRequest struct {
	Period PeriodRefPayload `json:"period" binding:"required"`
}

// RevalueCurrencyRequest asks for revaluation entries for the listed
// currencies in one period.
type RevalueCurrencyRequest struct {
	Period     PeriodRefPayload  `json:"period" binding:"required"`
	Currencies []CurrencyPayload `json:"currencies" binding:"dive"`
}
