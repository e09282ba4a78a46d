package mapping

import (
	"github.com/finacct/ledger_backend/internal/core/domain"
	"github.com/finacct/ledger_backend/internal/dto"
)

// ToDomainCurrency converts a currency payload to its domain type.
func ToDomainCurrency(payload dto.CurrencyPayload) domain.Currency {
	return domain.Currency{Code: payload.Code, Precision: payload.Precision}
}

// ToDomainFiscalCalendar converts a fiscal calendar payload.
func ToDomainFiscalCalendar(payload dto.FiscalCalendarPayload) domain.FiscalCalendar {
	return domain.FiscalCalendar{
		PeriodsPerYear: payload.PeriodsPerYear,
		OpeningMonth:   payload.OpeningMonth,
	}
}

func toDomainTaxCode(payload *dto.TaxCodePayload) *domain.TaxCode {
	if payload == nil {
		return nil
	}
	return &domain.TaxCode{
		Code:        payload.Code,
		Description: payload.Description,
		RatePercent: payload.RatePercent,
	}
}

// ToDomainAccount converts an upsert request for the given company.
func ToDomainAccount(companyID string, req dto.UpsertAccountRequest) domain.Account {
	return domain.Account{
		AccountID:       req.AccountID,
		CompanyID:       companyID,
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     domain.AccountType(req.AccountType),
		ParentAccountID: req.ParentAccountID,
		CurrencyMode:    domain.CurrencyMode(req.CurrencyMode),
		TaxCode:         toDomainTaxCode(req.TaxCode),
		IsSummary:       req.IsSummary,
		IsActive:        req.IsActive,
	}
}

// ToDomainChartAccounts converts a seed request's template rows.
func ToDomainChartAccounts(payloads []dto.ChartAccountPayload) []domain.ChartAccount {
	accounts := make([]domain.ChartAccount, len(payloads))
	for i, payload := range payloads {
		accounts[i] = domain.ChartAccount{
			Code:         payload.Code,
			Name:         payload.Name,
			AccountType:  domain.AccountType(payload.AccountType),
			ParentCode:   payload.ParentCode,
			CurrencyMode: domain.CurrencyMode(payload.CurrencyMode),
			TaxCode:      toDomainTaxCode(payload.TaxCode),
			IsSummary:    payload.IsSummary,
		}
	}
	return accounts
}

func toDomainExchangeRate(payload *dto.ExchangeRatePayload) *domain.CurrencyRate {
	if payload == nil {
		return nil
	}
	return &domain.CurrencyRate{
		Base:       ToDomainCurrency(payload.Base),
		Quote:      ToDomainCurrency(payload.Quote),
		Rate:       payload.Rate,
		Source:     payload.Source,
		ObservedAt: payload.ObservedAt,
	}
}

// ToDomainEntry converts a post request into a Draft journal entry.
func ToDomainEntry(req dto.PostEntryRequest) domain.JournalEntry {
	lines := make([]domain.JournalLine, len(req.Lines))
	for i, payload := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:                payload.LineID,
			AccountID:             payload.AccountID,
			Side:                  domain.PostingSide(payload.Side),
			AmountMinor:           payload.AmountMinor,
			Currency:              ToDomainCurrency(payload.Currency),
			FunctionalAmountMinor: payload.FunctionalAmountMinor,
			FunctionalCurrency:    ToDomainCurrency(payload.FunctionalCurrency),
			ExchangeRate:          toDomainExchangeRate(payload.ExchangeRate),
			TaxCode:               toDomainTaxCode(payload.TaxCode),
			Memo:                  payload.Memo,
		}
	}
	return domain.JournalEntry{
		EntryID:              req.EntryID,
		JournalID:            req.JournalID,
		Status:               domain.Draft,
		ReconciliationStatus: domain.NewUnreconciled(),
		Lines:                lines,
		Origin:               domain.EntryOrigin(req.Origin),
		Memo:                 req.Memo,
	}
}

// ToDomainPostingMode defaults to Commit when the request omits the mode.
func ToDomainPostingMode(mode string) domain.PostingMode {
	if mode == string(domain.DryRun) {
		return domain.DryRun
	}
	return domain.Commit
}

// ToDomainPeriodRef converts a period payload.
func ToDomainPeriodRef(payload dto.PeriodRefPayload) domain.PeriodRef {
	return domain.PeriodRef{FiscalYear: payload.FiscalYear, Period: payload.Period}
}

// ToDomainCurrencies converts a list of currency payloads.
func ToDomainCurrencies(payloads []dto.CurrencyPayload) []domain.Currency {
	currencies := make([]domain.Currency, len(payloads))
	for i, payload := range payloads {
		currencies[i] = ToDomainCurrency(payload)
	}
	return currencies
}

// ToDomainProposal converts an add-candidate request.
func ToDomainProposal(req dto.AddCandidateRequest) domain.MatchProposal {
	return domain.MatchProposal{
		TransactionID:          req.TransactionID,
		JournalEntryID:         req.JournalEntryID,
		AmountDeltaMinor:       req.AmountDeltaMinor,
		DateDeltaDays:          req.DateDeltaDays,
		TransactionDescription: req.TransactionDescription,
		JournalDescription:     req.JournalDescription,
		GroupID:                req.GroupID,
	}
}
