package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
	"github.com/finacct/ledger_backend/internal/dto"
	"github.com/finacct/ledger_backend/internal/middleware"
	"github.com/finacct/ledger_backend/internal/utils/mapping"
)

// GeneralLedgerJournalID is the journal seeded for every new company.
const GeneralLedgerJournalID = "jnl-gl"

// ledgerService implements the transactional ledger: company bootstrap,
// chart-of-accounts maintenance, posting, period locking, reversals, and the
// audit trail.
//
// All mutations are serialized behind one service-level mutex, giving callers
// a total order of ledger operations. That trades throughput for trivially
// correct multi-step commits (entry + audit event, reversal + two audit
// events) and is acceptable for a per-tenant backend.
type ledgerService struct {
	repo portsrepo.LedgerRepositoryFacade
	mu   sync.Mutex
}

// NewLedgerService creates the ledger service over the given store.
func NewLedgerService(repo portsrepo.LedgerRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{repo: repo}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateCompany bootstraps a company together with its open general ledger
// journal.
func (s *ledgerService) CreateCompany(ctx context.Context, tenant domain.TenantContext, req dto.CreateCompanyRequest) (*domain.Company, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	company := domain.Company{
		CompanyID:      uuid.NewString(),
		Name:           req.Name,
		BaseCurrency:   mapping.ToDomainCurrency(req.BaseCurrency),
		FiscalCalendar: mapping.ToDomainFiscalCalendar(req.FiscalCalendar),
	}
	if err := s.repo.SaveCompany(ctx, company); err != nil {
		logger.Error("Failed to save company", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save company: %w", err)
	}

	generalLedger := domain.Journal{
		JournalID:   GeneralLedgerJournalID,
		CompanyID:   company.CompanyID,
		LedgerType:  domain.General,
		PeriodState: domain.Open,
	}
	if err := s.repo.SaveJournal(ctx, generalLedger); err != nil {
		logger.Error("Failed to seed general ledger journal", slog.String("error", err.Error()), slog.String("company_id", company.CompanyID))
		return nil, fmt.Errorf("failed to seed general ledger journal: %w", err)
	}

	if _, err := s.repo.AppendAuditEvent(ctx, company.CompanyID, company.CompanyID, tenant.UserID, fmt.Sprintf("Created company %s", company.Name)); err != nil {
		logger.Error("Failed to append audit event for company creation", slog.String("error", err.Error()), slog.String("company_id", company.CompanyID))
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	logger.Info("Company created", slog.String("company_id", company.CompanyID), slog.String("name", company.Name))
	return &company, nil
}

// UpsertAccount creates one chart-of-accounts node, enforcing code uniqueness
// per company, posting eligibility, and the summary-parent rule. No deletion
// exists; accounts are only ever added or flagged inactive.
func (s *ledgerService) UpsertAccount(ctx context.Context, tenant domain.TenantContext, account domain.Account) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.FindCompanyByID(ctx, account.CompanyID); err != nil {
		logger.Warn("Company not found for account upsert", slog.String("company_id", account.CompanyID))
		return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, account.CompanyID)
	}

	if existingID, err := s.repo.FindAccountIDByCode(ctx, account.CompanyID, account.Code); err == nil {
		if existingID != account.AccountID {
			return nil, fmt.Errorf("%w: duplicate account code", apperrors.ErrValidation)
		}
		return nil, fmt.Errorf("%w: account code already exists", apperrors.ErrValidation)
	}
	if existing, err := s.repo.FindAccountByID(ctx, account.AccountID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: account identifier already exists", apperrors.ErrValidation)
	}

	if !account.IsSummary && !account.AllowsPosting() {
		return nil, fmt.Errorf("%w: account must be active and non-summary", apperrors.ErrValidation)
	}

	if account.ParentAccountID != nil {
		parent, err := s.repo.FindAccountByID(ctx, *account.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: parent account %s", apperrors.ErrNotFound, *account.ParentAccountID)
		}
		if !parent.IsSummary {
			return nil, fmt.Errorf("%w: parent account must be summary", apperrors.ErrValidation)
		}
	}

	if err := s.repo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	if _, err := s.repo.AppendAuditEvent(ctx, account.CompanyID, account.AccountID, tenant.UserID, fmt.Sprintf("Upserted account %s", account.Code)); err != nil {
		logger.Error("Failed to append audit event for account upsert", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	logger.Info("Account upserted", slog.String("account_id", account.AccountID), slog.String("company_id", account.CompanyID), slog.String("code", account.Code))
	return &account, nil
}

// SeedChart bulk-creates a chart of accounts from template rows. Parents are
// referenced by code and may appear anywhere in the batch; the whole batch is
// staged and committed all-or-nothing.
func (s *ledgerService) SeedChart(ctx context.Context, tenant domain.TenantContext, companyID string, accounts []domain.ChartAccount) ([]domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.FindCompanyByID(ctx, companyID); err != nil {
		return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: chart must contain at least one account", apperrors.ErrValidation)
	}

	idByCode := make(map[string]string, len(accounts))
	for _, row := range accounts {
		if _, dup := idByCode[row.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate account code", apperrors.ErrValidation)
		}
		if _, err := s.repo.FindAccountIDByCode(ctx, companyID, row.Code); err == nil {
			return nil, fmt.Errorf("%w: account code already exists", apperrors.ErrValidation)
		}
		idByCode[row.Code] = uuid.NewString()
	}

	staged := make([]domain.Account, 0, len(accounts))
	for _, row := range accounts {
		account := domain.Account{
			AccountID:    idByCode[row.Code],
			CompanyID:    companyID,
			Code:         row.Code,
			Name:         row.Name,
			AccountType:  row.AccountType,
			CurrencyMode: row.CurrencyMode,
			TaxCode:      row.TaxCode,
			IsSummary:    row.IsSummary,
			IsActive:     true,
		}
		if row.ParentCode != nil {
			parentID, ok := idByCode[*row.ParentCode]
			if !ok {
				resolved, err := s.repo.FindAccountIDByCode(ctx, companyID, *row.ParentCode)
				if err != nil {
					return nil, fmt.Errorf("%w: parent account code %s", apperrors.ErrNotFound, *row.ParentCode)
				}
				parentID = resolved
			}
			account.ParentAccountID = &parentID
		}
		staged = append(staged, account)
	}

	for _, account := range staged {
		if account.ParentAccountID == nil {
			continue
		}
		parent, ok := findStagedByID(staged, *account.ParentAccountID)
		if !ok {
			stored, err := s.repo.FindAccountByID(ctx, *account.ParentAccountID)
			if err != nil {
				return nil, fmt.Errorf("%w: parent account %s", apperrors.ErrNotFound, *account.ParentAccountID)
			}
			parent = *stored
		}
		if !parent.IsSummary {
			return nil, fmt.Errorf("%w: parent account must be summary", apperrors.ErrValidation)
		}
	}

	if err := s.repo.SaveAccounts(ctx, staged); err != nil {
		logger.Error("Failed to save seeded chart", slog.String("error", err.Error()), slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to save chart accounts: %w", err)
	}

	if _, err := s.repo.AppendAuditEvent(ctx, companyID, companyID, tenant.UserID, fmt.Sprintf("Seeded chart with %d accounts", len(staged))); err != nil {
		logger.Error("Failed to append audit event for chart seed", slog.String("error", err.Error()), slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	logger.Info("Chart of accounts seeded", slog.String("company_id", companyID), slog.Int("account_count", len(staged)))
	return staged, nil
}

func findStagedByID(staged []domain.Account, accountID string) (domain.Account, bool) {
	for _, account := range staged {
		if account.AccountID == accountID {
			return account, true
		}
	}
	return domain.Account{}, false
}

// PostEntry runs the posting gates in order: non-empty lines, account
// resolution within one company, posting eligibility, journal lookup, period
// gate, then balance and provenance validation. DryRun returns a Proposed
// copy without touching state; Commit stores the entry as Posted and records
// one audit event. Incoming reconciliation state and reversal links are
// scrubbed before commit.
func (s *ledgerService) PostEntry(ctx context.Context, tenant domain.TenantContext, entry domain.JournalEntry, mode domain.PostingMode) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entry.Lines) == 0 {
		return nil, fmt.Errorf("%w: journal entry must contain at least one line", apperrors.ErrValidation)
	}

	companyID := ""
	for _, line := range entry.Lines {
		account, err := s.repo.FindAccountByID(ctx, line.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, line.AccountID)
		}
		if companyID == "" {
			companyID = account.CompanyID
		} else if account.CompanyID != companyID {
			return nil, fmt.Errorf("%w: all lines must belong to the same company", apperrors.ErrValidation)
		}
		if !account.AllowsPosting() {
			return nil, fmt.Errorf("%w: cannot post to summary or inactive account", apperrors.ErrValidation)
		}
	}

	journal, err := s.repo.FindJournal(ctx, companyID, entry.JournalID)
	if err != nil {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, entry.JournalID)
	}
	switch journal.PeriodState {
	case domain.SoftClosed:
		logger.Warn("Posting rejected by soft-closed period", slog.String("journal_id", journal.JournalID), slog.String("company_id", companyID))
		return nil, fmt.Errorf("%w: soft-close prevents posting without override", apperrors.ErrRejected)
	case domain.Closed:
		logger.Warn("Posting rejected by closed period", slog.String("journal_id", journal.JournalID), slog.String("company_id", companyID))
		return nil, fmt.Errorf("%w: period closed", apperrors.ErrRejected)
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	// Replayed or forged entries must not smuggle in reconciliation state or
	// reversal links.
	entry.ReconciliationStatus = domain.NewUnreconciled()
	entry.ReversesEntryID = nil
	entry.ReversedByEntryID = nil

	if mode == domain.DryRun {
		preview := entry
		preview.Status = domain.Proposed
		preview.Lines = append([]domain.JournalLine(nil), entry.Lines...)
		logger.Info("Entry validated in dry run", slog.String("entry_id", entry.EntryID), slog.String("journal_id", entry.JournalID))
		return &preview, nil
	}

	entry.Status = domain.Posted
	if err := s.repo.SaveEntry(ctx, entry, companyID); err != nil {
		logger.Error("Failed to save entry", slog.String("error", err.Error()), slog.String("entry_id", entry.EntryID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	if _, err := s.repo.AppendAuditEvent(ctx, companyID, entry.EntryID, tenant.UserID, fmt.Sprintf("Posted entry %s", entry.JournalID)); err != nil {
		logger.Error("Failed to append audit event for posting", slog.String("error", err.Error()), slog.String("entry_id", entry.EntryID))
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	logger.Info("Entry posted", slog.String("entry_id", entry.EntryID), slog.String("journal_id", entry.JournalID), slog.String("company_id", companyID))
	return &entry, nil
}

// ReverseEntry produces a balancing entry with every line's side flipped and
// all amounts preserved, links the pair, and records two audit events. An
// entry can be reversed exactly once.
func (s *ledgerService) ReverseEntry(ctx context.Context, tenant domain.TenantContext, entryID string, reason string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	original, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry is not posted", apperrors.ErrRejected)
	}
	if original.ReversedByEntryID != nil {
		return nil, fmt.Errorf("%w: entry already reversed", apperrors.ErrRejected)
	}

	companyID, err := s.repo.FindEntryCompany(ctx, entryID)
	if err != nil {
		logger.Error("Entry has no company mapping", slog.String("entry_id", entryID))
		return nil, err
	}

	count, err := s.repo.CountEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reversal sequence: %w", err)
	}
	sequence := count + 1

	memo := fmt.Sprintf("Reversal of %s: %s", entryID, reason)
	reversal := domain.JournalEntry{
		EntryID:              fmt.Sprintf("%s-rev-%d", entryID, sequence),
		JournalID:            original.JournalID,
		Status:               domain.Posted,
		ReconciliationStatus: domain.NewUnreconciled(),
		Lines:                make([]domain.JournalLine, 0, len(original.Lines)),
		Origin:               domain.Adjustment,
		Memo:                 &memo,
		ReversesEntryID:      &original.EntryID,
	}
	for _, line := range original.Lines {
		flipped := line
		flipped.Side = line.Side.Flip()
		reversal.Lines = append(reversal.Lines, flipped)
	}

	updated := *original
	updated.ReversedByEntryID = &reversal.EntryID

	if err := s.repo.SaveEntry(ctx, reversal, companyID); err != nil {
		logger.Error("Failed to save reversal entry", slog.String("error", err.Error()), slog.String("entry_id", reversal.EntryID))
		return nil, fmt.Errorf("failed to save reversal entry: %w", err)
	}
	if err := s.repo.SaveEntry(ctx, updated, companyID); err != nil {
		logger.Error("Failed to link original to reversal", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to update original entry: %w", err)
	}

	if _, err := s.repo.AppendAuditEvent(ctx, companyID, original.EntryID, tenant.UserID, fmt.Sprintf("Reversal requested: %s", reason)); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}
	if _, err := s.repo.AppendAuditEvent(ctx, companyID, reversal.EntryID, tenant.UserID, memo); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID), slog.String("company_id", companyID))
	return &reversal, nil
}

// LockPeriod applies the requested period action unconditionally: any action
// is accepted from any current state, the journal being the system of record
// rather than a turnstile. Every call appends to the lock history and records
// one audit event.
func (s *ledgerService) LockPeriod(ctx context.Context, tenant domain.TenantContext, journalID string, period domain.PeriodRef, action domain.PeriodAction, approvalReference *string) (*domain.Journal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	journal, err := s.repo.FindJournal(ctx, tenant.TenantID, journalID)
	if err != nil {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}

	info := domain.PeriodLockInfo{
		Period:            period,
		Action:            action,
		ApprovalReference: approvalReference,
		LockedAt:          time.Now().UTC(),
		LockedBy:          tenant.UserID,
	}
	journal.RecordLock(info)

	if err := s.repo.SaveJournal(ctx, *journal); err != nil {
		logger.Error("Failed to save journal lock", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}
	if err := s.repo.SavePeriodState(ctx, tenant.TenantID, journalID, period, journal.PeriodState); err != nil {
		logger.Error("Failed to save period state", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to save period state: %w", err)
	}

	description := fmt.Sprintf("Period %d/%d %s -> %s", period.FiscalYear, period.Period, action, journal.PeriodState)
	if approvalReference != nil {
		description = fmt.Sprintf("%s (approval %s)", description, *approvalReference)
	}
	if _, err := s.repo.AppendAuditEvent(ctx, tenant.TenantID, journalID, tenant.UserID, description); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	logger.Info("Period lock applied", slog.String("journal_id", journalID), slog.String("action", string(action)), slog.String("state", string(journal.PeriodState)))
	return journal, nil
}

// EnsurePeriod initializes the (journal, period) tuple to Open on first
// reference and otherwise returns whatever state a prior lock recorded.
// Idempotent.
func (s *ledgerService) EnsurePeriod(ctx context.Context, tenant domain.TenantContext, journalID string, period domain.PeriodRef) (*domain.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal, err := s.repo.FindJournal(ctx, tenant.TenantID, journalID)
	if err != nil {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	state, err := s.repo.EnsurePeriodState(ctx, tenant.TenantID, journalID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure period state: %w", err)
	}

	snapshot := *journal
	snapshot.PeriodState = state
	return &snapshot, nil
}

// RevalueCurrency is the revaluation contract point. No revaluation entries
// are generated yet; the operation verifies the journal and returns an empty
// batch.
//
// TODO: generate unrealized gain/loss entries once period-end rate snapshots
// are available.
func (s *ledgerService) RevalueCurrency(ctx context.Context, tenant domain.TenantContext, journalID string, period domain.PeriodRef, currencies []domain.Currency) ([]domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.FindJournal(ctx, tenant.TenantID, journalID); err != nil {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}

	logger.Info("Currency revaluation requested", slog.String("journal_id", journalID), slog.Int("currency_count", len(currencies)), slog.Int("fiscal_year", int(period.FiscalYear)))
	return []domain.JournalEntry{}, nil
}

// ListAuditTrail returns the tenant's audit events, company-scoped, newest
// last, narrowed by the optional entity/cursor/limit filter. Read-only, so it
// bypasses the mutation lock.
func (s *ledgerService) ListAuditTrail(ctx context.Context, tenant domain.TenantContext, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	events, err := s.repo.ListAuditEvents(ctx, tenant.TenantID, filter)
	if err != nil {
		logger.Error("Failed to list audit events", slog.String("error", err.Error()), slog.String("company_id", tenant.TenantID))
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}
