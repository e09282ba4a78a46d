package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
)

// PgxLedgerRepository persists the ledger aggregates in PostgreSQL. Compound
// values (currencies, fiscal calendars, journal lines, lock history) are
// stored as JSONB; everything the ledger filters on is a plain column.
type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPgxLedgerRepository creates a new repository over the given pool.
func NewPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{pool: pool}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func (r *PgxLedgerRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	baseCurrency, err := json.Marshal(company.BaseCurrency)
	if err != nil {
		return fmt.Errorf("failed to marshal base currency: %w", err)
	}
	fiscalCalendar, err := json.Marshal(company.FiscalCalendar)
	if err != nil {
		return fmt.Errorf("failed to marshal fiscal calendar: %w", err)
	}

	query := `
		INSERT INTO companies (company_id, name, base_currency, fiscal_calendar, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE SET
			name = EXCLUDED.name,
			base_currency = EXCLUDED.base_currency,
			fiscal_calendar = EXCLUDED.fiscal_calendar,
			metadata = EXCLUDED.metadata
	`
	_, err = r.pool.Exec(ctx, query, company.CompanyID, company.Name, baseCurrency, fiscalCalendar, company.Metadata)
	if err != nil {
		return fmt.Errorf("failed to save company %s: %w", company.CompanyID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `
		SELECT company_id, name, base_currency, fiscal_calendar, metadata
		FROM companies
		WHERE company_id = $1
	`
	var company domain.Company
	var baseCurrency, fiscalCalendar []byte
	err := r.pool.QueryRow(ctx, query, companyID).Scan(&company.CompanyID, &company.Name, &baseCurrency, &fiscalCalendar, &company.Metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
		}
		return nil, fmt.Errorf("failed to find company %s: %w", companyID, err)
	}
	if err := json.Unmarshal(baseCurrency, &company.BaseCurrency); err != nil {
		return nil, fmt.Errorf("failed to unmarshal base currency: %w", err)
	}
	if err := json.Unmarshal(fiscalCalendar, &company.FiscalCalendar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fiscal calendar: %w", err)
	}
	return &company, nil
}

const saveAccountQuery = `
	INSERT INTO accounts (account_id, company_id, code, name, account_type, parent_account_id, currency_mode, tax_code, is_summary, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (account_id) DO UPDATE SET
		code = EXCLUDED.code,
		name = EXCLUDED.name,
		account_type = EXCLUDED.account_type,
		parent_account_id = EXCLUDED.parent_account_id,
		currency_mode = EXCLUDED.currency_mode,
		tax_code = EXCLUDED.tax_code,
		is_summary = EXCLUDED.is_summary,
		is_active = EXCLUDED.is_active
`

func accountArgs(account domain.Account) ([]any, error) {
	var taxCode []byte
	if account.TaxCode != nil {
		var err error
		taxCode, err = json.Marshal(account.TaxCode)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tax code: %w", err)
		}
	}
	return []any{
		account.AccountID,
		account.CompanyID,
		account.Code,
		account.Name,
		account.AccountType,
		account.ParentAccountID,
		account.CurrencyMode,
		taxCode,
		account.IsSummary,
		account.IsActive,
	}, nil
}

func (r *PgxLedgerRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args, err := accountArgs(account)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, saveAccountQuery, args...); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// SaveAccounts stores the batch inside one transaction so a failing row never
// leaves a partial chart behind.
func (r *PgxLedgerRepository) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, account := range accounts {
		args, err := accountArgs(account)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, saveAccountQuery, args...); err != nil {
			return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account batch: %w", err)
	}
	return nil
}

func (r *PgxLedgerRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT account_id, company_id, code, name, account_type, parent_account_id, currency_mode, tax_code, is_summary, is_active
		FROM accounts
		WHERE account_id = $1
	`
	var account domain.Account
	var taxCode []byte
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&account.AccountID,
		&account.CompanyID,
		&account.Code,
		&account.Name,
		&account.AccountType,
		&account.ParentAccountID,
		&account.CurrencyMode,
		&taxCode,
		&account.IsSummary,
		&account.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if taxCode != nil {
		if err := json.Unmarshal(taxCode, &account.TaxCode); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tax code: %w", err)
		}
	}
	return &account, nil
}

func (r *PgxLedgerRepository) FindAccountIDByCode(ctx context.Context, companyID string, code string) (string, error) {
	var accountID string
	err := r.pool.QueryRow(ctx, `SELECT account_id FROM accounts WHERE company_id = $1 AND code = $2`, companyID, code).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: account code %s", apperrors.ErrNotFound, code)
		}
		return "", fmt.Errorf("failed to resolve account code %s: %w", code, err)
	}
	return accountID, nil
}

func (r *PgxLedgerRepository) SaveJournal(ctx context.Context, journal domain.Journal) error {
	lockHistory, err := json.Marshal(journal.LockHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal lock history: %w", err)
	}
	query := `
		INSERT INTO journals (company_id, journal_id, ledger_type, period_state, lock_history)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, journal_id) DO UPDATE SET
			ledger_type = EXCLUDED.ledger_type,
			period_state = EXCLUDED.period_state,
			lock_history = EXCLUDED.lock_history
	`
	if _, err := r.pool.Exec(ctx, query, journal.CompanyID, journal.JournalID, journal.LedgerType, journal.PeriodState, lockHistory); err != nil {
		return fmt.Errorf("failed to save journal %s: %w", journal.JournalID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) FindJournal(ctx context.Context, companyID string, journalID string) (*domain.Journal, error) {
	query := `
		SELECT company_id, journal_id, ledger_type, period_state, lock_history
		FROM journals
		WHERE company_id = $1 AND journal_id = $2
	`
	var journal domain.Journal
	var lockHistory []byte
	err := r.pool.QueryRow(ctx, query, companyID, journalID).Scan(&journal.CompanyID, &journal.JournalID, &journal.LedgerType, &journal.PeriodState, &lockHistory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
		}
		return nil, fmt.Errorf("failed to find journal %s: %w", journalID, err)
	}
	if err := json.Unmarshal(lockHistory, &journal.LockHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock history: %w", err)
	}
	if len(journal.LockHistory) > 0 {
		journal.LatestLock = &journal.LockHistory[len(journal.LockHistory)-1]
	}
	return &journal, nil
}

func (r *PgxLedgerRepository) SavePeriodState(ctx context.Context, companyID string, journalID string, period domain.PeriodRef, state domain.PeriodState) error {
	query := `
		INSERT INTO period_states (company_id, journal_id, fiscal_year, period, state)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, journal_id, fiscal_year, period) DO UPDATE SET state = EXCLUDED.state
	`
	if _, err := r.pool.Exec(ctx, query, companyID, journalID, period.FiscalYear, period.Period, state); err != nil {
		return fmt.Errorf("failed to save period state: %w", err)
	}
	return nil
}

func (r *PgxLedgerRepository) EnsurePeriodState(ctx context.Context, companyID string, journalID string, period domain.PeriodRef) (domain.PeriodState, error) {
	// Insert Open on first reference; an existing row wins.
	query := `
		INSERT INTO period_states (company_id, journal_id, fiscal_year, period, state)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, journal_id, fiscal_year, period) DO UPDATE SET state = period_states.state
		RETURNING state
	`
	var state domain.PeriodState
	if err := r.pool.QueryRow(ctx, query, companyID, journalID, period.FiscalYear, period.Period, domain.Open).Scan(&state); err != nil {
		return "", fmt.Errorf("failed to ensure period state: %w", err)
	}
	return state, nil
}

func (r *PgxLedgerRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, companyID string) error {
	lines, err := json.Marshal(entry.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal entry lines: %w", err)
	}
	reconciliation, err := json.Marshal(entry.ReconciliationStatus)
	if err != nil {
		return fmt.Errorf("failed to marshal reconciliation status: %w", err)
	}

	query := `
		INSERT INTO journal_entries (entry_id, company_id, journal_id, status, reconciliation, lines, origin, memo, reverses_entry_id, reversed_by_entry_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (entry_id) DO UPDATE SET
			status = EXCLUDED.status,
			reconciliation = EXCLUDED.reconciliation,
			lines = EXCLUDED.lines,
			memo = EXCLUDED.memo,
			reverses_entry_id = EXCLUDED.reverses_entry_id,
			reversed_by_entry_id = EXCLUDED.reversed_by_entry_id
	`
	_, err = r.pool.Exec(ctx, query,
		entry.EntryID,
		companyID,
		entry.JournalID,
		entry.Status,
		reconciliation,
		lines,
		entry.Origin,
		entry.Memo,
		entry.ReversesEntryID,
		entry.ReversedByEntryID,
	)
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w", entry.EntryID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT entry_id, journal_id, status, reconciliation, lines, origin, memo, reverses_entry_id, reversed_by_entry_id
		FROM journal_entries
		WHERE entry_id = $1
	`
	var entry domain.JournalEntry
	var reconciliation, lines []byte
	err := r.pool.QueryRow(ctx, query, entryID).Scan(
		&entry.EntryID,
		&entry.JournalID,
		&entry.Status,
		&reconciliation,
		&lines,
		&entry.Origin,
		&entry.Memo,
		&entry.ReversesEntryID,
		&entry.ReversedByEntryID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if err := json.Unmarshal(reconciliation, &entry.ReconciliationStatus); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reconciliation status: %w", err)
	}
	if err := json.Unmarshal(lines, &entry.Lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry lines: %w", err)
	}
	return &entry, nil
}

func (r *PgxLedgerRepository) FindEntryCompany(ctx context.Context, entryID string) (string, error) {
	var companyID string
	err := r.pool.QueryRow(ctx, `SELECT company_id FROM journal_entries WHERE entry_id = $1`, entryID).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
		}
		return "", fmt.Errorf("failed to find entry company: %w", err)
	}
	return companyID, nil
}

func (r *PgxLedgerRepository) CountEntries(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// AppendAuditEvent derives the event id from the sequence value inside one
// statement so ids and ordering can never diverge.
func (r *PgxLedgerRepository) AppendAuditEvent(ctx context.Context, companyID string, entityID string, actor string, description string) (domain.AuditEvent, error) {
	query := `
		WITH next AS (
			SELECT nextval(pg_get_serial_sequence('audit_events', 'seq')) AS seq
		)
		INSERT INTO audit_events (seq, event_id, company_id, entity_id, actor, occurred_at, description)
		SELECT next.seq, 'audit-' || next.seq, $1, $2, $3, NOW(), $4 FROM next
		RETURNING event_id, occurred_at
	`
	event := domain.AuditEvent{
		CompanyID:   companyID,
		EntityID:    entityID,
		Actor:       actor,
		Description: description,
	}
	if err := r.pool.QueryRow(ctx, query, companyID, entityID, actor, description).Scan(&event.EventID, &event.OccurredAt); err != nil {
		return domain.AuditEvent{}, fmt.Errorf("failed to append audit event: %w", err)
	}
	return event, nil
}

func (r *PgxLedgerRepository) ListAuditEvents(ctx context.Context, companyID string, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error) {
	// The cursor only advances when it names an event inside the filtered
	// list; a cursor excluded by the entity filter or owned by another
	// company falls back to the start, returning the full filtered list.
	query := `
		SELECT event_id, company_id, entity_id, actor, occurred_at, description
		FROM audit_events
		WHERE company_id = $1
		  AND ($2::TEXT IS NULL OR entity_id = $2)
		  AND seq > COALESCE((
			SELECT seq FROM audit_events
			WHERE event_id = $3
			  AND company_id = $1
			  AND ($2::TEXT IS NULL OR entity_id = $2)
		  ), 0)
		ORDER BY seq
		LIMIT $4
	`
	var limit *int
	if filter.Limit != nil {
		limit = filter.Limit
	}
	rows, err := r.pool.Query(ctx, query, companyID, filter.EntityID, filter.Cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.Scan(&event.EventID, &event.CompanyID, &event.EntityID, &event.Actor, &event.OccurredAt, &event.Description); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}
