package repositories

import (
	"context"

	"github.com/finacct/ledger_backend/internal/core/domain"
)

// LedgerRepositoryFacade persists every ledger-side aggregate behind a single
// store: companies, accounts, journals, period states, entries, and the audit
// trail. The reconciliation store is deliberately separate; the two sides
// reference each other by plain string ids only.
//
// Implementations must be safe for concurrent use. They do not enforce
// business rules; the ledger service validates before writing and serializes
// mutations so multi-call commits observe a total order.
type LedgerRepositoryFacade interface {
	// SaveCompany stores a new company. Companies are immutable afterwards.
	SaveCompany(ctx context.Context, company domain.Company) error
	// FindCompanyByID returns apperrors.ErrNotFound for unknown ids.
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)

	// SaveAccount inserts or overwrites one account by id and indexes its
	// code within the company.
	SaveAccount(ctx context.Context, account domain.Account) error
	// SaveAccounts stores a staged batch, all-or-nothing.
	SaveAccounts(ctx context.Context, accounts []domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	// FindAccountIDByCode resolves a company-scoped account code to its id.
	FindAccountIDByCode(ctx context.Context, companyID string, code string) (string, error)

	// SaveJournal inserts or overwrites a journal keyed by (company, journal).
	SaveJournal(ctx context.Context, journal domain.Journal) error
	FindJournal(ctx context.Context, companyID string, journalID string) (*domain.Journal, error)

	// SavePeriodState records the state of one exact (journal, period) tuple.
	SavePeriodState(ctx context.Context, companyID string, journalID string, period domain.PeriodRef, state domain.PeriodState) error
	// EnsurePeriodState returns the recorded state for the period tuple,
	// initializing it to Open on first reference.
	EnsurePeriodState(ctx context.Context, companyID string, journalID string, period domain.PeriodRef) (domain.PeriodState, error)

	// SaveEntry inserts or overwrites an entry and remembers its company.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, companyID string) error
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	// FindEntryCompany returns apperrors.ErrInternal when an entry exists
	// without a company mapping; that is a bug, not caller input.
	FindEntryCompany(ctx context.Context, entryID string) (string, error)
	// CountEntries reports how many entries the store holds, used to derive
	// reversal sequence numbers.
	CountEntries(ctx context.Context) (int, error)

	// AppendAuditEvent assigns the next monotonic event id and stores the
	// event. Existing events are never renumbered.
	AppendAuditEvent(ctx context.Context, companyID string, entityID string, actor string, description string) (domain.AuditEvent, error)
	// ListAuditEvents returns the company's events ordered by sequence,
	// narrowed by the filter. Tenant scoping by companyID is mandatory.
	ListAuditEvents(ctx context.Context, companyID string, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error)
}
