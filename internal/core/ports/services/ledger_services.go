package services

import (
	"context"

	"github.com/finacct/ledger_backend/internal/core/domain"
	"github.com/finacct/ledger_backend/internal/dto"
)

// LedgerSvcFacade is the transactional ledger contract: company bootstrap,
// chart-of-accounts maintenance, double-entry posting, period locking,
// reversals, and the audit trail. Every call carries an explicit
// TenantContext; the facade layer has already verified that the tenant may
// act on the target company.
type LedgerSvcFacade interface {
	CreateCompany(ctx context.Context, tenant domain.TenantContext, req dto.CreateCompanyRequest) (*domain.Company, error)
	UpsertAccount(ctx context.Context, tenant domain.TenantContext, account domain.Account) (*domain.Account, error)
	SeedChart(ctx context.Context, tenant domain.TenantContext, companyID string, accounts []domain.ChartAccount) ([]domain.Account, error)
	PostEntry(ctx context.Context, tenant domain.TenantContext, entry domain.JournalEntry, mode domain.PostingMode) (*domain.JournalEntry, error)
	ReverseEntry(ctx context.Context, tenant domain.TenantContext, entryID string, reason string) (*domain.JournalEntry, error)
	LockPeriod(ctx context.Context, tenant domain.TenantContext, journalID string, period domain.PeriodRef, action domain.PeriodAction, approvalReference *string) (*domain.Journal, error)
	EnsurePeriod(ctx context.Context, tenant domain.TenantContext, journalID string, period domain.PeriodRef) (*domain.Journal, error)
	RevalueCurrency(ctx context.Context, tenant domain.TenantContext, journalID string, period domain.PeriodRef, currencies []domain.Currency) ([]domain.JournalEntry, error)
	ListAuditTrail(ctx context.Context, tenant domain.TenantContext, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error)
}
