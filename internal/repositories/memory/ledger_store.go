package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
)

type journalKey struct {
	companyID string
	journalID string
}

type periodKey struct {
	companyID  string
	journalID  string
	fiscalYear int32
	period     uint8
}

// LedgerStore is the reference in-memory implementation of the ledger
// repository. All state lives in maps guarded by one RWMutex; audit events
// get globally monotonic "audit-N" ids and are kept per company in append
// order.
type LedgerStore struct {
	mu sync.RWMutex

	companies     map[string]domain.Company
	accounts      map[string]domain.Account
	accountCodes  map[string]map[string]string // companyID -> code -> accountID
	journals      map[journalKey]domain.Journal
	periodStates  map[periodKey]domain.PeriodState
	entries       map[string]domain.JournalEntry
	entryCompany  map[string]string
	auditEvents   map[string][]domain.AuditEvent // companyID -> events in sequence order
	auditSequence int
}

// NewLedgerStore creates an empty in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		companies:    make(map[string]domain.Company),
		accounts:     make(map[string]domain.Account),
		accountCodes: make(map[string]map[string]string),
		journals:     make(map[journalKey]domain.Journal),
		periodStates: make(map[periodKey]domain.PeriodState),
		entries:      make(map[string]domain.JournalEntry),
		entryCompany: make(map[string]string),
		auditEvents:  make(map[string][]domain.AuditEvent),
	}
}

// Ensure LedgerStore implements the repository facade
var _ portsrepo.LedgerRepositoryFacade = (*LedgerStore)(nil)

func (s *LedgerStore) SaveCompany(_ context.Context, company domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[company.CompanyID] = company
	return nil
}

func (s *LedgerStore) FindCompanyByID(_ context.Context, companyID string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	company, ok := s.companies[companyID]
	if !ok {
		return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}
	return &company, nil
}

func (s *LedgerStore) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveAccountLocked(account)
	return nil
}

func (s *LedgerStore) SaveAccounts(_ context.Context, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range accounts {
		s.saveAccountLocked(account)
	}
	return nil
}

func (s *LedgerStore) saveAccountLocked(account domain.Account) {
	s.accounts[account.AccountID] = account
	codes, ok := s.accountCodes[account.CompanyID]
	if !ok {
		codes = make(map[string]string)
		s.accountCodes[account.CompanyID] = codes
	}
	codes[account.Code] = account.AccountID
}

func (s *LedgerStore) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (s *LedgerStore) FindAccountIDByCode(_ context.Context, companyID string, code string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if accountID, ok := s.accountCodes[companyID][code]; ok {
		return accountID, nil
	}
	return "", fmt.Errorf("%w: account code %s", apperrors.ErrNotFound, code)
}

func (s *LedgerStore) SaveJournal(_ context.Context, journal domain.Journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := journal
	stored.LockHistory = append([]domain.PeriodLockInfo(nil), journal.LockHistory...)
	if len(stored.LockHistory) > 0 {
		stored.LatestLock = &stored.LockHistory[len(stored.LockHistory)-1]
	}
	s.journals[journalKey{companyID: journal.CompanyID, journalID: journal.JournalID}] = stored
	return nil
}

func (s *LedgerStore) FindJournal(_ context.Context, companyID string, journalID string) (*domain.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	journal, ok := s.journals[journalKey{companyID: companyID, journalID: journalID}]
	if !ok {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	copied := journal
	copied.LockHistory = append([]domain.PeriodLockInfo(nil), journal.LockHistory...)
	if len(copied.LockHistory) > 0 {
		copied.LatestLock = &copied.LockHistory[len(copied.LockHistory)-1]
	} else {
		copied.LatestLock = nil
	}
	return &copied, nil
}

func (s *LedgerStore) SavePeriodState(_ context.Context, companyID string, journalID string, period domain.PeriodRef, state domain.PeriodState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periodStates[periodKeyFor(companyID, journalID, period)] = state
	return nil
}

func (s *LedgerStore) EnsurePeriodState(_ context.Context, companyID string, journalID string, period domain.PeriodRef) (domain.PeriodState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKeyFor(companyID, journalID, period)
	if state, ok := s.periodStates[key]; ok {
		return state, nil
	}
	s.periodStates[key] = domain.Open
	return domain.Open, nil
}

func periodKeyFor(companyID string, journalID string, period domain.PeriodRef) periodKey {
	return periodKey{
		companyID:  companyID,
		journalID:  journalID,
		fiscalYear: period.FiscalYear,
		period:     period.Period,
	}
}

func (s *LedgerStore) SaveEntry(_ context.Context, entry domain.JournalEntry, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := entry
	stored.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	s.entries[entry.EntryID] = stored
	s.entryCompany[entry.EntryID] = companyID
	return nil
}

func (s *LedgerStore) FindEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	copied := entry
	copied.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	return &copied, nil
}

func (s *LedgerStore) FindEntryCompany(_ context.Context, entryID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entries[entryID]; !ok {
		return "", fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	companyID, ok := s.entryCompany[entryID]
	if !ok {
		return "", fmt.Errorf("%w: entry %s has no company mapping", apperrors.ErrInternal, entryID)
	}
	return companyID, nil
}

func (s *LedgerStore) CountEntries(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *LedgerStore) AppendAuditEvent(_ context.Context, companyID string, entityID string, actor string, description string) (domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditSequence++
	event := domain.AuditEvent{
		EventID:     fmt.Sprintf("audit-%d", s.auditSequence),
		CompanyID:   companyID,
		EntityID:    entityID,
		Actor:       actor,
		OccurredAt:  time.Now().UTC(),
		Description: description,
	}
	s.auditEvents[companyID] = append(s.auditEvents[companyID], event)
	return event, nil
}

// ListAuditEvents applies the filter in order: entity narrowing, cursor
// (drop everything up to and including the cursor id), then the limit.
func (s *LedgerStore) ListAuditEvents(_ context.Context, companyID string, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]domain.AuditEvent, 0, len(s.auditEvents[companyID]))
	for _, event := range s.auditEvents[companyID] {
		if filter.EntityID != nil && event.EntityID != *filter.EntityID {
			continue
		}
		events = append(events, event)
	}

	if filter.Cursor != nil {
		cut := 0
		for i, event := range events {
			if event.EventID == *filter.Cursor {
				cut = i + 1
				break
			}
		}
		events = events[cut:]
	}

	if filter.Limit != nil && len(events) > *filter.Limit {
		events = events[:*filter.Limit]
	}
	return events, nil
}
