package domain

// FiscalCalendar describes how a company slices its fiscal year into periods.
type FiscalCalendar struct {
	PeriodsPerYear uint8 `json:"periodsPerYear"`
	OpeningMonth   uint8 `json:"openingMonth"`
}

// Company is the tenant-level aggregate root. Created once; immutable
// thereafter within this core.
type Company struct {
	CompanyID      string         `json:"companyID"` // Primary Key (e.g., "co-1")
	Name           string         `json:"name"`
	BaseCurrency   Currency       `json:"baseCurrency"` // Functional currency for all postings
	FiscalCalendar FiscalCalendar `json:"fiscalCalendar"`
	Metadata       *string        `json:"metadata,omitempty"`
}

// Role enumerates the caller roles carried on a TenantContext.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleAccountant     Role = "ACCOUNTANT"
	RoleReviewer       Role = "REVIEWER"
	RoleAuditor        Role = "AUDITOR"
	RoleServiceAccount Role = "SERVICE_ACCOUNT"
)

// TenantContext identifies the tenant and user on whose behalf a call is made.
// The facade layer verifies the tenant/company match before this core is
// invoked; the core records the user on audit events but does not authorize.
type TenantContext struct {
	TenantID string  `json:"tenantID"`
	UserID   string  `json:"userID"`
	Roles    []Role  `json:"roles"`
	Locale   *string `json:"locale,omitempty"`
}
