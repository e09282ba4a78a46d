package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset      AccountType = "ASSET"
	Liability  AccountType = "LIABILITY"
	Equity     AccountType = "EQUITY"
	Revenue    AccountType = "REVENUE"
	Expense    AccountType = "EXPENSE"
	OffBalance AccountType = "OFF_BALANCE"
)

// CurrencyMode restricts which currencies postings against an account may carry.
type CurrencyMode string

const (
	FunctionalOnly CurrencyMode = "FUNCTIONAL_ONLY"
	Transactional  CurrencyMode = "TRANSACTIONAL"
	MultiCurrency  CurrencyMode = "MULTI_CURRENCY"
)

// Account is a node in a company's chart of accounts. Summary accounts group
// the hierarchy and never carry postings themselves.
type Account struct {
	AccountID       string       `json:"accountID"`
	CompanyID       string       `json:"companyID"`
	Code            string       `json:"code"` // Unique per company
	Name            string       `json:"name"`
	AccountType     AccountType  `json:"accountType"`
	ParentAccountID *string      `json:"parentAccountID,omitempty"` // Parent must be a summary account
	CurrencyMode    CurrencyMode `json:"currencyMode"`
	TaxCode         *TaxCode     `json:"taxCode,omitempty"`
	IsSummary       bool         `json:"isSummary"`
	IsActive        bool         `json:"isActive"`
}

// AllowsPosting reports whether journal lines may reference this account.
func (a Account) AllowsPosting() bool {
	return a.IsActive && !a.IsSummary
}

// ChartAccount is a chart-of-accounts template row used by bulk seeding.
// Parents are referenced by code rather than id so charts stay portable
// across companies.
type ChartAccount struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	AccountType  AccountType  `json:"accountType"`
	ParentCode   *string      `json:"parentCode,omitempty"`
	CurrencyMode CurrencyMode `json:"currencyMode"`
	TaxCode      *TaxCode     `json:"taxCode,omitempty"`
	IsSummary    bool         `json:"isSummary"`
}
