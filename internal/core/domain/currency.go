package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency identifies a currency and its minor-unit precision.
type Currency struct {
	Code      string `json:"code"`      // e.g., "USD"
	Precision uint8  `json:"precision"` // minor-unit digits, e.g. 2 for cents
}

// CurrencyRate is the provenance record justifying a cross-currency
// conversion: base -> quote at a rate observed from a named source.
type CurrencyRate struct {
	Base       Currency        `json:"base"`
	Quote      Currency        `json:"quote"`
	Rate       decimal.Decimal `json:"rate"`
	Source     *string         `json:"source,omitempty"` // e.g. "ECB"; required for provenance
	ObservedAt time.Time       `json:"observedAt"`
}

// TaxCode tags a line or account with a tax treatment.
type TaxCode struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	RatePercent float32 `json:"ratePercent"`
}
