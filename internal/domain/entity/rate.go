package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate represents the current mid exchange rate for a currency, expressed as
// units of the local currency per one unit of that currency.
type Rate struct {
	Currency      string          `json:"currency"`
	Mid           decimal.Decimal `json:"mid"`
	EffectiveDate time.Time       `json:"effective_date"`
}
