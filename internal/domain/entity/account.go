package entity

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// balanceScale is the number of fractional digits every balance is presented
// with. Stored values keep full precision; snapshots round half-up.
const balanceScale = 4

// Account is the ledger entity. The ID doubles as the caller's API key.
// Balances are exact decimals and must never go negative after a committed
// operation.
type Account struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	BalanceLocal   decimal.Decimal `json:"balance_local"`
	BalanceForeign decimal.Decimal `json:"balance_foreign"`
}

// Validate ensures the account meets creation requirements.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.FirstName) == "" {
		return errors.New("first name must not be empty")
	}

	if strings.TrimSpace(a.LastName) == "" {
		return errors.New("last name must not be empty")
	}

	if a.BalanceLocal.IsNegative() {
		return errors.New("initial balance must not be negative")
	}

	return nil
}

// Snapshot returns a copy with both balances set to scale 4, rounded half-up.
func (a *Account) Snapshot() *Account {
	return &Account{
		ID:             a.ID,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		BalanceLocal:   a.BalanceLocal.Round(balanceScale),
		BalanceForeign: a.BalanceForeign.Round(balanceScale),
	}
}
