package handler

import "github.com/shopspring/decimal"

// RegisterAccountRequest represents the request body for registering an account
type RegisterAccountRequest struct {
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// ExchangeRequest represents the request body for a currency exchange
type ExchangeRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// AccountResponse represents the account snapshot returned by every endpoint.
// Balances are fixed-scale decimal strings keyed by currency code.
type AccountResponse struct {
	APIKey    string            `json:"apiKey,omitempty"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Balances  map[string]string `json:"balances"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
