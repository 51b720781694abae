package entity

import "errors"

// The closed set of business errors the ledger raises. They propagate
// unchanged to the transport layer, which maps them to response codes.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidExchange   = errors.New("invalid exchange: currency pair not allowed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRateUnavailable   = errors.New("rate source unavailable")
)
