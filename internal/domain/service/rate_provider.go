package service

import (
	"context"

	"github.com/pchlebda/nn/internal/domain/entity"
)

// RateProvider defines the interface for the external exchange rate source.
type RateProvider interface {
	// CurrentRate retrieves the latest mid rate for a currency, expressed as
	// local currency units per one unit of that currency. Returns an error
	// wrapping entity.ErrRateUnavailable when the source cannot be reached.
	CurrentRate(ctx context.Context, currency string) (*entity.Rate, error)
}
