package repository

import (
	"context"

	"github.com/pchlebda/nn/internal/domain/entity"
)

// AccountRepository defines the interface for durable account storage.
type AccountRepository interface {
	// Save persists a new account record keyed by its ID.
	Save(ctx context.Context, account *entity.Account) error

	// FindByID retrieves an account by its identifier. Returns
	// entity.ErrAccountNotFound if no record exists.
	FindByID(ctx context.Context, id string) (*entity.Account, error)

	// Update runs apply against the current record inside a per-key
	// transaction and writes the result back. The funds check and the write
	// are atomic with respect to concurrent updates of the same account; an
	// error returned by apply aborts the transaction without mutating the
	// record.
	Update(ctx context.Context, id string, apply func(*entity.Account) error) (*entity.Account, error)
}
