package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/pchlebda/nn/internal/domain/entity"
)

const accountKeyPrefix = "account:"

// maxConflictRetries bounds the optimistic retry loop when concurrent
// transactions touch the same account record.
const maxConflictRetries = 5

// BadgerAccountRepository implements the account repository interface using BadgerDB
type BadgerAccountRepository struct {
	db *badger.DB
}

// NewBadgerAccountRepository creates a new BadgerDB account repository
func NewBadgerAccountRepository(db *badger.DB) *BadgerAccountRepository {
	return &BadgerAccountRepository{db: db}
}

// Save persists a new account record keyed by its ID
func (r *BadgerAccountRepository) Save(ctx context.Context, account *entity.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(account.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store account: %w", err)
	}

	return nil
}

// FindByID retrieves an account by its identifier
func (r *BadgerAccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	var account entity.Account

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, entity.ErrAccountNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve account: %w", err)
	}

	return &account, nil
}

// Update applies a mutation to the stored record inside a single Badger
// transaction. Badger detects write conflicts on commit, so the read, the
// checks in apply and the write are atomic per key; on conflict the whole
// closure is retried against the fresh record.
func (r *BadgerAccountRepository) Update(ctx context.Context, id string, apply func(*entity.Account) error) (*entity.Account, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var account entity.Account

		err := r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(accountKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return entity.ErrAccountNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to retrieve account: %w", err)
			}

			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &account)
			}); err != nil {
				return fmt.Errorf("failed to unmarshal account: %w", err)
			}

			if err := apply(&account); err != nil {
				return err
			}

			data, err := json.Marshal(&account)
			if err != nil {
				return fmt.Errorf("failed to marshal account: %w", err)
			}

			return txn.Set(accountKey(id), data)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return &account, nil
	}

	return nil, fmt.Errorf("failed to update account %s after %d attempts: %w", id, maxConflictRetries, badger.ErrConflict)
}

func accountKey(id string) []byte {
	return []byte(accountKeyPrefix + id)
}
