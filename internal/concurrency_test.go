package internal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pchlebda/nn/internal/application/service"
	"github.com/pchlebda/nn/internal/domain/entity"
	"github.com/pchlebda/nn/internal/infrastructure/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRateProvider returns the same rate for every call, without touching the
// network.
type fixedRateProvider struct {
	mid decimal.Decimal
}

func (p *fixedRateProvider) CurrentRate(ctx context.Context, currency string) (*entity.Rate, error) {
	return &entity.Rate{
		Currency:      currency,
		Mid:           p.mid,
		EffectiveDate: time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
	}, nil
}

// TestConcurrentExchanges runs many exchanges against a single account in
// parallel and verifies the funds check and write stay atomic: the account is
// never overdrawn and every committed exchange moved exactly its amount.
func TestConcurrentExchanges(t *testing.T) {
	badgerOpts := badger.DefaultOptions(t.TempDir())
	badgerOpts.Logger = nil
	badgerOpts.SyncWrites = false

	badgerDB, err := badger.Open(badgerOpts)
	require.NoError(t, err)
	defer badgerDB.Close()

	repo := db.NewBadgerAccountRepository(badgerDB)
	rates := &fixedRateProvider{mid: decimal.RequireFromString("4.0")}
	svc := service.NewAccountService(repo, rates, "PLN", "USD", nil)

	ctx := context.Background()
	account, err := svc.Register(ctx, "Mark", "Green", decimal.RequireFromString("100"))
	require.NoError(t, err)

	const workers = 20
	amount := decimal.RequireFromString("10")

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Exchange(ctx, account.ID, "PLN", "USD", amount)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var succeeded, rejected, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, entity.ErrInsufficientFunds):
			rejected++
		case errors.Is(err, badger.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, workers, succeeded+rejected+conflicted)
	assert.Greater(t, succeeded, 0)
	// The initial 100 PLN covers at most 10 exchanges of 10 PLN each.
	assert.LessOrEqual(t, succeeded, 10)

	final, err := svc.GetStatus(ctx, account.ID)
	require.NoError(t, err)

	spent := amount.Mul(decimal.NewFromInt(int64(succeeded)))
	credited := amount.DivRound(rates.mid, 4).Mul(decimal.NewFromInt(int64(succeeded)))

	assert.False(t, final.BalanceLocal.IsNegative())
	assert.False(t, final.BalanceForeign.IsNegative())
	assert.True(t, final.BalanceLocal.Equal(decimal.RequireFromString("100").Sub(spent)),
		"local balance %s, expected %s", final.BalanceLocal, decimal.RequireFromString("100").Sub(spent))
	assert.True(t, final.BalanceForeign.Equal(credited),
		"foreign balance %s, expected %s", final.BalanceForeign, credited)
}

// TestParallelAccountsAreIndependent verifies exchanges against different
// accounts proceed without interfering with each other.
func TestParallelAccountsAreIndependent(t *testing.T) {
	badgerOpts := badger.DefaultOptions(t.TempDir())
	badgerOpts.Logger = nil
	badgerOpts.SyncWrites = false

	badgerDB, err := badger.Open(badgerOpts)
	require.NoError(t, err)
	defer badgerDB.Close()

	repo := db.NewBadgerAccountRepository(badgerDB)
	rates := &fixedRateProvider{mid: decimal.RequireFromString("4.0")}
	svc := service.NewAccountService(repo, rates, "PLN", "USD", nil)

	ctx := context.Background()

	const accounts = 8
	ids := make([]string, accounts)
	for i := range ids {
		account, err := svc.Register(ctx, "Mark", "Green", decimal.RequireFromString("40"))
		require.NoError(t, err)
		ids[i] = account.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Exchange(ctx, id, "PLN", "USD", decimal.RequireFromString("40"))
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		account, err := svc.GetStatus(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "0.0000", account.BalanceLocal.StringFixed(4))
		assert.Equal(t, "10.0000", account.BalanceForeign.StringFixed(4))
	}
}
