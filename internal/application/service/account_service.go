package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pchlebda/nn/internal/domain/entity"
	"github.com/pchlebda/nn/internal/domain/repository"
	domainservice "github.com/pchlebda/nn/internal/domain/service"
	"github.com/pchlebda/nn/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// creditScale is the scale used when dividing a local amount by the rate.
// Division gets explicit half-up rounding to avoid non-terminating expansions.
const creditScale = 4

// AccountService handles the ledger business logic: registration, status and
// currency exchange between the configured local and foreign currency.
type AccountService struct {
	repo            repository.AccountRepository
	rates           domainservice.RateProvider
	idGenerator     func() string
	localCurrency   string
	foreignCurrency string
	logger          logger.Logger
}

// NewAccountService creates a new account service for the given currency pair.
func NewAccountService(repo repository.AccountRepository, rates domainservice.RateProvider, localCurrency, foreignCurrency string, log logger.Logger) *AccountService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &AccountService{
		repo:            repo,
		rates:           rates,
		idGenerator:     uuid.NewString,
		localCurrency:   strings.ToUpper(localCurrency),
		foreignCurrency: strings.ToUpper(foreignCurrency),
		logger:          log,
	}
}

// WithIDGenerator overrides the identifier generator. Used in tests.
func (s *AccountService) WithIDGenerator(gen func() string) *AccountService {
	s.idGenerator = gen
	return s
}

// Register creates a new account with the given initial local balance and a
// zero foreign balance, and persists it under a freshly generated identifier.
func (s *AccountService) Register(ctx context.Context, firstName, lastName string, initialBalance decimal.Decimal) (*entity.Account, error) {
	account := &entity.Account{
		ID:             s.idGenerator(),
		FirstName:      firstName,
		LastName:       lastName,
		BalanceLocal:   initialBalance,
		BalanceForeign: decimal.Zero,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	s.logger.Info("Account registered", map[string]interface{}{
		"id": account.ID,
	})

	return account.Snapshot(), nil
}

// GetStatus returns the current balances of an account, rounded half-up to
// four decimal places. Read-only.
func (s *AccountService) GetStatus(ctx context.Context, id string) (*entity.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return account.Snapshot(), nil
}

// Exchange converts amount from one currency of the configured pair into the
// other, at the current mid rate of the rate source. Checks run in a fixed
// order: pair validation, account lookup, funds check, rate fetch, then one
// atomic read-modify-write of the account record. A failure at any step
// before the write leaves the account untouched.
func (s *AccountService) Exchange(ctx context.Context, id, from, to string, amount decimal.Decimal) (*entity.Account, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if !s.isValidPair(from, to) {
		return nil, fmt.Errorf("%w: allowed directions are %s->%s and %s->%s",
			entity.ErrInvalidExchange, s.localCurrency, s.foreignCurrency, s.foreignCurrency, s.localCurrency)
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Pre-check before touching the rate source; the authoritative check
	// happens again inside the update transaction.
	if err := checkFunds(account, from, amount, s.foreignCurrency); err != nil {
		return nil, err
	}

	// Always the foreign currency's rate, expressed as local units per one
	// foreign unit. Fetched fresh for every exchange.
	rate, err := s.rates.CurrentRate(ctx, s.foreignCurrency)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, func(acc *entity.Account) error {
		if err := checkFunds(acc, from, amount, s.foreignCurrency); err != nil {
			return err
		}

		if from == s.foreignCurrency {
			credit := amount.Mul(rate.Mid)
			acc.BalanceLocal = acc.BalanceLocal.Add(credit)
			acc.BalanceForeign = acc.BalanceForeign.Sub(amount)
		} else {
			credit := amount.DivRound(rate.Mid, creditScale)
			acc.BalanceLocal = acc.BalanceLocal.Sub(amount)
			acc.BalanceForeign = acc.BalanceForeign.Add(credit)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exchange completed", map[string]interface{}{
		"id":     updated.ID,
		"from":   from,
		"to":     to,
		"amount": amount.String(),
		"rate":   rate.Mid.String(),
	})

	return updated.Snapshot(), nil
}

// isValidPair reports whether both currencies are members of the configured
// pair and differ from each other.
func (s *AccountService) isValidPair(from, to string) bool {
	member := func(c string) bool {
		return c == s.localCurrency || c == s.foreignCurrency
	}
	return member(from) && member(to) && from != to
}

// checkFunds compares the requested amount against the balance held in the
// source currency.
func checkFunds(account *entity.Account, from string, amount decimal.Decimal, foreignCurrency string) error {
	available := account.BalanceLocal
	if from == foreignCurrency {
		available = account.BalanceForeign
	}

	if amount.GreaterThan(available) {
		return entity.ErrInsufficientFunds
	}

	return nil
}
