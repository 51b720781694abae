// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/pchlebda/nn/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository mocks the AccountRepository interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Save(ctx context.Context, account *entity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, id string, apply func(*entity.Account) error) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	account := args.Get(0).(*entity.Account)
	if err := apply(account); err != nil {
		return nil, err
	}
	return account, args.Error(1)
}

// MockRateProvider mocks the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) CurrentRate(ctx context.Context, currency string) (*entity.Rate, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Rate), args.Error(1)
}
