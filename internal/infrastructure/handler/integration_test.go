// internal/infrastructure/handler/integration_test.go
package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"
	"github.com/pchlebda/nn/internal/application/service"
	"github.com/pchlebda/nn/internal/domain/entity"
	"github.com/pchlebda/nn/internal/infrastructure/db"
	"github.com/pchlebda/nn/internal/infrastructure/handler"
	"github.com/pchlebda/nn/internal/infrastructure/middleware"
	"github.com/pchlebda/nn/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupTestServer creates a test server backed by a real BadgerDB store and a
// mocked rate provider
func setupTestServer(t *testing.T, rates *mocks.MockRateProvider) *httptest.Server {
	t.Helper()

	badgerOpts := badger.DefaultOptions(t.TempDir())
	badgerOpts.Logger = nil
	badgerOpts.SyncWrites = false

	badgerDB, err := badger.Open(badgerOpts)
	require.NoError(t, err)
	t.Cleanup(func() { badgerDB.Close() })

	accountRepo := db.NewBadgerAccountRepository(badgerDB)
	accountService := service.NewAccountService(accountRepo, rates, "PLN", "USD", nil)
	accountHandler := handler.NewAccountHandler(accountService, "PLN", "USD", nil)

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	accountHandler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server
}

func postJSON(t *testing.T, url, apiKey, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getStatus(t *testing.T, url, apiKey string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url+"/api/v1/accounts/status", nil)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeAccount(t *testing.T, resp *http.Response) handler.AccountResponse {
	t.Helper()
	defer resp.Body.Close()

	var account handler.AccountResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&account))
	return account
}

func TestAccountEndpoints(t *testing.T) {
	rates := new(mocks.MockRateProvider)
	server := setupTestServer(t, rates)

	var apiKey string

	t.Run("Register", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/accounts", "",
			`{"firstName":"Mark","lastName":"Green","initialBalance":1000.0}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		account := decodeAccount(t, resp)
		assert.NotEmpty(t, account.APIKey)
		assert.Equal(t, "Mark", account.FirstName)
		assert.Equal(t, "1000.0000", account.Balances["PLN"])
		assert.Equal(t, "0.0000", account.Balances["USD"])

		apiKey = account.APIKey
	})

	t.Run("Status after registration", func(t *testing.T) {
		resp := getStatus(t, server.URL, apiKey)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		account := decodeAccount(t, resp)
		assert.Empty(t, account.APIKey)
		assert.Equal(t, "1000.0000", account.Balances["PLN"])
		assert.Equal(t, "0.0000", account.Balances["USD"])
	})

	t.Run("Exchange local to foreign", func(t *testing.T) {
		rates.On("CurrentRate", mock.Anything, "USD").Return(&entity.Rate{
			Currency:      "USD",
			Mid:           decimal.RequireFromString("4.108"),
			EffectiveDate: time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
		}, nil).Once()

		resp := postJSON(t, server.URL+"/api/v1/accounts/exchange", apiKey,
			`{"from":"PLN","to":"USD","amount":10}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		account := decodeAccount(t, resp)
		assert.Equal(t, "990.0000", account.Balances["PLN"])
		assert.Equal(t, "2.4343", account.Balances["USD"])
		rates.AssertExpectations(t)
	})

	t.Run("Insufficient funds does not change balances", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/accounts/exchange", apiKey,
			`{"from":"USD","to":"PLN","amount":1000}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		status := getStatus(t, server.URL, apiKey)
		account := decodeAccount(t, status)
		assert.Equal(t, "990.0000", account.Balances["PLN"])
		assert.Equal(t, "2.4343", account.Balances["USD"])
	})

	t.Run("Unknown currency", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/accounts/exchange", apiKey,
			`{"from":"CHF","to":"PLN","amount":10}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/accounts/exchange", apiKey,
			`{"from":"PLN","to":"USD","amount":0}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Rate source down", func(t *testing.T) {
		rates.On("CurrentRate", mock.Anything, "USD").
			Return(nil, fmt.Errorf("fetch rate: %w", entity.ErrRateUnavailable)).Once()

		resp := postJSON(t, server.URL+"/api/v1/accounts/exchange", apiKey,
			`{"from":"PLN","to":"USD","amount":10}`)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Unknown api key", func(t *testing.T) {
		resp := getStatus(t, server.URL, "no-such-key")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Missing api key header", func(t *testing.T) {
		resp := getStatus(t, server.URL, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Invalid register body", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/accounts", "", `{"firstName":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Negative initial balance", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/v1/accounts", "",
			`{"firstName":"Mark","lastName":"Green","initialBalance":-5}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}
