// Package api internal/infrastructure/api/nbp_api_client.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pchlebda/nn/internal/domain/entity"
	"github.com/pchlebda/nn/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

const (
	nbpBaseURL    = "https://api.nbp.pl"
	nbpRatesPath  = "/api/exchangerates/rates/a"
	clientTimeout = 10 * time.Second
)

// NBPAPIClient fetches current mid exchange rates from the National Bank of
// Poland public API. Every call hits the API directly; rates are never cached
// because a stale rate could misprice a conversion.
type NBPAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewNBPAPIClient creates a new NBP API client
func NewNBPAPIClient(baseURL string, httpClient *http.Client, log logger.Logger) *NBPAPIClient {
	if baseURL == "" {
		baseURL = nbpBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: clientTimeout,
		}
	}

	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &NBPAPIClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
	}
}

// nbpResponse represents the response structure of the NBP exchangerates endpoint
type nbpResponse struct {
	Table    string `json:"table"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Rates    []struct {
		No            string          `json:"no"`
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// CurrentRate retrieves the latest mid rate for a currency from table A of
// the NBP API. Any transport, status or decoding failure surfaces as
// entity.ErrRateUnavailable; no mutation depends on a partially fetched rate.
func (c *NBPAPIClient) CurrentRate(ctx context.Context, currency string) (*entity.Rate, error) {
	reqURL := fmt.Sprintf("%s%s/%s/?format=json",
		c.baseURL, nbpRatesPath, url.PathEscape(strings.ToLower(currency)))

	c.logger.Debug("Querying NBP api", map[string]interface{}{
		"currency": currency,
		"url":      reqURL,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", entity.ErrRateUnavailable, err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("NBP api call failed", map[string]interface{}{
			"currency": currency,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", entity.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("NBP api returned error status", map[string]interface{}{
			"currency": currency,
			"status":   resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: unexpected status %d", entity.ErrRateUnavailable, resp.StatusCode)
	}

	var nbpResp nbpResponse
	if err := json.NewDecoder(resp.Body).Decode(&nbpResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", entity.ErrRateUnavailable, err)
	}

	if len(nbpResp.Rates) == 0 {
		return nil, fmt.Errorf("%w: no rates returned for %s", entity.ErrRateUnavailable, currency)
	}

	latest := nbpResp.Rates[0]
	if !latest.Mid.IsPositive() {
		return nil, fmt.Errorf("%w: invalid mid rate %s", entity.ErrRateUnavailable, latest.Mid)
	}

	effectiveDate, err := time.Parse("2006-01-02", latest.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("%w: parse effective date %q: %v", entity.ErrRateUnavailable, latest.EffectiveDate, err)
	}

	c.logger.Info("NBP rate fetched", map[string]interface{}{
		"currency":       nbpResp.Code,
		"mid":            latest.Mid.String(),
		"effective_date": latest.EffectiveDate,
	})

	return &entity.Rate{
		Currency:      nbpResp.Code,
		Mid:           latest.Mid,
		EffectiveDate: effectiveDate,
	}, nil
}
