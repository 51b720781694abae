package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pchlebda/nn/internal/application/service"
	"github.com/pchlebda/nn/internal/domain/entity"
	"github.com/pchlebda/nn/internal/infrastructure/logger"
	"github.com/pchlebda/nn/internal/infrastructure/middleware"
)

const apiKeyHeader = "X-Api-Key"

// AccountHandler handles HTTP requests for accounts
type AccountHandler struct {
	service         *service.AccountService
	localCurrency   string
	foreignCurrency string
	logger          logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(service *service.AccountService, localCurrency, foreignCurrency string, log logger.Logger) *AccountHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &AccountHandler{
		service:         service,
		localCurrency:   strings.ToUpper(localCurrency),
		foreignCurrency: strings.ToUpper(foreignCurrency),
		logger:          log,
	}
}

// RegisterAccount handles the creation of a new account
func (h *AccountHandler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req RegisterAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		sendErrorResponse(w, h.logger, "Missing name",
			"firstName and lastName must not be empty", http.StatusBadRequest, requestID)
		return
	}

	if req.InitialBalance.IsNegative() {
		sendErrorResponse(w, h.logger, "Invalid initial balance",
			"initialBalance must not be negative", http.StatusBadRequest, requestID)
		return
	}

	account, err := h.service.Register(r.Context(), req.FirstName, req.LastName, req.InitialBalance)
	if err != nil {
		h.handleServiceError(w, err, requestID)
		return
	}

	h.logger.Info("Account registered", map[string]interface{}{
		"request_id": requestID,
		"id":         account.ID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(h.toResponse(account, true))
}

// GetAccountStatus handles retrieving the balances of an account
func (h *AccountHandler) GetAccountStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		sendErrorResponse(w, h.logger, "Missing API key",
			"The "+apiKeyHeader+" header is required", http.StatusBadRequest, requestID)
		return
	}

	account, err := h.service.GetStatus(r.Context(), apiKey)
	if err != nil {
		h.handleServiceError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toResponse(account, false))
}

// ExchangeCurrency handles exchanging funds between the two account currencies
func (h *AccountHandler) ExchangeCurrency(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		sendErrorResponse(w, h.logger, "Missing API key",
			"The "+apiKeyHeader+" header is required", http.StatusBadRequest, requestID)
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	if !req.Amount.IsPositive() {
		sendErrorResponse(w, h.logger, "Invalid amount",
			"Amount must be a positive value", http.StatusBadRequest, requestID)
		return
	}

	account, err := h.service.Exchange(r.Context(), apiKey, req.From, req.To, req.Amount)
	if err != nil {
		h.handleServiceError(w, err, requestID)
		return
	}

	h.logger.Info("Exchange handled", map[string]interface{}{
		"request_id": requestID,
		"from":       req.From,
		"to":         req.To,
		"amount":     req.Amount.String(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toResponse(account, false))
}

// RegisterRoutes registers the account handler routes
func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/accounts", h.RegisterAccount).Methods("POST")
	router.HandleFunc("/api/v1/accounts/status", h.GetAccountStatus).Methods("GET")
	router.HandleFunc("/api/v1/accounts/exchange", h.ExchangeCurrency).Methods("POST")
}

// handleServiceError maps the ledger error set to response codes
func (h *AccountHandler) handleServiceError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, entity.ErrAccountNotFound):
		sendErrorResponse(w, h.logger, "Account not found",
			"No account exists for the given API key", http.StatusNotFound, requestID)
	case errors.Is(err, entity.ErrInvalidExchange):
		sendErrorResponse(w, h.logger, "Invalid exchange",
			"Exchange is only allowed between "+h.localCurrency+" and "+h.foreignCurrency,
			http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrInsufficientFunds):
		sendErrorResponse(w, h.logger, "Insufficient funds",
			"The requested amount exceeds the available balance", http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrRateUnavailable):
		sendErrorResponse(w, h.logger, "Rate source unavailable",
			"The exchange rate could not be fetched, try again later", http.StatusBadGateway, requestID)
	default:
		h.logger.Error("Unexpected error", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred", http.StatusInternalServerError, requestID)
	}
}

func (h *AccountHandler) toResponse(account *entity.Account, withKey bool) AccountResponse {
	resp := AccountResponse{
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Balances: map[string]string{
			h.localCurrency:   account.BalanceLocal.StringFixed(4),
			h.foreignCurrency: account.BalanceForeign.StringFixed(4),
		},
	}
	if withKey {
		resp.APIKey = account.ID
	}
	return resp
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}
