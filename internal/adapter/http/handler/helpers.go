package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/ledgersync/internal/adapter/http/dto"
	"github.com/iho/ledgersync/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrStatementNotFound),
		errors.Is(err, domain.ErrConnectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrImbalancedEntry),
		errors.Is(err, domain.ErrInvalidAccountPair),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrStatementAccountMismatch),
		errors.Is(err, domain.ErrNotPosted):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPostedImmutable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReauthRequired),
		errors.Is(err, domain.ErrDataConsistency):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an RFC 3339 time query parameter.
func parseTimeQuery(r *http.Request, key string, defaultValue time.Time) time.Time {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return defaultValue
	}
	return t
}
