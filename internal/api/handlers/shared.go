// Package handlers implements the HTTP handlers of the API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fincrate/fincrate-backend/internal/api/response"
	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/auth"
	"github.com/fincrate/fincrate-backend/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	response.RespondJSON(w, status, data)
}

// UpstreamUnavailableResponse is returned when no symbol of a batch valuation
// could be fetched.
type UpstreamUnavailableResponse struct {
	Error         string   `json:"error"`
	FailedSymbols []string `json:"failedSymbols"`
}

// parseJSON decodes the request body into v. An empty body is an error.
func parseJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidInput)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

// requireUser returns the authenticated user of the request or answers 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserID(r.Context())
	if !ok || userID == "" {
		response.RespondError(w, http.StatusUnauthorized, "Authentication required", apperrors.ErrUnauthenticated.Error())
		return "", false
	}
	return userID, true
}

// respondServiceError maps a service or market data error to its HTTP status.
// fallback is the message used for unclassified errors.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *validation.Error
	var unavailable *apperrors.UpstreamUnavailableError

	switch {
	case errors.As(err, &validationErr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
	case errors.As(err, &unavailable):
		respondJSON(w, http.StatusTooManyRequests, UpstreamUnavailableResponse{
			Error:         "Market data unavailable. API rate limit reached.",
			FailedSymbols: unavailable.FailedSymbols,
		})
	case errors.Is(err, apperrors.ErrNotConfigured):
		response.RespondError(w, http.StatusServiceUnavailable, "Market data API not configured", err.Error())
	case errors.Is(err, apperrors.ErrRateLimited):
		response.RespondError(w, http.StatusTooManyRequests, "Market data rate limit reached", err.Error())
	case errors.Is(err, apperrors.ErrSymbolNotFound):
		response.RespondError(w, http.StatusNotFound, "Symbol not found", err.Error())
	case errors.Is(err, apperrors.ErrUpstream):
		response.RespondError(w, http.StatusBadGateway, "Market data upstream error", err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrInvalidOutputSize),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrInvalidTradeKind):
		response.RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInsufficientShares):
		response.RespondError(w, http.StatusConflict, apperrors.ErrInsufficientShares.Error(), err.Error())
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), err.Error())
	case errors.Is(err, apperrors.ErrUnauthenticated):
		response.RespondError(w, http.StatusUnauthorized, "Authentication required", err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
