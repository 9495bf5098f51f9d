package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
)

var (
	errUnauthenticated = errors.New("authorization token is not provided")
	errBadRequest      = errors.New("bad request")
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain failures to HTTP status codes. Anything unknown
// is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidOffer),
		errors.Is(err, domain.ErrInvalidPolicy),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidContainer),
		errors.Is(err, domain.ErrContainerTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientApproval):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNoOffer):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOfferTooLow),
		errors.Is(err, domain.ErrAssetRented),
		errors.Is(err, domain.ErrAssetContained),
		errors.Is(err, domain.ErrAssetAlreadyContained),
		errors.Is(err, domain.ErrNoDisturbActive),
		errors.Is(err, domain.ErrContainerIsRented),
		errors.Is(err, domain.ErrAcceptanceWindowExpired),
		errors.Is(err, domain.ErrReentrantCall):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
