package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicledger/civicledger-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// respondError writes an error response and logs encoding failures.
func respondError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// respondServiceError maps a service-layer error to an HTTP status.
// Validation failures surface their reason; anything unexpected is a bare
// 500 so internals never leak to callers.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, logger, http.StatusBadRequest, "validation_failed", ve.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrInvalidTransition):
		respondError(w, logger, http.StatusConflict, "already_decided", "Action has already been verified or rejected")
	case errors.Is(err, apperrors.ErrForbidden):
		respondError(w, logger, http.StatusForbidden, "forbidden", "Insufficient role")
	default:
		logger.Error("Request failed", zap.Error(err))
		respondError(w, logger, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
