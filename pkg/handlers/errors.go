package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/logging"
)

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, apperrors.ErrAlreadyConverted):
		return http.StatusConflict, "already_converted"
	case errors.Is(err, apperrors.ErrDuplicateLink):
		return http.StatusConflict, "duplicate_link"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes the error response for err. Business-rule failures
// carry their message to the client; anything unexpected is logged and hidden.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, action string, err error) {
	status, code := statusFor(err)

	message := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		logger.Error(action+" failed", logging.Error(err))
		message = "Internal server error"
	case status == http.StatusServiceUnavailable:
		logger.Warn(action+" failed: store unavailable", logging.Error(err))
		message = "Store temporarily unavailable, retry later"
	default:
		logger.Debug(action+" rejected", zap.String("code", code), zap.Error(err))
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeBadRequest(w http.ResponseWriter, logger *zap.Logger, code, message string) {
	if err := ErrorResponse(w, http.StatusBadRequest, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	if err := WriteJSON(w, status, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
