package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseID extracts and validates the {id} path parameter.
// Returns the parsed UUID and true on success, or uuid.Nil and false after
// writing a 400 response.
func ParseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_id", "Invalid ID format", logger)
}

func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeBadRequest(w, logger, errorCode, errorMessage)
		return uuid.Nil, false
	}
	return id, true
}

// parseBodyUUID validates an id carried in a request body field.
func parseBodyUUID(w http.ResponseWriter, value, field string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		writeBadRequest(w, logger, "invalid_"+field, "Invalid "+field+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parseIntQuery reads an optional non-negative integer query parameter.
// A missing parameter yields 0.
func parseIntQuery(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		writeBadRequest(w, logger, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
