package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/carelane/clinic-scheduling/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// respondWithDecodeError keeps typed validation failures (a bad civil date,
// say) intact; only raw JSON syntax errors fall back to the generic message.
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if _, ok := apperrors.AsAppError(err); ok {
		respondWithAppError(w, err)
		return
	}
	respondWithError(w, http.StatusBadRequest, "invalid request payload")
}

// respondWithAppError maps the error taxonomy onto HTTP statuses. The
// machine-readable code travels in the body so callers can tell a full
// slot from a stale transition, since both arrive as 409.
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var status int
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		status = http.StatusConflict
	case apperrors.ErrorTypeForbidden:
		status = http.StatusForbidden
	case apperrors.ErrorTypeExternal:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	respondWithJSON(w, status, errorResponse{Error: appErr.Message, Code: appErr.Code})
}
