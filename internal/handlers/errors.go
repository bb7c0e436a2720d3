package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"triproom/internal/service"
	"triproom/internal/validation"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		slog.Error(logMsg, "error", err)
	}
	respondWithJSON(w, status, errorBody{Error: userMsg})
}

// respondWithServiceError maps a service error to a status code. Anything
// that is neither bad input nor a missing entity is logged and reported as a
// generic server error.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
