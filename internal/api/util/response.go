package util

import (
	"encoding/json"
	"errors"
	"net/http"

	"coolmember/internal/core/model"
	"coolmember/internal/core/repository"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("module", "api").Msg("failed to encode response")
	}
}

func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var validation *model.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err verbatim with the status StatusFor picks.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorMessage(w, StatusFor(err), err.Error())
}
