package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/storefront/internal/domain"
)

// envelope is the uniform response shape for every JSON endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}

// respondError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500 so internals never leak to clients.
func respondError(w http.ResponseWriter, log *slog.Logger, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenMismatch):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountDeactivated),
		errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrDuplicatePhone),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInsufficientReservation),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
		log.Error("request failed", slog.String("error", err.Error()))
	}

	respond(w, status, message, nil)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrValidation
	}
	return nil
}
