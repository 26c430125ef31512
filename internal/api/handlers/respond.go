package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/domain"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// without a domain kind is reported as an internal error without leaking the
// underlying cause.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		log.Error().Err(err).Msg("api: unclassified error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindUnauthorized:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		} else {
			status = http.StatusForbidden
		}
	case domain.KindToken:
		status = http.StatusUnauthorized
	case domain.KindPersistence:
		log.Error().Err(err).Msg("api: persistence error")
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Context: domainErr.Context,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "INVALID_BODY",
			Message: "request body is not valid JSON",
		})
		return false
	}
	return true
}
