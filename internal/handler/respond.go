package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
	userUC "github.com/grenier-labs/marketplace/internal/user/usecase"
)

// errorEnvelope is the uniform error body: {"error":{"message":"..."}}.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError writes the error envelope with an explicit status. Exported
// for the auth middleware, which reports failures through the same shape.
func RespondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorEnvelope{Error: errorBody{Message: message}})
}

// respondUsecaseError maps a coordinator failure onto the HTTP taxonomy:
// validation 400, unauthorized 401, not found 404, conflict 409, upstream
// dependency failures 502.
func respondUsecaseError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, userUC.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrListingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, userUC.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, userUC.ErrInvalidCredentials), errors.Is(err, userUC.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	}
	RespondError(w, status, err.Error())
}
