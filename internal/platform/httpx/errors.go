package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Handlers wrap these with context and
// RespondError maps them back onto problem responses. Cross-owner access is
// always reported as not found so existence never leaks between owners.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflicting state")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRenderFailed  = errors.New("document render failed")
	ErrRenderTimeout = errors.New("document render timed out")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrRenderTimeout):
		Problem(w, http.StatusGatewayTimeout, "Render Timeout", err.Error())
	case errors.Is(err, ErrRenderFailed):
		Problem(w, http.StatusBadGateway, "Render Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
