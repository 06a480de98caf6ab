// Package handlers exposes the sales configuration workflow as a JSON API on
// the PocketBase router.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"yachtcpq/services"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// apiError maps workflow errors to HTTP statuses. Stage mismatches and
// invalid parent states are conflicts the client resolves by reloading;
// missing fields are bad requests.
func apiError(e *core.RequestEvent, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingRequiredField):
		return e.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrStageMismatch),
		errors.Is(err, services.ErrInvalidParentState),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrStaleStep):
		return e.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		return e.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func notFound(e *core.RequestEvent, msg string) error {
	return e.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func badRequest(e *core.RequestEvent, msg string) error {
	return e.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeBody reads the request body as a loose JSON object. Workflow payloads
// are stage-dependent, so validation happens in the services layer, not here.
func decodeBody(e *core.RequestEvent) (map[string]any, error) {
	payload := map[string]any{}
	if e.Request.Body == nil {
		return payload, nil
	}
	dec := json.NewDecoder(e.Request.Body)
	if err := dec.Decode(&payload); err != nil && err.Error() != "EOF" {
		return nil, err
	}
	return payload, nil
}
