package service

import (
	"errors"
	"fmt"
	"net/http"
)

// The engine client classifies every failed operation into one of these
// error kinds so handlers can map them to HTTP responses without string
// matching.

// NetworkError covers transport failures and timeouts talking to the engine.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError is returned for 404-class engine responses.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Op, e.Resource)
}

// ServerError is returned for 5xx-class engine responses.
type ServerError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: engine returned %d: %s", e.Op, e.Status, e.Body)
}

// ValidationError marks malformed local input rejected before any network
// call, such as an oversized or unsupported upload.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// HTTPStatus maps a classified error to the status code this gateway should
// answer with. Unclassified errors map to 500.
func HTTPStatus(err error) int {
	var (
		netErr *NetworkError
		nfErr  *NotFoundError
		srvErr *ServerError
		valErr *ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	case errors.As(err, &srvErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
