package server

import (
	"net/http"

	"github.com/njchilds90/mathflow/errs"
)

// Transport-level error categories, reported alongside the engine's.
const (
	badRequest       = "BadRequest"
	payloadTooLarge  = "PayloadTooLarge"
	unsupportedMedia = "UnsupportedMediaType"
	rateLimited      = "RateLimited"
	internalError    = "InternalError"
)

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Status maps an engine error to an HTTP status. Faults in the request
// are 400 (413 for oversized expressions); operations the engine cannot
// complete are 422; budget or deadline exhaustion is 503.
func Status(err error) int {
	c, ok := errs.CategoryOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch {
	case c == errs.ExpressionTooLargeError:
		return http.StatusRequestEntityTooLarge
	case c == errs.ComputationTimeoutError:
		return http.StatusServiceUnavailable
	case c.ClientFault():
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// describe returns the category and message reported for err.
func describe(err error) ErrorDetail {
	if c, ok := errs.CategoryOf(err); ok {
		return ErrorDetail{Category: c.String(), Message: err.Error()}
	}
	return ErrorDetail{Category: internalError, Message: "internal server error"}
}
