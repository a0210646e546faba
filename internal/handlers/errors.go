package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkstats/internal/links"
	"go.uber.org/zap"
)

// ErrorBody is the plain {"error": "..."} body sent for gone links.
type ErrorBody struct {
	status  int
	Message string `json:"error" example:"This short URL has expired"`
}

func (e *ErrorBody) Error() string {
	return e.Message
}

func (e *ErrorBody) GetStatus() int {
	return e.status
}

func errorGone(msg string) huma.StatusError {
	return &ErrorBody{status: http.StatusGone, Message: msg}
}

// toHTTPError maps domain errors to huma status errors. Anything unknown is
// logged and hidden behind a 500 carrying msg.
func toHTTPError(err error, logger *zap.Logger, msg string, fields ...zap.Field) error {
	var (
		validation *links.ValidationError
		gone       *links.GoneError
	)

	switch {
	case errors.As(err, &validation):
		return huma.Error400BadRequest(validation.Msg)
	case errors.Is(err, links.ErrNotFound):
		return huma.Error404NotFound("short url not found")
	case errors.Is(err, links.ErrPermissionDenied):
		return huma.Error403Forbidden("you do not have permission to modify this link")
	case errors.As(err, &gone):
		return errorGone(gone.Reason)
	case errors.Is(err, links.ErrConflict):
		logger.Error(msg, append(fields, zap.Error(err))...)

		return huma.Error409Conflict("could not allocate a unique short code, try again")
	default:
		logger.Error(msg, append(fields, zap.Error(err))...)

		return huma.Error500InternalServerError(msg)
	}
}
