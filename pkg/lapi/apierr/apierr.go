// Package apierr translates service errors into huma status errors.
package apierr

import (
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/llog"
)

var ErrForbidden = errors.New("forbidden")

// ValidationError is a business-rule violation the request schema cannot
// express, such as a due date before the issue date.
type ValidationError struct {
	Location string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return e.Location + ": " + e.Message
}

// Invalid builds a ValidationError for a body field.
func Invalid(field, format string, args ...any) *ValidationError {
	loc := ""
	if field != "" {
		loc = "body." + field
	}
	return &ValidationError{Location: loc, Message: fmt.Sprintf(format, args...)}
}

// Conflict wraps db.ErrConflict with a client-facing reason.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", db.ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound wraps db.ErrNotFound with the missing entity.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", db.ErrNotFound, entity, id)
}

var logger = llog.NewDefault()

// Huma maps err onto a huma status error. Unknown errors become a 500 whose
// detail does not leak the cause.
func Huma(err error) error {
	if err == nil {
		return nil
	}

	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return huma.Error422UnprocessableEntity("validation failed", &huma.ErrorDetail{
			Location: ve.Location,
			Message:  ve.Message,
		})
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		return huma.Error404NotFound(detail(err, db.ErrNotFound, "not found"))
	case errors.Is(err, db.ErrConflict):
		return huma.Error409Conflict(detail(err, db.ErrConflict, "already exists"))
	case errors.Is(err, ErrForbidden):
		return huma.Error403Forbidden("librarian role required")
	}

	logger.Error("unhandled service error", "error", err)
	return huma.Error500InternalServerError("internal server error")
}

// detail strips the sentinel's own text so clients see only the reason.
func detail(err, sentinel error, fallback string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return fallback
}
