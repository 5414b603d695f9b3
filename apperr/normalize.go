package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Normalize converts any value, typically an error or a recovered panic,
// into an *Error. Values that already carry an *Error in their chain are
// returned as that *Error. Nil yields nil.
func Normalize(v any) *Error {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case *Error:
		return val
	case error:
		return normalizeError(val)
	case string:
		return &Error{Code: ErrCodeUnknown, Message: val}
	case fmt.Stringer:
		return &Error{Code: ErrCodeUnknown, Message: val.String()}
	default:
		return &Error{Code: ErrCodeUnknown, Message: fmt.Sprintf("%v", val)}
	}
}

func normalizeError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout("operation", err)
	case errors.Is(err, context.Canceled):
		return New(ErrCodeCanceled, "operation canceled", err)
	}

	return &Error{
		Code:        ErrCodeUnknown,
		Message:     "unexpected error",
		Cause:       err,
		Recoverable: IsTransient(err),
	}
}
