// Package apperr holds the error taxonomy shared by the model builders and the fee allocator.
package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks a missing or out-of-range input. It is never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgument returns an error wrapping ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsInvalidArgument reports whether err (or anything it wraps) is ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
