package services

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation errors are rejected before any mutation and map
// to 4xx; not-found covers records absent or not owned by the caller.
// Anything else bubbling out of a store is a dependency failure (5xx), never
// retried here. Soft failures (e.g. no cadence projection) are not errors.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
