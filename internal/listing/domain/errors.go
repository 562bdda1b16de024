package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the listing core. Coordinators wrap these sentinels
// with fmt.Errorf("%w: ..."); the HTTP boundary maps each class to a status
// code with errors.Is.
var (
	ErrValidation      = errors.New("invalid input")
	ErrListingNotFound = errors.New("offer not found")
	ErrUpstream        = errors.New("upstream dependency failed")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Upstreamf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstream, fmt.Sprintf(format, args...))
}
