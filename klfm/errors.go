package klfm

import "fmt"

// errValidation wraps ErrBadOptions with a formatted reason.
func errValidation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadOptions, fmt.Sprintf(format, args...))
}

// errResources wraps ErrResourceMismatch naming the offending field.
func errResources(field string, want int) error {
	return fmt.Errorf("%w: %s must have %d entries", ErrResourceMismatch, field, want)
}
