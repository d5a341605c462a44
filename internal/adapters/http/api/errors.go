package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrMissingTotem = errors.New("missing totem_id")
)

// wrap annotates an error with the operation that produced it.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
