// Package apperr holds the error kinds shared by the economy domains.
// Domain packages wrap these sentinels so callers can branch with errors.Is
// without importing each other.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEditionSoldOut    = errors.New("edition sold out")
	ErrEditionExpired    = errors.New("edition expired")
	ErrNotTradable       = errors.New("not tradable")
	ErrNotForSale        = errors.New("not for sale")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// ValidationError carries per-field messages and matches ErrInvalidArgument.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid argument: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// Fields extracts field details from err, if it carries any.
func Fields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
