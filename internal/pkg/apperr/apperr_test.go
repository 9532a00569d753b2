package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMatchesInvalidArgument(t *testing.T) {
	err := NewValidationError(map[string]string{"title": "This field is required"})
	wrapped := fmt.Errorf("card: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInvalidArgument))
	assert.Equal(t, map[string]string{"title": "This field is required"}, Fields(wrapped))
}

func TestNewValidationErrorEmpty(t *testing.T) {
	assert.Nil(t, NewValidationError(nil))
	assert.Nil(t, NewValidationError(map[string]string{}))
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := NewValidationError(map[string]string{"b": "two", "a": "one"})
	assert.Equal(t, "invalid argument: a: one; b: two", err.Error())
}

func TestFieldsWithoutDetails(t *testing.T) {
	assert.Nil(t, Fields(ErrNotFound))
}
