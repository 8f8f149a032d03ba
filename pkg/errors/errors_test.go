package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = New(ErrConflict, "SAMPLE", "sample conflict")

func TestAppErrorIsMatchesByReason(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", errSample.Wrap(errors.New("db down")))
	assert.True(t, errors.Is(wrapped, errSample))

	detailed := errSample.WithMessage("sample conflict on %s", "x")
	assert.True(t, errors.Is(detailed, errSample))
	assert.Equal(t, "sample conflict on x", detailed.Message)
	assert.Equal(t, "sample conflict", errSample.Message)

	other := New(ErrConflict, "OTHER", "other")
	assert.False(t, errors.Is(other, errSample))
}

func TestAppErrorUnwrapAndAs(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("ctx: %w", NewInternal(cause))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, ErrInternal, appErr.Code)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "internal server error: boom", appErr.Error())

	_, ok = As(cause)
	assert.False(t, ok)
}
