package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorNil(t *testing.T) {
	assert.Nil(t, NewError(nil, UsageExitCode))

	var e *ExitCodeError
	assert.Equal(t, ExitCode(0), e.GetExitCode())
}

func TestExitCodeErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := NewError(fmt.Errorf("wrapped: %w", base), CommandTimeoutExitCode)

	assert.Equal(t, CommandTimeoutExitCode, err.GetExitCode())
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, "wrapped: boom", err.Error())

	var target *ExitCodeError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &target))
	assert.Equal(t, CommandTimeoutExitCode, target.GetExitCode())
}

func TestNewErrorf(t *testing.T) {
	err := NewErrorf(MismatchExitCode, "snapshot %s does not match", "t.snapshot")
	assert.Equal(t, MismatchExitCode, err.GetExitCode())
	assert.Equal(t, "snapshot t.snapshot does not match", err.Error())
}
