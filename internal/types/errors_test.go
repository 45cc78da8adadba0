package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarbonaraError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CarbonaraError
		want string
	}{
		{
			name: "without cause",
			err:  NewError(TOOL_NOT_FOUND, "tool eslint not found"),
			want: "[TOOL_NOT_FOUND] tool eslint not found",
		},
		{
			name: "with cause",
			err:  WrapError(STATE_OPEN_FAILED, "cannot open state db", errors.New("disk full")),
			want: "[STATE_OPEN_FAILED] cannot open state db: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCarbonaraError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapError(INSTALL_COMMAND_FAILED, "npm install failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestCarbonaraError_Is(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(PREREQ_UNMET, "docker daemon missing"))

	assert.ErrorIs(t, err, NewError(PREREQ_UNMET, "different message"))
	assert.NotErrorIs(t, err, NewError(PARSE_INVALID_PAYLOAD, "other code"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, DETECTION_PROBE_TIMEOUT, CodeOf(NewError(DETECTION_PROBE_TIMEOUT, "probe timed out")))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestNewRetryableError(t *testing.T) {
	err := NewRetryableError(DETECTION_PROBE_TIMEOUT, "probe timed out")
	assert.True(t, err.Retryable)
	assert.False(t, NewError(DETECTION_PROBE_FAILED, "probe failed").Retryable)
}
