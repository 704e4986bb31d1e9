package command

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/grovetools/ludics/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTmuxTarget(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "work", false},
		{"with dash and digits", "slot-3", false},
		{"with window index", "work:1", false},
		{"non-ascii", "café", false},
		{"hash", "a#b", false},
		{"shell metachar is inert", "work;rm -rf", false},
		{"empty", "", true},
		{"leading dash", "-t", true},
		{"newline", "a\nb", true},
		{"escape", "a\x1bb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTmuxTarget(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateTmuxTarget(%q) error = %v", tt.input, err)
		})
	}
}

func TestValidateProcessName(t *testing.T) {
	assert.NoError(t, ValidateProcessName("ttyd"))
	assert.Error(t, ValidateProcessName(""))
	assert.Error(t, ValidateProcessName("ttyd|grep"))
}

func TestSafeBuilderValidate(t *testing.T) {
	sb := NewSafeBuilder()
	assert.NoError(t, sb.Validate("tmuxTarget", "work"))
	assert.Error(t, sb.Validate("unknown", "x"))
}

func TestBuildRejectsEmptyName(t *testing.T) {
	_, err := NewSafeBuilder().Build(context.Background(), "")
	assert.Error(t, err)
}

func TestWithDefaultTimeoutClamps(t *testing.T) {
	sb := NewSafeBuilder().WithDefaultTimeout(time.Hour)
	assert.Equal(t, MaxTimeout, sb.defaultTimeout)
	sb.WithDefaultTimeout(0)
	assert.Equal(t, DefaultTimeout, sb.defaultTimeout)
	sb.WithDefaultTimeout(2 * time.Second)
	assert.Equal(t, 2*time.Second, sb.Timeout())
}

func TestOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	sb := NewSafeBuilder()

	t.Run("stdout is returned", func(t *testing.T) {
		out, err := sb.Output(context.Background(), "sh", "-c", "echo hello")
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(out))
	})

	t.Run("failure carries exit code and stderr", func(t *testing.T) {
		_, err := sb.Output(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))

		var ludicsErr *errors.LudicsError
		require.ErrorAs(t, err, &ludicsErr)
		assert.Equal(t, 3, ludicsErr.Details["exitCode"])
		assert.Equal(t, "oops", ludicsErr.Details["stderr"])
	})

	t.Run("timeout is reported", func(t *testing.T) {
		short := NewSafeBuilder().WithDefaultTimeout(50 * time.Millisecond)
		_, err := short.Output(context.Background(), "sh", "-c", "exec sleep 5")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeCommandTimeout))
	})
}
