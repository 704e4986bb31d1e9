package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/grovetools/ludics/errors"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 5 * time.Second

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 2 * time.Minute
)

var (
	processNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Runner runs a command and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SafeBuilder provides validated, time-bounded command execution
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// WithDefaultTimeout returns the builder with a different per-command timeout.
func (sb *SafeBuilder) WithDefaultTimeout(timeout time.Duration) *SafeBuilder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	sb.defaultTimeout = timeout
	return sb
}

// Timeout returns the per-command timeout applied when none is set.
func (sb *SafeBuilder) Timeout() time.Duration {
	return sb.defaultTimeout
}

func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"tmuxTarget":  ValidateTmuxTarget,
		"processName": ValidateProcessName,
		"socketName":  ValidateProcessName,
	}
}

// ValidateTmuxTarget ensures a session name is safe to pass to tmux -t.
// Arguments never reach a shell, so any printable name is accepted; only a
// leading '-' (read as a flag) and control characters are refused.
func ValidateTmuxTarget(name string) error {
	if name == "" {
		return fmt.Errorf("tmux target cannot be empty")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid tmux target %q: leading '-'", name)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("invalid tmux target %q: control character", name)
	}
	return nil
}

// ValidateProcessName ensures a name is safe for pgrep and tmux -L.
func ValidateProcessName(name string) error {
	if name == "" {
		return fmt.Errorf("process name cannot be empty")
	}
	if !processNamePattern.MatchString(name) {
		return fmt.Errorf("invalid process name: %s", name)
	}
	return nil
}

// Command represents a safe command configuration
type Command struct {
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command bounded by the builder's default timeout.
// The caller must call Close (or Output, which closes) to release the timer.
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, sb.defaultTimeout)

	return &Command{
		ctx:      timeoutCtx,
		cancel:   cancel,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Output builds, runs and closes a command, returning its stdout.
func (sb *SafeBuilder) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd, err := sb.Build(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	defer cmd.Close()
	return cmd.Output()
}

// Exec creates and returns an exec.Cmd
func (c *Command) Exec() *exec.Cmd {
	return c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
}

// Output runs the command and returns stdout. Failures are coded errors
// carrying stderr, the exit code, or the timeout.
func (c *Command) Output() ([]byte, error) {
	cmd := c.Exec()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if c.ctx.Err() != nil {
			err = c.ctx.Err()
		}
		ludicsErr := errors.CommandFailed(c.String(), err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			ludicsErr = ludicsErr.WithDetail("stderr", msg)
		}
		return out, ludicsErr
	}
	return out, nil
}

// Close releases the command's timeout context.
func (c *Command) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// String renders the command line for logs and errors.
func (c *Command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// LookPath resolves a binary through the builder's executor.
func (sb *SafeBuilder) LookPath(file string) (string, error) {
	return sb.executor.LookPath(file)
}
