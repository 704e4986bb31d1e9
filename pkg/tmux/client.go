package tmux

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grovetools/ludics/command"
	"github.com/grovetools/ludics/errors"
)

// Client runs tmux queries against the default server or a named socket.
type Client struct {
	runner command.Runner
	socket string // Socket name for a dedicated tmux server (uses -L flag)
}

// NewClient returns a client for the user's tmux server. It fails with
// TOOL_UNAVAILABLE when tmux is not on PATH and INVALID_INPUT when
// LUDICS_TMUX_SOCKET is not a plain socket name. Each tmux query is bounded
// by timeout.
func NewClient(timeout time.Duration) (*Client, error) {
	builder := command.NewSafeBuilder().WithDefaultTimeout(timeout)
	if _, err := builder.LookPath("tmux"); err != nil {
		return nil, errors.ToolUnavailable("tmux", err)
	}

	// LUDICS_TMUX_SOCKET points discovery at an isolated server
	socket := os.Getenv("LUDICS_TMUX_SOCKET")
	if socket != "" {
		if err := builder.Validate("socketName", socket); err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("LUDICS_TMUX_SOCKET: %v", err))
		}
	}
	return &Client{runner: builder, socket: socket}, nil
}

// NewClientWithRunner creates a client over an arbitrary command runner.
func NewClientWithRunner(runner command.Runner, socket string) *Client {
	return &Client{runner: runner, socket: socket}
}

// Socket returns the socket name this client uses, or empty string for default.
func (c *Client) Socket() string {
	return c.socket
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if c.socket != "" {
		args = append([]string{"-L", c.socket}, args...)
	}

	output, err := c.runner.Output(ctx, "tmux", args...)
	if err != nil {
		return string(output), err
	}
	return string(output), nil
}

// IsNoServer reports whether err came from tmux having no running server.
func IsNoServer(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	var ludicsErr *errors.LudicsError
	for e := err; e != nil; {
		if le, ok := e.(*errors.LudicsError); ok {
			ludicsErr = le
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	if ludicsErr != nil {
		if stderr, ok := ludicsErr.Details["stderr"].(string); ok {
			msg += " " + stderr
		}
	}
	return strings.Contains(msg, "no server running") || strings.Contains(msg, "error connecting to")
}
