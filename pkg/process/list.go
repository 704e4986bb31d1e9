package process

import (
	"context"
	"strconv"
	"strings"

	"github.com/grovetools/ludics/command"
)

// Process is one entry from a process listing.
type Process struct {
	PID     int    `json:"pid"`
	Command string `json:"command"`
}

// Lister enumerates running processes by name.
type Lister struct {
	runner command.Runner
}

// NewLister creates a Lister that shells out through runner.
func NewLister(runner command.Runner) *Lister {
	return &Lister{runner: runner}
}

// List returns processes whose command line mentions name. It uses `pgrep -a`
// and falls back to filtering `ps -ax` output when pgrep fails or is missing.
// An error is returned only when both strategies fail.
func (l *Lister) List(ctx context.Context, name string) ([]Process, error) {
	if err := command.ValidateProcessName(name); err != nil {
		return nil, err
	}
	if out, err := l.runner.Output(ctx, "pgrep", "-a", name); err == nil {
		return ParseListing(string(out), name), nil
	}

	out, err := l.runner.Output(ctx, "ps", "-ax", "-o", "pid=,command=")
	if err != nil {
		return nil, err
	}

	var kept []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, name) && !strings.Contains(line, "grep") {
			kept = append(kept, line)
		}
	}
	return ParseListing(strings.Join(kept, "\n"), name), nil
}

// ParseListing parses "<pid> <command...>" lines, keeping those that mention name.
// Runs of whitespace in the command collapse to single spaces.
func ParseListing(out, name string) []Process {
	var procs []Process
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, name) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		procs = append(procs, Process{PID: pid, Command: strings.Join(fields[1:], " ")})
	}
	return procs
}
