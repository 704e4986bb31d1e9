// Package profiling records nested timing spans and CPU profiles for CLI runs.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	profiler *Profiler
}

func (s *span) Stop() {
	s.profiler.endSpan(s, time.Since(s.start))
}

// Profiler collects spans. Spans nest in the order they are started, so it
// times sequential stages; concurrent work should be wrapped in one span.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	stack   []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler.
func Enable() {
	defaultProfiler.enable()
}

// Reset disables the global profiler and drops recorded spans.
func Reset() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	defaultProfiler.enabled = false
	defaultProfiler.root = nil
	defaultProfiler.stack = nil
}

// Start begins a span, typically `defer profiling.Start("stage").Stop()`.
// It is a no-op while the profiler is disabled.
func Start(name string) Stopper {
	return defaultProfiler.startSpan(name)
}

// Summarize writes the span tree to w.
func Summarize(w io.Writer) {
	defaultProfiler.summarize(w)
}

func (p *Profiler) enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}
	p.enabled = true
	p.root = &span{name: "total", start: time.Now(), profiler: p}
	p.stack = []*span{p.root}
}

func (p *Profiler) startSpan(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return noopStopper{}
	}
	parent := p.stack[len(p.stack)-1]
	s := &span{name: name, start: time.Now(), profiler: p}
	parent.children = append(parent.children, s)
	p.stack = append(p.stack, s)
	return s
}

func (p *Profiler) endSpan(s *span, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.duration = d
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == s {
			p.stack = p.stack[:i]
			return
		}
	}
}

func (p *Profiler) summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.root == nil {
		return
	}
	total := time.Since(p.root.start)

	fmt.Fprintln(w, "\n--- timing ---")
	for _, child := range p.root.children {
		printSpan(w, child, 0, total)
	}
	fmt.Fprintf(w, "total %v\n", total.Round(100*time.Microsecond))
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), pct)
	for _, child := range s.children {
		printSpan(w, child, depth+1, total)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
