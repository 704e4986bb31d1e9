package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/grovetools/ludics/command"
	"github.com/grovetools/ludics/logging"
	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/pkg/process"
	"github.com/grovetools/ludics/pkg/profiling"
	"github.com/grovetools/ludics/pkg/tmux"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// generatedLayout is ISO-8601 UTC without fractional seconds.
const generatedLayout = "2006-01-02T15:04:05Z"

// Pipeline runs discovery, enrichment, merging and classification.
type Pipeline struct {
	cfg         DiscoveryConfig
	discoverers []Discoverer
	ignore      *patternmatcher.PatternMatcher
	log         *logrus.Entry
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDiscoverers replaces the default discoverers.
func WithDiscoverers(ds ...Discoverer) Option {
	return func(p *Pipeline) { p.discoverers = ds }
}

// WithLogger sets the pipeline logger.
func WithLogger(log *logrus.Entry) Option {
	return func(p *Pipeline) { p.log = log }
}

// NewPipeline creates a pipeline. Without WithDiscoverers it uses the codex,
// claude-code, tmux and ttyd discoverers against the live system.
func NewPipeline(cfg DiscoveryConfig, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg.WithDefaults()}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.NewLogger("sessions")
	}
	if len(cfg.Ignore) > 0 {
		pm, err := patternmatcher.New(cfg.Ignore)
		if err != nil {
			return nil, fmt.Errorf("invalid sessions.ignore pattern: %w", err)
		}
		p.ignore = pm
	}
	if p.discoverers == nil {
		p.discoverers = DefaultDiscoverers(p.cfg, p.log)
	}
	return p, nil
}

// DefaultDiscoverers builds the four system discoverers in concatenation order.
func DefaultDiscoverers(cfg DiscoveryConfig, log *logrus.Entry) []Discoverer {
	builder := command.NewSafeBuilder().WithDefaultTimeout(cfg.DiscovererTimeout)

	var (
		querier TmuxQuerier
		panes   PaneResolver
	)
	if client, err := tmux.NewClient(cfg.DiscovererTimeout); err == nil {
		querier = client
		panes = client
		if socket := client.Socket(); socket != "" {
			log.WithField("tmux_socket", socket).Debug("using dedicated tmux server")
		}
	} else {
		log.WithError(err).Debug("tmux discovery disabled")
	}

	return []Discoverer{
		NewCodexDiscoverer(cfg, log.WithField("source", models.AgentCodex)),
		NewClaudeDiscoverer(cfg, log.WithField("source", models.AgentClaudeCode)),
		NewTmuxDiscoverer(querier, cfg, log.WithField("source", models.AgentTmux)),
		NewTtydDiscoverer(process.NewLister(builder), panes, cfg, log.WithField("source", models.AgentTtyd)),
	}
}

// Config returns the effective configuration.
func (p *Pipeline) Config() DiscoveryConfig {
	return p.cfg
}

type discoverOutcome struct {
	sessions []models.DiscoveredSession
	err      error
}

// Discover runs every enabled discoverer concurrently, each under its own
// timeout. A failing or hung discoverer contributes nothing. Results are
// concatenated in discoverer order.
func (p *Pipeline) Discover(ctx context.Context) []models.DiscoveredSession {
	results := make([][]models.DiscoveredSession, len(p.discoverers))

	var g errgroup.Group
	for i, d := range p.discoverers {
		if p.cfg.IsDisabled(d.Name()) {
			p.log.WithField("source", d.Name()).Debug("discoverer disabled")
			continue
		}
		g.Go(func() error {
			results[i] = p.runDiscoverer(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	var all []models.DiscoveredSession
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (p *Pipeline) runDiscoverer(ctx context.Context, d Discoverer) []models.DiscoveredSession {
	dctx, cancel := context.WithTimeout(ctx, p.cfg.DiscovererTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan discoverOutcome, 1)
	go func() {
		s, err := d.Discover(dctx)
		done <- discoverOutcome{sessions: s, err: err}
	}()

	log := p.log.WithField("source", d.Name())
	select {
	case out := <-done:
		if out.err != nil {
			log.WithError(out.err).Warn("discoverer failed")
			return nil
		}
		log.WithFields(logrus.Fields{
			"count":    len(out.sessions),
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("discoverer finished")
		return out.sessions
	case <-dctx.Done():
		log.WithField("timeout", p.cfg.DiscovererTimeout).Warn("discoverer timed out")
		return nil
	}
}

// filterIgnored drops sessions whose cwd matches a sessions.ignore pattern.
func (p *Pipeline) filterIgnored(sessions []models.DiscoveredSession) []models.DiscoveredSession {
	if p.ignore == nil {
		return sessions
	}
	kept := sessions[:0:0]
	for _, s := range sessions {
		if s.Cwd != UnknownCwd {
			matched, err := p.ignore.MatchesOrParentMatches(s.CwdNormalized)
			if err == nil && matched {
				p.log.WithField("cwd", s.CwdNormalized).Debug("ignoring session")
				continue
			}
		}
		kept = append(kept, s)
	}
	return kept
}

// Run performs one full discovery pass.
func (p *Pipeline) Run(ctx context.Context) (*models.DiscoveryResult, error) {
	defer profiling.Start("sessions.run").Stop()

	span := profiling.Start("discover")
	raw := p.filterIgnored(p.Discover(ctx))
	span.Stop()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span = profiling.Start("enrich")
	cache := EnrichWithOrchestration(raw, p.cfg.MarkerDir)
	span.Stop()

	now := p.cfg.Now()
	span = profiling.Start("merge")
	merged := DeduplicateAndMerge(raw, cache, p.cfg.StaleThreshold, now)
	span.Stop()

	span = profiling.Start("classify")
	classes := ClassifySessions(merged, p.cfg.SlotPaths)
	span.Stop()

	sources := make(map[models.AgentType]int)
	for _, s := range raw {
		sources[s.AgentType]++
	}

	p.log.WithFields(logrus.Fields{
		"raw":          len(raw),
		"merged":       len(merged),
		"classified":   len(classes.Classified),
		"orchestrated": cache.Len(),
	}).Debug("discovery pass complete")

	return &models.DiscoveryResult{
		GeneratedAt:     now.UTC().Format(generatedLayout),
		StaleAfterHours: p.cfg.StaleThreshold.Hours(),
		Sources:         sources,
		Slots:           p.cfg.SlotPaths,
		Classified:      classes.Classified,
		Unclassified:    classes.Unclassified,
	}, nil
}
