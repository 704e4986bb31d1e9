package sessions

import (
	"context"
	"regexp"
	"strconv"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/pkg/process"
	"github.com/grovetools/ludics/pkg/tmux"
	"github.com/grovetools/ludics/util/pathutil"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var ttydPortPattern = regexp.MustCompile(`-p\s+(\d+)|--port\s+(\d+)`)

// ProcessLister enumerates processes by name.
type ProcessLister interface {
	List(ctx context.Context, name string) ([]process.Process, error)
}

// PaneResolver resolves the current path of a tmux session's active pane.
type PaneResolver interface {
	PaneCurrentPath(ctx context.Context, sessionName string) (string, error)
}

// TtydDiscoverer reports ttyd web terminals. When a ttyd process attaches to a
// tmux session, the session's pane path becomes its cwd.
type TtydDiscoverer struct {
	procs ProcessLister
	panes PaneResolver
	cfg   DiscoveryConfig
	log   *logrus.Entry

	lookups singleflight.Group
}

// NewTtydDiscoverer creates a ttyd discoverer. panes may be nil when tmux is
// not installed; every session then has an unknown cwd.
func NewTtydDiscoverer(procs ProcessLister, panes PaneResolver, cfg DiscoveryConfig, log *logrus.Entry) *TtydDiscoverer {
	return &TtydDiscoverer{procs: procs, panes: panes, cfg: cfg.WithDefaults(), log: log}
}

func (d *TtydDiscoverer) Name() models.AgentType { return models.AgentTtyd }

func (d *TtydDiscoverer) Discover(ctx context.Context) ([]models.DiscoveredSession, error) {
	if d.procs == nil {
		return []models.DiscoveredSession{}, nil
	}
	procs, err := d.procs.List(ctx, "ttyd")
	if err != nil {
		d.log.WithError(err).Debug("process listing unavailable")
		return []models.DiscoveredSession{}, nil
	}

	// Pane lookups run concurrently; duplicate targets share one tmux query.
	cwds := make([]string, len(procs))
	var g errgroup.Group
	g.SetLimit(d.cfg.ScanConcurrency)
	for i, p := range procs {
		cwds[i] = UnknownCwd
		target := tmux.AttachTarget(p.Command)
		if target == "" {
			continue
		}
		g.Go(func() error {
			if resolved := d.resolvePane(ctx, target); resolved != "" {
				cwds[i] = resolved
			}
			return nil
		})
	}
	_ = g.Wait()

	now := d.cfg.Now().Unix()
	sessions := make([]models.DiscoveredSession, 0, len(procs))
	for i, p := range procs {
		norm := pathutil.NormalizeCwd(cwds[i])
		sessions = append(sessions, models.DiscoveredSession{
			AgentType:         models.AgentTtyd,
			Cwd:               norm,
			CwdNormalized:     norm,
			SessionID:         "ttyd:" + strconv.Itoa(p.PID),
			Source:            models.SourceWeb,
			LastActivityEpoch: now,
			Meta: models.SessionMeta{
				PID:         p.PID,
				Port:        ParseTtydPort(p.Command),
				TmuxSession: tmux.AttachTarget(p.Command),
				Command:     p.Command,
			},
		})
	}
	return sessions, nil
}

// resolvePane queries tmux once per target even when several ttyd processes
// attach to the same session.
func (d *TtydDiscoverer) resolvePane(ctx context.Context, target string) string {
	if d.panes == nil {
		return ""
	}
	v, err, _ := d.lookups.Do(target, func() (interface{}, error) {
		return d.panes.PaneCurrentPath(ctx, target)
	})
	if err != nil {
		d.log.WithError(err).WithField("tmux_session", target).Debug("could not resolve ttyd pane path")
		return ""
	}
	return v.(string)
}

// ParseTtydPort extracts the -p/--port value from a ttyd command line.
func ParseTtydPort(command string) string {
	m := ttydPortPattern.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
