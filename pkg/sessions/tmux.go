package sessions

import (
	"context"

	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/pkg/tmux"
	"github.com/grovetools/ludics/util/pathutil"
	"github.com/sirupsen/logrus"
)

// TmuxQuerier is the slice of the tmux client the tmux discoverer needs.
type TmuxQuerier interface {
	ListPanes(ctx context.Context) ([]tmux.Pane, error)
	ListSessions(ctx context.Context) ([]tmux.SessionInfo, error)
}

// TmuxDiscoverer reports one session per tmux session, located at its active pane.
type TmuxDiscoverer struct {
	client TmuxQuerier
	cfg    DiscoveryConfig
	log    *logrus.Entry
}

// NewTmuxDiscoverer creates a tmux discoverer. A nil client means tmux is not
// installed and discovery yields nothing.
func NewTmuxDiscoverer(client TmuxQuerier, cfg DiscoveryConfig, log *logrus.Entry) *TmuxDiscoverer {
	return &TmuxDiscoverer{client: client, cfg: cfg.WithDefaults(), log: log}
}

func (d *TmuxDiscoverer) Name() models.AgentType { return models.AgentTmux }

func (d *TmuxDiscoverer) Discover(ctx context.Context) ([]models.DiscoveredSession, error) {
	if d.client == nil {
		d.log.Debug("tmux not available")
		return []models.DiscoveredSession{}, nil
	}

	panes, err := d.client.ListPanes(ctx)
	if err != nil {
		if tmux.IsNoServer(err) {
			d.log.Debug("tmux server not running")
			return []models.DiscoveredSession{}, nil
		}
		return nil, err
	}

	var order []string
	paths := make(map[string]string)
	for _, p := range panes {
		if p.SessionName == "" || p.CurrentPath == "" {
			continue
		}
		if _, seen := paths[p.SessionName]; !seen {
			order = append(order, p.SessionName)
			paths[p.SessionName] = p.CurrentPath
		} else if p.Active {
			paths[p.SessionName] = p.CurrentPath
		}
	}

	now := d.cfg.Now().Unix()
	attached := make(map[string]int64)
	if infos, err := d.client.ListSessions(ctx); err != nil {
		d.log.WithError(err).Debug("tmux list-sessions failed, using current time")
	} else {
		for _, info := range infos {
			attached[info.Name] = info.LastAttached
		}
	}

	sessions := make([]models.DiscoveredSession, 0, len(order))
	for _, name := range order {
		epoch := attached[name]
		if epoch == 0 {
			epoch = now
		}
		norm := pathutil.NormalizeCwd(paths[name])
		sessions = append(sessions, models.DiscoveredSession{
			AgentType:         models.AgentTmux,
			Cwd:               norm,
			CwdNormalized:     norm,
			SessionID:         "tmux:" + name,
			Source:            models.SourceCLI,
			LastActivityEpoch: epoch,
			Meta:              models.SessionMeta{TmuxSession: name},
		})
	}
	return sessions, nil
}
