package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grovetools/ludics/cli"
	"github.com/grovetools/ludics/config"
	"github.com/grovetools/ludics/errors"
	"github.com/grovetools/ludics/logging"
	"github.com/grovetools/ludics/pkg/models"
	"github.com/grovetools/ludics/pkg/sessions"
	"github.com/grovetools/ludics/pkg/slots"
	"github.com/grovetools/ludics/schema"
	"github.com/grovetools/ludics/tui/sessionsview"
	"github.com/grovetools/ludics/tui/theme"
	"github.com/grovetools/ludics/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// pipelineOptions are appended to every pipeline the sessions commands build.
var pipelineOptions []sessions.Option

// sessionsEnv is the resolved input of one sessions command.
type sessionsEnv struct {
	cfg       *config.Config
	discovery sessions.DiscoveryConfig
	log       *logrus.Entry
}

// loadSessionsEnv loads config and slot paths. Without a config file the
// pipeline runs on defaults unless requireConfig is set.
func loadSessionsEnv(cmd *cobra.Command, requireConfig bool) (*sessionsEnv, error) {
	log := cli.GetLogger(cmd)

	cfg, err := cli.LoadConfig(cmd)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrCodeConfigNotFound) && !requireConfig:
		log.WithError(err).Debug("no config file, using defaults")
		cfg = &config.Config{}
		cfg.SetDefaults()
		cfg.ApplyEnv()
	default:
		return nil, err
	}

	slotPaths := []models.SlotPath{}
	if cfg.Path() != "" {
		slotsFile, err := cfg.SlotsFilePath()
		if err != nil {
			return nil, err
		}
		if slotPaths, err = slots.ExtractSlotPaths(slotsFile); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read slots file").
				WithDetail("path", slotsFile)
		}
		log.WithField("slots", len(slotPaths)).Debugf("read slot paths from %s", slotsFile)
	}

	discovery, err := discoveryConfig(cfg, slotPaths)
	if err != nil {
		return nil, err
	}
	return &sessionsEnv{cfg: cfg, discovery: discovery, log: log}, nil
}

// discoveryConfig maps the loaded config onto the pipeline's explicit input.
func discoveryConfig(cfg *config.Config, slotPaths []models.SlotPath) (sessions.DiscoveryConfig, error) {
	codexHome, err := expandOptional(cfg.Sessions.CodexHome)
	if err != nil {
		return sessions.DiscoveryConfig{}, errors.ConfigInvalid("cannot expand sessions.codex_home").WithDetail("field", "sessions.codex_home")
	}
	claudeDir, err := expandOptional(cfg.Sessions.ClaudeProjectsDir)
	if err != nil {
		return sessions.DiscoveryConfig{}, errors.ConfigInvalid("cannot expand sessions.claude_projects_dir").WithDetail("field", "sessions.claude_projects_dir")
	}

	disabled := make([]models.AgentType, 0, len(cfg.Sessions.DisabledSources))
	for _, s := range cfg.Sessions.DisabledSources {
		disabled = append(disabled, models.AgentType(s))
	}

	return sessions.DiscoveryConfig{
		StaleThreshold:    cfg.StaleThreshold(),
		SlotPaths:         slotPaths,
		CodexHome:         codexHome,
		ClaudeProjectsDir: claudeDir,
		DiscovererTimeout: cfg.DiscovererTimeout(),
		Ignore:            cfg.Sessions.Ignore,
		Disabled:          disabled,
	}.WithDefaults(), nil
}

// expandOptional expands ~ and env vars; empty stays empty so defaults apply.
func expandOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return pathutil.Expand(path)
}

func (e *sessionsEnv) pipeline() (*sessions.Pipeline, error) {
	opts := append([]sessions.Option{sessions.WithLogger(logging.NewLogger("sessions"))}, pipelineOptions...)
	p, err := sessions.NewPipeline(e.discovery, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid sessions.ignore pattern").
			WithDetail("field", "sessions.ignore")
	}
	return p, nil
}

func (e *sessionsEnv) run(ctx context.Context) (*models.DiscoveryResult, error) {
	p, err := e.pipeline()
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func (e *sessionsEnv) reportPath() (string, error) {
	return e.cfg.SessionsReportPath()
}

// NewSessionsCmd creates the `sessions` command.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Discover, merge and classify running agent sessions",
		Long: `Discovers agent sessions from Codex and Claude Code logs, tmux panes and
ttyd processes, merges them per working directory and matches them against
the slot paths in the harness slots.md.

Without a subcommand a detailed summary is printed.

Examples:
  # Summary of classified and unclassified sessions
  ludics sessions

  # Write sessions.md and sessions.json into the harness directory
  ludics sessions report

  # Details for sessions whose cwd or id contains "auth"
  ludics sessions show auth

  # Full result as JSON
  ludics sessions --json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.InvalidInput(fmt.Sprintf(
					"unknown sessions subcommand: %s (use: report, refresh, show [filter], or omit for summary; add --json for JSON output)",
					args[0]))
			}
			env, err := loadSessionsEnv(cmd, false)
			if err != nil {
				return err
			}
			result, err := env.run(cmd.Context())
			if err != nil {
				return err
			}
			printer := sessions.NewPrinter(cmd.OutOrStdout())
			if cli.GetOptions(cmd).JSONOutput {
				return printer.PrintJSON(result)
			}
			printer.PrintDetailedSummary(result)
			return nil
		},
	}

	cli.SetStyledHelpWithExtras(cmd, sessionsHelpFiles)
	cmd.AddCommand(
		newSessionsReportCmd(),
		newSessionsRefreshCmd(),
		newSessionsShowCmd(),
		newSessionsWatchCmd(),
		newSessionsSchemaCmd(),
		newSessionsTUICmd(),
	)
	return cmd
}

// sessionsHelpFiles lists the files `report`, `refresh` and `watch` write.
func sessionsHelpFiles(w io.Writer, t *theme.Theme) {
	fmt.Fprintln(w, "\n "+t.Italic.Foreground(t.Colors.Orange).Render("FILES"))
	fmt.Fprintln(w, " "+t.Path.Render("<harness>/sessions.md")+"    markdown report")
	fmt.Fprintln(w, " "+t.Path.Render("<harness>/sessions.json")+"  result without per-source detail")
	fmt.Fprintln(w, " "+t.Muted.Render("Run 'ludics paths' to see the harness directory."))
}

// writeSessionsReport runs the pipeline and writes both report files.
func writeSessionsReport(cmd *cobra.Command) (*models.DiscoveryResult, string, string, error) {
	env, err := loadSessionsEnv(cmd, true)
	if err != nil {
		return nil, "", "", err
	}
	reportPath, err := env.reportPath()
	if err != nil {
		return nil, "", "", err
	}
	result, err := env.run(cmd.Context())
	if err != nil {
		return nil, "", "", err
	}
	jsonPath, err := sessions.WriteReport(reportPath, result, env.discovery.Now())
	if err != nil {
		return nil, "", "", err
	}
	env.log.WithFields(logrus.Fields{
		"classified":   len(result.Classified),
		"unclassified": len(result.Unclassified),
	}).Infof("sessions report written to %s", reportPath)
	return result, reportPath, jsonPath, nil
}

func newSessionsReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Write sessions.md and sessions.json to the harness directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, reportPath, jsonPath, err := writeSessionsReport(cmd)
			if err != nil {
				return err
			}
			printer := sessions.NewPrinter(cmd.OutOrStdout())
			if cli.GetOptions(cmd).JSONOutput {
				return printer.PrintJSON(result)
			}
			printer.PrintSummary(result)
			fmt.Fprintf(cmd.ErrOrStderr(), "ludics: sessions report written to %s\n", reportPath)
			fmt.Fprintf(cmd.ErrOrStderr(), "ludics: sessions JSON written to %s\n", jsonPath)
			fmt.Fprintln(cmd.OutOrStdout(), reportPath)
			return nil
		},
	}
}

func newSessionsRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-run discovery and rewrite the sessions report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, _, err := writeSessionsReport(cmd)
			if err != nil {
				return err
			}
			printer := sessions.NewPrinter(cmd.OutOrStdout())
			if cli.GetOptions(cmd).JSONOutput {
				return printer.PrintJSON(result)
			}
			printer.PrintSummary(result)
			fmt.Fprintln(cmd.ErrOrStderr(), "ludics: sessions refreshed")
			return nil
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [filter]",
		Short: "Show every session, or those whose cwd or id contains filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSessionsEnv(cmd, false)
			if err != nil {
				return err
			}
			result, err := env.run(cmd.Context())
			if err != nil {
				return err
			}
			printer := sessions.NewPrinter(cmd.OutOrStdout())
			if cli.GetOptions(cmd).JSONOutput {
				return printer.PrintJSON(result)
			}
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			printer.WithWidth(terminalWidth()).PrintShow(result, filter)
			return nil
		},
	}
}

func newSessionsWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rewrite the sessions report whenever agent logs change",
		Long: `Runs discovery once, then again whenever a Codex or Claude Code log changes
and on a fixed interval, rewriting sessions.md and sessions.json each time.
Stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadSessionsEnv(cmd, true)
			if err != nil {
				return err
			}
			reportPath, err := env.reportPath()
			if err != nil {
				return err
			}
			p, err := env.pipeline()
			if err != nil {
				return err
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
			jsonOut := cli.GetOptions(cmd).JSONOutput
			printer := sessions.NewPrinter(cmd.OutOrStdout())

			w, err := sessions.NewWatcher(p, interval, debounce, func(result *models.DiscoveryResult, err error) {
				if err != nil {
					env.log.WithError(err).Warn("sessions pass failed")
					pretty.WarnPretty(fmt.Sprintf("sessions pass failed: %v", err))
					return
				}
				if _, err := sessions.WriteReport(reportPath, result, env.discovery.Now()); err != nil {
					pretty.ErrorPretty("report write failed", err)
					return
				}
				if jsonOut {
					_ = printer.PrintJSON(result)
					return
				}
				pretty.Success(fmt.Sprintf("%d classified, %d unclassified", len(result.Classified), len(result.Unclassified)))
			})
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to start file watcher")
			}

			watched := w.Watched()
			for _, dir := range watched {
				env.log.Debugf("watching %s", dir)
			}
			pretty.Path("Report", reportPath)
			pretty.Field("Watching", fmt.Sprintf("%d directories", len(watched)))
			pretty.Field("Interval", interval)
			pretty.Divider()
			pretty.InfoPretty("Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Rerun interval for tmux and ttyd changes (0 disables)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period after a log change before rerunning")
	return cmd
}

func newSessionsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of sessions.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.GenerateResultSchema()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to generate sessions schema")
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(data), "\n"))
			return nil
		},
	}
}

func newSessionsTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse sessions in an interactive table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.InvalidInput("sessions tui needs an interactive terminal; use 'ludics sessions show' instead")
			}
			env, err := loadSessionsEnv(cmd, false)
			if err != nil {
				return err
			}
			p, err := env.pipeline()
			if err != nil {
				return err
			}
			return sessionsview.Run(cmd.Context(), p.Run)
		},
	}
}

// terminalWidth is the stdout width, or 0 when stdout is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}
