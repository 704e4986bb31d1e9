package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ludics/cli"
	"github.com/grovetools/ludics/config"
	"github.com/grovetools/ludics/logging"
	"github.com/grovetools/ludics/pkg/paths"
	"github.com/grovetools/ludics/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// logsOptions controls how a log file is streamed.
type logsOptions struct {
	follow bool
	// lines is how many trailing lines to print first; negative prints all.
	lines int
	json  bool
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	var opts logsOptions
	cmd := &cobra.Command{
		Use:   "logs [component]",
		Short: "Print or follow the ludics log file",
		Long: `Prints the most recent ludics log file. With a component name only that
component's log is considered (for example "sessions" or "ludics").

Examples:
  # Follow the sessions log
  ludics logs sessions -f

  # Last 50 lines of the newest log as JSON lines
  ludics logs --tail 50 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			component := ""
			if len(args) == 1 {
				component = args[0]
			}
			opts.json = cli.GetOptions(cmd).JSONOutput

			path, err := resolveLogFile(component)
			if err != nil {
				return err
			}
			cli.GetLogger(cmd).Debugf("reading %s", path)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return streamLog(ctx, path, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVar(&opts.lines, "tail", -1, "Number of lines to show from the end of the log (-1 for all)")
	return cmd
}

// resolveLogFile picks the configured log file, else the newest one in the logs dir.
func resolveLogFile(component string) (string, error) {
	var logCfg logging.Config
	if cfg, err := config.LoadDefault(); err == nil {
		_ = cfg.UnmarshalExtension("logging", &logCfg)
	}
	if logCfg.File.Enabled && logCfg.File.Path != "" {
		return logging.LogFilePath(component, logCfg, time.Now()), nil
	}
	return logging.FindLatestLogFile(paths.LogsDir(), component)
}

// streamLog prints the tail of path and, when following, every line appended
// afterwards until ctx is done.
func streamLog(ctx context.Context, path string, opts logsOptions, w io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if opts.lines != 0 {
		t, err := tail.TailFile(path, tail.Config{
			MustExist: true,
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			return err
		}
		var buffered []string
		for line := range t.Lines {
			if line.Err != nil {
				continue
			}
			buffered = append(buffered, line.Text)
			if opts.lines > 0 && len(buffered) > opts.lines {
				buffered = buffered[1:]
			}
		}
		for _, line := range buffered {
			printLogLine(w, line, opts.json)
		}
	}

	if !opts.follow {
		return nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: info.Size(), Whence: io.SeekStart},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err == nil {
				printLogLine(w, line.Text, opts.json)
			}
		}
	}
}

// printLogLine renders one log line. JSON-formatted logs are pretty-printed
// for humans; with asJSON every line is emitted as a JSON object.
func printLogLine(w io.Writer, line string, asJSON bool) {
	if strings.TrimSpace(line) == "" {
		return
	}
	var entry map[string]interface{}
	parsed := json.Unmarshal([]byte(line), &entry) == nil

	if asJSON {
		if !parsed {
			entry = map[string]interface{}{"raw_line": line}
		}
		data, _ := json.Marshal(entry)
		fmt.Fprintln(w, string(data))
		return
	}
	if !parsed {
		fmt.Fprintln(w, line)
		return
	}

	t := theme.DefaultTheme
	ts, _ := entry["time"].(string)
	level, _ := entry["level"].(string)
	msg, _ := entry["msg"].(string)
	component, _ := entry["component"].(string)

	timeStr := ts
	if parsedTime, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		timeStr = parsedTime.Format("15:04:05")
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "warning":
		levelStyle = t.Warning
	case "info":
		levelStyle = t.Info
	default:
		levelStyle = t.Muted
	}

	var keys []string
	for k := range entry {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", t.Muted.Render(k), entry[k]))
	}

	fmt.Fprintf(w, "%s %s [%s] %s %s\n",
		timeStr,
		levelStyle.Render(strings.ToUpper(level)),
		t.Accent.Render(component),
		msg,
		strings.Join(fields, " "),
	)
}
