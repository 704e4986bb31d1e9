package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/ludics/config"
	"github.com/grovetools/ludics/pkg/paths"
	"github.com/grovetools/ludics/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	if cfg, err := config.LoadDefault(); err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := newLogger(component, logCfg, os.Stderr).WithField("component", component)
	loggers[component] = entry
	return entry
}

func newLogger(component string, logCfg Config, stderr *os.File) *logrus.Logger {
	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("LUDICS_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("LUDICS_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	var writers []io.Writer

	logFilePath := LogFilePath(component, logCfg, time.Now())
	if logFilePath != "" {
		dir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			if logCfg.File.Enabled {
				logger.Warnf("Failed to create log directory %s: %v", dir, err)
			}
		} else if file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			writers = append(writers, file)
		} else if logCfg.File.Enabled {
			logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		}
	}

	if shouldLogToStderr(logCfg.Format.StructuredToStderr, logger.GetLevel(), stderr) {
		writers = append(writers, stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger
}

// shouldLogToStderr applies the structured_to_stderr mode. In "auto" mode
// logs reach stderr only when debugging or when stderr is not a terminal.
func shouldLogToStderr(mode string, level logrus.Level, stderr *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		isDebug := os.Getenv("LUDICS_DEBUG") == "1" || level >= logrus.DebugLevel
		fd := stderr.Fd()
		isInteractive := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		return isDebug || !isInteractive
	}
}

// LogFilePath returns where a component logs on the given day. An explicitly
// configured file wins over the per-component default under the state dir.
func LogFilePath(component string, logCfg Config, day time.Time) string {
	if logCfg.File.Enabled && logCfg.File.Path != "" {
		if expanded, err := pathutil.Expand(logCfg.File.Path); err == nil {
			return expanded
		}
		return logCfg.File.Path
	}
	dir := paths.LogsDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, day.Format("2006-01-02")))
}
