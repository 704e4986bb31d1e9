package logging

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/ludics/tui/theme"
	"github.com/sirupsen/logrus"
)

// TextFormatter renders entries as one human-readable line:
//
//	2026-03-14 12:00:00 [WARN] [sessions] discoverer timed out source=ttyd error="..."
type TextFormatter struct {
	Config FormatConfig
}

// Format implements logrus.Formatter.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder

	if !f.Config.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString("[" + levelLabel(entry.Level) + "]")

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		fmt.Fprintf(&b, " [%s]", theme.DefaultTheme.Accent.Render(fmt.Sprint(component)))
	}
	if entry.HasCaller() {
		fmt.Fprintf(&b, " [%s:%d %s]",
			filepath.Base(entry.Caller.File), entry.Caller.Line, filepath.Base(entry.Caller.Function))
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	for _, key := range fieldKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%s", key, fieldValue(entry.Data[key]))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func levelLabel(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(level.String())
}

// fieldKeys sorts the entry's fields, dropping component and moving the
// error field to the end.
func fieldKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	hasErr := false
	for key := range data {
		switch key {
		case "component":
		case logrus.ErrorKey:
			hasErr = true
		default:
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if hasErr {
		keys = append(keys, logrus.ErrorKey)
	}
	return keys
}

func fieldValue(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
