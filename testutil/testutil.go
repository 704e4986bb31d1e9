// Package testutil builds on-disk fixtures for session discovery tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// WriteJSONL writes one JSON line per record to path and sets its mtime.
// Strings are written verbatim so tests can include malformed lines.
func WriteJSONL(t *testing.T, path string, mtime time.Time, records ...interface{}) {
	t.Helper()

	var b strings.Builder
	for _, r := range records {
		if s, ok := r.(string); ok {
			b.WriteString(s)
		} else {
			data, err := json.Marshal(r)
			require.NoError(t, err)
			b.Write(data)
		}
		b.WriteByte('\n')
	}
	WriteFile(t, path, b.String())
	SetMtime(t, path, mtime)
}

// WriteFile creates parent directories and writes content.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// SetMtime sets both access and modification time.
func SetMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// CodexSessionMeta returns a session_meta record as written on the first line of a rollout log.
func CodexSessionMeta(id, cwd, source string) map[string]interface{} {
	return map[string]interface{}{
		"timestamp": "2026-01-01T00:00:00.000Z",
		"type":      "session_meta",
		"payload": map[string]interface{}{
			"id":             id,
			"cwd":            cwd,
			"source":         source,
			"cli_version":    "0.46.0",
			"model_provider": "openai",
		},
	}
}

// WriteMarker creates dir/<marker> with one file per entry of files.
// It returns the marker path.
func WriteMarker(t *testing.T, dir, marker string, files map[string]string) string {
	t.Helper()
	markerPath := filepath.Join(dir, marker)
	require.NoError(t, os.MkdirAll(markerPath, 0755))
	for name, content := range files {
		WriteFile(t, filepath.Join(markerPath, name), content+"\n")
	}
	return markerPath
}

// MkdirAll creates path and returns it.
func MkdirAll(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}

// DiscardLogger returns a logger whose output is dropped.
func DiscardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l)
}

// FixedClock returns a clock pinned to now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// RandomString generates a random hex string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
