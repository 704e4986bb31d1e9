package sessions

import (
	"bufio"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/ludics/pkg/models"
	"golang.org/x/sync/errgroup"
)

// maxLineBytes allows long first records such as codex instruction blocks.
const maxLineBytes = 8 * 1024 * 1024

// readFirstLines reads at most n lines without loading the rest of the file.
func readFirstLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := make([]string, 0, n)
	for len(lines) < n && scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// walkJSONL returns every *.jsonl file under root in lexical walk order.
// Unreadable entries are skipped. A missing root yields no files.
func walkJSONL(root string) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// mtimeEpoch returns the file's modification time in unix seconds.
func mtimeEpoch(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.ModTime().Unix(), true
}

// scanFiles runs scan over files with at most limit goroutines. Results keep
// the order of files; scans that report ok=false are left out.
func scanFiles(ctx context.Context, files []string, limit int, scan func(path string) (s models.DiscoveredSession, ok bool)) ([]models.DiscoveredSession, error) {
	results := make([]*models.DiscoveredSession, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if s, ok := scan(file); ok {
				results[i] = &s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.DiscoveredSession, 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// rawID returns a string id as-is and a numeric id in its JSON form.
func rawID(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// rawString returns the value of a JSON string, or "" for anything else.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
