// Package document manages the local on-disk document file observed by
// the editor loop: reading its lines, writing merged content back, and
// seeding it on first use (spec.md §6).
package document

import (
	"os"
	"path/filepath"
	"strings"
)

// SeedLines is the initial content written to a document that doesn't
// exist yet at startup.
var SeedLines = []string{"int x = 10;", "int y = 20;", "int z = 30;"}

// Path returns the document path for userID under dir.
func Path(dir, userID string) string {
	return filepath.Join(dir, userID+"_doc.txt")
}

// EnsureSeeded creates path with SeedLines if it doesn't already exist.
func EnsureSeeded(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return Write(path, SeedLines)
}

// Read returns path's lines with trailing empty lines trimmed, matching
// the original's "normalize: drop trailing empty lines to avoid phantom
// blank-line diffs" policy.
func Read(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(raw))
	return trimTrailingEmpty(lines), nil
}

// Write rewrites path from lines, trimming trailing empty lines first and
// appending a trailing newline to every written line (spec.md §6).
func Write(path string, lines []string) error {
	lines = trimTrailingEmpty(lines)
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func trimTrailingEmpty(lines []string) []string {
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return lines[:end]
}
