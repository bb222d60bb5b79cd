// Package render produces the structured snapshot the terminal rendering
// layer consumes. Per spec.md §1 Non-goals, the actual terminal UI is an
// external collaborator; this package only builds the Snapshot contract
// and a minimal default stdout writer for manual runs, grounded field-for-
// field on the original's render_display (sync _text/25CS60R71_project2/
// src/editor.cpp).
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/abhinavnagar29/synctext/internal/update"
)

// Snapshot is the render-ready view of one tick's state.
type Snapshot struct {
	DocName      string
	UpdatedAt    time.Time
	Lines        []string
	ModifiedLine int // -1 if none
	ActivePeers  []string
	LastChange   *update.Change
	LastSender   string
	ReceivedAny  bool
}

// Build assembles a Snapshot from the editor loop's current state.
func Build(docName string, lines []string, activePeers []string, lastChange *update.Change, lastSender string, receivedAny bool) Snapshot {
	modified := -1
	if lastChange != nil {
		modified = int(lastChange.Line)
	}
	return Snapshot{
		DocName:      docName,
		UpdatedAt:    time.Now(),
		Lines:        lines,
		ModifiedLine: modified,
		ActivePeers:  activePeers,
		LastChange:   lastChange,
		LastSender:   lastSender,
		ReceivedAny:  receivedAny,
	}
}

// WriteTo renders the snapshot to w in the original's plain-text layout:
// a clear-screen escape, a header, per-line listing with a [MODIFIED]
// marker, the active-peer list, the last change detail, a received-update
// line, and a trailing "Monitoring for changes...".
func WriteTo(w io.Writer, s Snapshot) {
	fmt.Fprint(w, "\033[2J\033[H")
	fmt.Fprintf(w, "Document: %s\n", s.DocName)
	fmt.Fprintf(w, "Last updated: %s\n", s.UpdatedAt.Format("15:04:05"))
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for i, l := range s.Lines {
		fmt.Fprintf(w, "Line %d: %s", i, padDisplay(l))
		if i == s.ModifiedLine {
			fmt.Fprint(w, " [MODIFIED]")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprint(w, "Active users: ")
	if len(s.ActivePeers) == 0 {
		fmt.Fprintln(w, "(none)")
	} else {
		fmt.Fprintln(w, strings.Join(s.ActivePeers, ", "))
	}
	if s.LastChange != nil && s.LastChange.ColStart >= 0 {
		fmt.Fprintf(w, "Change detected: Line %d, col %d-%d, %q → %q, timestamp: %s\n",
			s.LastChange.Line, s.LastChange.ColStart, s.LastChange.ColEnd,
			s.LastChange.OldText, s.LastChange.NewText, s.LastChange.TimestampStr)
	}
	if s.ReceivedAny && s.LastSender != "" {
		fmt.Fprintf(w, "Received update from %s\n", s.LastSender)
	}
	fmt.Fprintln(w, "Monitoring for changes...")
}

// padDisplay passes a line through unchanged except for normalizing
// full-width characters to their canonical display form, so fixed-width
// line prefixes ("Line N: ") stay visually aligned when a document mixes
// ASCII and East-Asian wide characters.
func padDisplay(s string) string {
	return width.Fold.String(s)
}
