// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	aqtable "github.com/aquasecurity/table"
	"github.com/aquasecurity/tml"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/bonial-oss/threat-pulse/internal/types"
)

const maxDescriptionWords = 12

// TableConfig controls how the snapshot summary is rendered.
type TableConfig struct {
	SortBy     string // "severity", "category", "id", "" (preserve order)
	IsTerminal bool   // true when output goes to a terminal (enables ANSI styling)
}

// IsOutputToTerminal returns true if the writer is stdout connected to a
// character device (TTY).
func IsOutputToTerminal(output io.Writer) bool {
	return output == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
}

// eventRow holds a reference to an event for table rendering.
type eventRow struct {
	event *types.Event
	index int // original index for stable sort
}

// WriteTable renders a snapshot as a human-readable summary: the score
// panel, the top-events table, and the data-status section.
func WriteTable(w io.Writer, snap *types.Snapshot, cfg TableConfig) error {
	writeHeader(w, snap, cfg.IsTerminal)
	writeScoreTable(w, snap, cfg.IsTerminal)

	fmt.Fprintln(w)
	rows := make([]eventRow, len(snap.TopEvents))
	for i := range snap.TopEvents {
		rows[i] = eventRow{event: &snap.TopEvents[i], index: i}
	}
	sortRows(rows, cfg.SortBy)
	writeEventTable(w, rows, cfg)

	writeDataStatus(w, &snap.DataStatus, cfg.IsTerminal)
	return nil
}

// writeHeader writes the run timestamp and the composite score line.
func writeHeader(w io.Writer, snap *types.Snapshot, isTerminal bool) {
	title := fmt.Sprintf("Threat Pulse (%s)", snap.Timestamp)
	if isTerminal {
		_ = tml.Fprintf(w, "<underline><bold>%s</bold></underline>\n", title)
	} else {
		fmt.Fprintln(w, title)
		fmt.Fprintln(w, strings.Repeat("=", utf8.RuneCountInString(title)))
	}

	composite := fmt.Sprintf("%.2f", snap.ThreatScore.CompositeScore)
	if isTerminal {
		composite = colorizeScore(snap.ThreatScore.CompositeScore)
	}
	fmt.Fprintf(w, "Composite score: %s\n\n", composite)
}

// newTableWriter creates a table writer with the standard configuration:
// borders, auto-merge, and row separators. When isTerminal is true, header
// and line styles use ANSI formatting.
func newTableWriter(w io.Writer, isTerminal bool) *aqtable.Table {
	tw := aqtable.New(w)
	if isTerminal {
		tw.SetHeaderStyle(aqtable.StyleBold)
		tw.SetLineStyle(aqtable.StyleDim)
	}
	tw.SetBorders(true)
	tw.SetAutoMerge(true)
	tw.SetRowLines(true)
	return tw
}

// writeScoreTable renders the per-category subscores.
func writeScoreTable(w io.Writer, snap *types.Snapshot, isTerminal bool) {
	tw := newTableWriter(w, isTerminal)
	tw.SetHeaders("Category", "Score", "Events")
	for _, category := range types.Categories {
		score := snap.ThreatScore.CategoryScores[category]
		cell := fmt.Sprintf("%.2f", score)
		if isTerminal {
			cell = colorizeScore(score)
		}
		tw.AddRow(categoryLabel(category), cell, fmt.Sprintf("%d", eventCount(snap, category)))
	}
	tw.Render()
}

// writeEventTable renders the top-events table.
func writeEventTable(w io.Writer, rows []eventRow, cfg TableConfig) {
	tw := newTableWriter(w, cfg.IsTerminal)
	tw.SetHeaders("ID", "Category", "Severity", "Description", "Timestamp")
	for _, row := range rows {
		tw.AddRow(rowCells(row.event, cfg.IsTerminal)...)
	}
	tw.Render()
}

// writeDataStatus renders per-source availability and collected errors.
func writeDataStatus(w io.Writer, status *types.DataStatus, isTerminal bool) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sources: NVD=%s KEV=%s EPSS=%s\n",
		availability(status.CVEAvailable, isTerminal),
		availability(status.KEVAvailable, isTerminal),
		availability(status.EPSSAvailable, isTerminal))
	for _, e := range status.Errors {
		if isTerminal {
			_ = tml.Fprintf(w, "<red>error:</red> %s\n", e)
		} else {
			fmt.Fprintf(w, "error: %s\n", e)
		}
	}
}

// rowCells returns the cell values for a single event row.
func rowCells(event *types.Event, isTerminal bool) []string {
	severity := fmt.Sprintf("%.1f", event.Severity)
	if isTerminal {
		severity = severityColor(event.Severity)(severity)
	}
	return []string{
		event.ID,
		categoryLabel(event.Category),
		severity,
		truncateWords(event.Description, maxDescriptionWords),
		event.Timestamp,
	}
}

// sortRows sorts the event rows based on the given sort key.
func sortRows(rows []eventRow, sortBy string) {
	switch sortBy {
	case "severity":
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].event.Severity > rows[j].event.Severity
		})
	case "category":
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].event.Category < rows[j].event.Category
		})
	case "id":
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].event.ID < rows[j].event.ID
		})
	default:
		// preserve original order
	}
}

func categoryLabel(category types.Category) string {
	return strings.ToUpper(string(category))
}

func eventCount(snap *types.Snapshot, category types.Category) int {
	switch category {
	case types.CategoryCVE:
		return snap.ThreatScore.Metadata.CVECount
	case types.CategoryKEV:
		return snap.ThreatScore.Metadata.KEVCount
	case types.CategoryEPSS:
		return snap.ThreatScore.Metadata.EPSSCount
	}
	return 0
}

// scoreColors maps 0-100 score bands to color functions, reusing the
// severity palette downstream consumers already know.
var (
	scoreLow      = color.New(color.FgBlue).SprintFunc()
	scoreMedium   = color.New(color.FgYellow).SprintFunc()
	scoreHigh     = color.New(color.FgHiRed).SprintFunc()
	scoreCritical = color.New(color.FgRed).SprintFunc()
	sourceUp      = color.New(color.FgGreen).SprintFunc()
)

// availability formats a source flag as "available"/"unavailable".
func availability(ok, isTerminal bool) string {
	if ok {
		if isTerminal {
			return sourceUp("available")
		}
		return "available"
	}
	if isTerminal {
		return scoreCritical("unavailable")
	}
	return "unavailable"
}

// colorizeScore wraps a 0-100 score in ANSI color codes by band.
func colorizeScore(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 75:
		return scoreCritical(s)
	case score >= 50:
		return scoreHigh(s)
	case score >= 25:
		return scoreMedium(s)
	default:
		return scoreLow(s)
	}
}

// severityColor picks a color function for a 0-10 severity.
func severityColor(severity float64) func(a ...any) string {
	switch {
	case severity >= 9:
		return scoreCritical
	case severity >= 7:
		return scoreHigh
	case severity >= 4:
		return scoreMedium
	default:
		return scoreLow
	}
}

// truncateWords limits text to maxWords words, appending "..." if truncated.
func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
