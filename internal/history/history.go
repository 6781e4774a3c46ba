// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package history maintains the rolling window of score datapoints consumed
// by the dashboard. Retention is time-based: every retained entry's timestamp
// is within Horizon of the most recent write.
package history

import (
	"fmt"
	"os"
	"time"

	"github.com/bonial-oss/threat-pulse/internal/store"
	"github.com/bonial-oss/threat-pulse/internal/types"
)

// Horizon is the rolling retention window.
const Horizon = 24 * time.Hour

// Load reads the persisted history window from path. A missing or corrupt
// file is treated as an empty window: the prior history is best-effort state,
// losing it must never fail a collection run.
func Load(path string) types.HistoryWindow {
	var window types.HistoryWindow
	if err := store.ReadJSON(path, &window); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: could not load existing history: %v\n", err)
		}
		return types.HistoryWindow{}
	}
	return window
}

// Merge appends entry to the prior window and applies the retention policy:
// only entries with now - timestamp <= Horizon are kept, in their original
// chronological insertion order. Entries whose timestamps fail to parse are
// dropped with a warning; they never fail the merge. EntryCount is recomputed
// from the filtered entries.
func Merge(prior types.HistoryWindow, entry types.HistoryEntry, now time.Time) types.HistoryWindow {
	entries := append(append([]types.HistoryEntry{}, prior.Entries...), entry)

	kept := make([]types.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping invalid history entry: %v\n", err)
			continue
		}
		if now.Sub(ts) <= Horizon {
			kept = append(kept, e)
		}
	}

	return types.HistoryWindow{
		LastUpdated: entry.Timestamp,
		Entries:     kept,
		EntryCount:  len(kept),
	}
}

// EntryFromSnapshot derives the history datapoint for a snapshot.
func EntryFromSnapshot(snap types.Snapshot) types.HistoryEntry {
	return types.HistoryEntry{
		Timestamp:      snap.Timestamp,
		CompositeScore: snap.ThreatScore.CompositeScore,
		CategoryScores: snap.ThreatScore.CategoryScores,
	}
}
