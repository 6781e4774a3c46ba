// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"math"
	"sort"
	"time"

	"github.com/bonial-oss/threat-pulse/internal/types"
)

// DefaultTopN is the number of top events included in a snapshot.
const DefaultTopN = 10

// Build assembles the latest-state document from one collection run. It is a
// pure function of its inputs; the caller supplies now so the timestamp is
// captured exactly once per run. All scores are rounded to two decimals here,
// at the output boundary.
func Build(events []types.Event, scores types.CategoryScores, composite float64, errs []string, topN int, now time.Time) types.Snapshot {
	counts := countByCategory(events)
	if errs == nil {
		errs = []string{}
	}

	return types.Snapshot{
		Timestamp: now.UTC().Format(time.RFC3339),
		ThreatScore: types.ThreatScore{
			CompositeScore: round2(composite),
			CategoryScores: roundScores(scores),
			Metadata:       counts,
		},
		TopEvents: TopEvents(events, topN),
		DataStatus: types.DataStatus{
			CVEAvailable:  counts.CVECount > 0,
			KEVAvailable:  counts.KEVCount > 0,
			EPSSAvailable: counts.EPSSCount > 0,
			Errors:        errs,
		},
	}
}

// TopEvents selects the n highest-severity events. Ties keep their original
// collection order.
func TopEvents(events []types.Event, n int) []types.Event {
	top := make([]types.Event, len(events))
	copy(top, events)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Severity > top[j].Severity
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

func countByCategory(events []types.Event) types.SourceCounts {
	var counts types.SourceCounts
	for _, event := range events {
		switch event.Category {
		case types.CategoryCVE:
			counts.CVECount++
		case types.CategoryKEV:
			counts.KEVCount++
		case types.CategoryEPSS:
			counts.EPSSCount++
		}
	}
	return counts
}

func roundScores(scores types.CategoryScores) types.CategoryScores {
	rounded := make(types.CategoryScores, len(types.Categories))
	for _, category := range types.Categories {
		rounded[category] = round2(scores[category])
	}
	return rounded
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
