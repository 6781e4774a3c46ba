// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

// CategoryScores maps each category to its subscore on a 0-100 scale.
// Every known category key is present; categories without events score 0.
type CategoryScores map[Category]float64

// SourceCounts records how many normalized events each source contributed.
type SourceCounts struct {
	CVECount  int `json:"cveCount"`
	KEVCount  int `json:"kevCount"`
	EPSSCount int `json:"epssCount"`
}

// ThreatScore is the scoring block of a snapshot: the weighted composite,
// the per-category subscores, and the event counts behind them.
type ThreatScore struct {
	CompositeScore float64        `json:"compositeScore"`
	CategoryScores CategoryScores `json:"categoryScores"`
	Metadata       SourceCounts   `json:"metadata"`
}

// DataStatus reports per-source availability and the errors collected during
// a run. A source is available iff it produced at least one event.
type DataStatus struct {
	CVEAvailable  bool     `json:"cveAvailable"`
	KEVAvailable  bool     `json:"kevAvailable"`
	EPSSAvailable bool     `json:"epssAvailable"`
	Errors        []string `json:"errors"`
}

// Snapshot is the "latest" document produced by one collection run. It is
// built once, never mutated, and written wholesale to the latest-state file.
type Snapshot struct {
	Timestamp   string      `json:"timestamp"`
	ThreatScore ThreatScore `json:"threatScore"`
	TopEvents   []Event     `json:"topEvents"`
	DataStatus  DataStatus  `json:"dataStatus"`
}

// HistoryEntry is one datapoint in the rolling score history.
type HistoryEntry struct {
	Timestamp      string         `json:"timestamp"`
	CompositeScore float64        `json:"compositeScore"`
	CategoryScores CategoryScores `json:"categoryScores"`
}

// HistoryWindow is the persisted rolling window of score datapoints.
// EntryCount always equals len(Entries) after retention filtering.
type HistoryWindow struct {
	LastUpdated string         `json:"lastUpdated"`
	Entries     []HistoryEntry `json:"entries"`
	EntryCount  int            `json:"entryCount"`
}
