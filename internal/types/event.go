// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

// Category identifies which feed an event was normalized from.
type Category string

const (
	CategoryCVE  Category = "cve"
	CategoryKEV  Category = "kev"
	CategoryEPSS Category = "epss"
)

// Categories lists all known categories in a fixed order, used wherever a
// complete score set or deterministic iteration is required.
var Categories = []Category{CategoryCVE, CategoryKEV, CategoryEPSS}

const (
	maxSeverity       = 10.0
	maxDescriptionLen = 200
)

// Event is a single normalized record from one feed. Severity is always on
// the 0-10 CVSS-like scale regardless of how the source expresses it, and
// Description is bounded. Events are immutable after the adapter returns them.
type Event struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Severity    float64  `json:"severity"`
	Description string   `json:"description"`
	Timestamp   string   `json:"timestamp"`
}

// NewEvent constructs an Event, clamping severity into [0, 10] and truncating
// the description to the bounded length. Feed payloads are third-party
// controlled, so out-of-range values are normalized rather than rejected.
func NewEvent(id string, category Category, severity float64, description, timestamp string) Event {
	if severity < 0 {
		severity = 0
	}
	if severity > maxSeverity {
		severity = maxSeverity
	}
	return Event{
		ID:          id,
		Category:    category,
		Severity:    severity,
		Description: truncate(description, maxDescriptionLen),
		Timestamp:   timestamp,
	}
}

// truncate limits s to max runes, appending "..." if cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
