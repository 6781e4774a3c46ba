// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package scorer

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/threat-pulse/internal/types"
)

func TestCategories_NoEvents(t *testing.T) {
	scores := Categories(nil)

	require.Len(t, scores, 3)
	for _, category := range types.Categories {
		assert.Zero(t, scores[category], "category %s should score exactly 0.0 with no events", category)
	}
}

func TestCategories_SingleCVE(t *testing.T) {
	// One CVE event with severity 7.5:
	// avg=7.5, countFactor=min(1/10,1)=0.1
	// score = 7.5/10 * 100 * (0.7 + 0.3*0.1) = 75 * 0.73 = 54.75
	events := []types.Event{
		types.NewEvent("CVE-2024-0001", types.CategoryCVE, 7.5, "", "2024-01-01T00:00:00Z"),
	}

	scores := Categories(events)

	assert.InDelta(t, 54.75, scores[types.CategoryCVE], 1e-9)
	assert.Zero(t, scores[types.CategoryKEV])
	assert.Zero(t, scores[types.CategoryEPSS])
}

func TestCategories_CountFactorSaturates(t *testing.T) {
	// 10 or more max-severity events saturate the count factor:
	// avg=10, countFactor=1.0 -> 100 * (0.7 + 0.3) = 100.
	var events []types.Event
	for i := 0; i < 15; i++ {
		events = append(events, types.NewEvent(
			fmt.Sprintf("CVE-2024-%04d", i), types.CategoryCVE, 10.0, "", ""))
	}

	scores := Categories(events)

	assert.InDelta(t, 100.0, scores[types.CategoryCVE], 1e-9)
}

func TestCategories_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		events []types.Event
	}{
		{name: "empty", events: nil},
		{name: "single low", events: []types.Event{
			types.NewEvent("a", types.CategoryEPSS, 0.01, "", ""),
		}},
		{name: "mixed", events: []types.Event{
			types.NewEvent("a", types.CategoryCVE, 9.8, "", ""),
			types.NewEvent("b", types.CategoryCVE, 0.0, "", ""),
			types.NewEvent("c", types.CategoryKEV, 8.0, "", ""),
			types.NewEvent("d", types.CategoryEPSS, 10.0, "", ""),
		}},
		{name: "many max severity", events: func() []types.Event {
			var evs []types.Event
			for i := 0; i < 50; i++ {
				evs = append(evs, types.NewEvent("x", types.CategoryKEV, 10.0, "", ""))
			}
			return evs
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := Categories(tt.events)
			require.Len(t, scores, 3)
			for category, score := range scores {
				assert.GreaterOrEqual(t, score, 0.0, "category %s", category)
				assert.LessOrEqual(t, score, 100.0, "category %s", category)
			}
		})
	}
}

func TestCategories_Idempotent(t *testing.T) {
	events := []types.Event{
		types.NewEvent("CVE-2024-0001", types.CategoryCVE, 7.5, "", ""),
		types.NewEvent("CVE-2024-0002", types.CategoryKEV, 9.5, "", ""),
		types.NewEvent("CVE-2024-0003", types.CategoryEPSS, 4.2, "", ""),
	}

	first := Categories(events)
	second := Categories(events)

	assert.Equal(t, first, second, "Categories must be a pure function")
	assert.Equal(t, Composite(first), Composite(second), "Composite must be a pure function")
}

func TestComposite_BitIdentical(t *testing.T) {
	// The weighted sum must accumulate in a fixed order: summation order
	// changes the floating-point result, and repeated runs on the same
	// input have to agree to the last bit.
	scores := types.CategoryScores{
		types.CategoryCVE:  54.75,
		types.CategoryKEV:  33.17,
		types.CategoryEPSS: 77.31,
	}

	want := math.Float64bits(Composite(scores))
	for i := 0; i < 1000; i++ {
		require.Equal(t, want, math.Float64bits(Composite(scores)),
			"Composite returned a different bit pattern on iteration %d", i)
	}
}

func TestComposite_SingleCategory(t *testing.T) {
	// CVE subscore 54.75 with weight 0.4 and all other categories 0:
	// composite = 0.4 * 54.75 = 21.90
	scores := types.CategoryScores{
		types.CategoryCVE:  54.75,
		types.CategoryKEV:  0,
		types.CategoryEPSS: 0,
	}

	assert.InDelta(t, 21.90, Composite(scores), 1e-9)
}

func TestComposite_AllZero(t *testing.T) {
	scores := types.CategoryScores{
		types.CategoryCVE:  0,
		types.CategoryKEV:  0,
		types.CategoryEPSS: 0,
	}

	assert.Zero(t, Composite(scores))
}

func TestComposite_MissingKeys(t *testing.T) {
	// Missing categories contribute 0.0, never panic.
	assert.Zero(t, Composite(types.CategoryScores{}))
	assert.InDelta(t, 25.0, Composite(types.CategoryScores{types.CategoryKEV: 50.0}), 1e-9)
}

func TestComposite_Bounds(t *testing.T) {
	scores := types.CategoryScores{
		types.CategoryCVE:  100,
		types.CategoryKEV:  100,
		types.CategoryEPSS: 100,
	}
	got := Composite(scores)
	assert.InDelta(t, 100.0, got, 1e-9, "weights sum to 1.0, so all-100 subscores give 100")
}
