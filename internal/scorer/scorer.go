// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package scorer

import (
	"math"

	"github.com/bonial-oss/threat-pulse/internal/types"
)

// capEvents is the event count at which the volume factor saturates.
const capEvents = 10

// compositeWeights is the fixed per-category weight table. Weights sum to 1.0.
var compositeWeights = map[types.Category]float64{
	types.CategoryCVE:  0.4,
	types.CategoryKEV:  0.5,
	types.CategoryEPSS: 0.1,
}

// Categories computes a 0-100 subscore per category from normalized events.
//
// For a category with n events of severities s_1..s_n:
//
//	avg         = mean(s_i)
//	countFactor = min(n/capEvents, 1.0)
//	score       = clamp(avg/10 * 100 * (0.7 + 0.3*countFactor), 0, 100)
//
// Average severity alone does not capture volume of signal; the count factor
// rewards corroborating events up to a cap, with a 0.7 floor so volume never
// dominates severity. Categories with zero events score exactly 0.0, and
// every known category key is always present in the result.
func Categories(events []types.Event) types.CategoryScores {
	sums := make(map[types.Category]float64)
	counts := make(map[types.Category]int)
	for _, event := range events {
		sums[event.Category] += event.Severity
		counts[event.Category]++
	}

	scores := make(types.CategoryScores, len(types.Categories))
	for _, category := range types.Categories {
		n := counts[category]
		if n == 0 {
			scores[category] = 0.0
			continue
		}
		avg := sums[category] / float64(n)
		countFactor := math.Min(float64(n)/capEvents, 1.0)
		scores[category] = clamp(avg/10*100*(0.7+0.3*countFactor), 0, 100)
	}
	return scores
}

// Composite computes the weighted composite score (0-100) from category
// subscores. Missing categories contribute 0.0. The result is full precision;
// rounding happens at output time only. Accumulation follows the fixed
// types.Categories order so repeat calls are bit-identical.
func Composite(scores types.CategoryScores) float64 {
	var composite float64
	for _, category := range types.Categories {
		composite += compositeWeights[category] * scores[category]
	}
	return composite
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
