// Package scoring implements the pure aggregation step of an assessment:
// metric normalization, per-layer scores, the composite 0-100 score, and
// tier classification. It performs no I/O.
package scoring

import "github.com/naaf-labs/naaf-cli/internal/model"

// MetricScore normalizes one extracted metric value against its benchmark
// and scales it to the metric weight. A nil value, a non-positive raw
// value for lower-is-better metrics, or a zero benchmark contributes 0:
// absence of data is scored, never an error.
func MetricScore(m model.Metric, value *float64) float64 {
	if value == nil || m.Benchmark <= 0 {
		return 0
	}

	var ratio float64
	switch m.Direction {
	case model.LowerIsBetter:
		if *value <= 0 {
			return 0
		}
		ratio = m.Benchmark / *value
	default:
		ratio = *value / m.Benchmark
	}

	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio * m.Weight
}

// LayerScore sums the normalized metric scores for a dimension, capped at
// the dimension weight. Results are keyed by metric name; missing metrics
// simply contribute nothing.
func LayerScore(dim model.Dimension, results []model.MetricResult) float64 {
	byName := make(map[string]model.MetricResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	var score float64
	for _, m := range dim.Metrics {
		r, ok := byName[m.Name]
		if !ok {
			continue
		}
		score += MetricScore(m, r.Value)
	}

	if score > dim.Weight {
		score = dim.Weight
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Overall computes the composite score from settled layer assessments.
// Layers that are not complete contribute exactly 0, so the total is
// well-defined under partial failure. The result is clamped to [0, 100].
func Overall(assessments []model.LayerAssessment) float64 {
	var total float64
	for _, a := range assessments {
		if a.Status != model.LayerStatusComplete {
			continue
		}
		total += a.Score
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

// Score aggregates layer assessments into the composite score and tier.
func Score(assessments []model.LayerAssessment) (float64, string) {
	overall := Overall(assessments)
	return overall, TierFor(overall)
}
