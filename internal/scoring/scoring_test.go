package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naaf-labs/naaf-cli/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestMetricScore_HigherIsBetter(t *testing.T) {
	m := model.Metric{Name: "compute", Weight: 10, Direction: model.HigherIsBetter, Benchmark: 100}

	assert.InDelta(t, 5.0, MetricScore(m, fptr(50)), 1e-9)
	assert.InDelta(t, 10.0, MetricScore(m, fptr(100)), 1e-9)
	// Above the benchmark clamps to full weight.
	assert.InDelta(t, 10.0, MetricScore(m, fptr(250)), 1e-9)
}

func TestMetricScore_LowerIsBetter(t *testing.T) {
	m := model.Metric{Name: "cost", Weight: 4, Direction: model.LowerIsBetter, Benchmark: 0.05}

	// At the global minimum the metric earns full weight.
	assert.InDelta(t, 4.0, MetricScore(m, fptr(0.05)), 1e-9)
	// Twice the minimum earns half.
	assert.InDelta(t, 2.0, MetricScore(m, fptr(0.10)), 1e-9)
	// Cheaper than the benchmark clamps at full weight.
	assert.InDelta(t, 4.0, MetricScore(m, fptr(0.01)), 1e-9)
	// Non-positive raw values cannot be normalized.
	assert.Zero(t, MetricScore(m, fptr(0)))
	assert.Zero(t, MetricScore(m, fptr(-3)))
}

func TestMetricScore_MissingData(t *testing.T) {
	m := model.Metric{Name: "x", Weight: 10, Direction: model.HigherIsBetter, Benchmark: 100}
	assert.Zero(t, MetricScore(m, nil))

	noBench := model.Metric{Name: "y", Weight: 10, Direction: model.HigherIsBetter}
	assert.Zero(t, MetricScore(noBench, fptr(50)))
}

func TestMetricScore_NegativeValue(t *testing.T) {
	m := model.Metric{Name: "x", Weight: 10, Direction: model.HigherIsBetter, Benchmark: 100}
	assert.Zero(t, MetricScore(m, fptr(-5)))
}

func TestLayerScore_CappedAtDimensionWeight(t *testing.T) {
	dim := model.Dimension{
		Number: 1, Name: "Energy", Weight: 20,
		Metrics: []model.Metric{
			{Name: "a", Weight: 15, Direction: model.HigherIsBetter, Benchmark: 10},
			{Name: "b", Weight: 15, Direction: model.HigherIsBetter, Benchmark: 10},
		},
	}
	results := []model.MetricResult{
		{Name: "a", Value: fptr(10)},
		{Name: "b", Value: fptr(10)},
	}

	// Metric weights sum to 30 but the layer never exceeds its weight.
	assert.InDelta(t, 20.0, LayerScore(dim, results), 1e-9)
}

func TestLayerScore_MissingMetricsContributeNothing(t *testing.T) {
	dim := model.Dimension{
		Number: 1, Name: "Energy", Weight: 20,
		Metrics: []model.Metric{
			{Name: "a", Weight: 10, Direction: model.HigherIsBetter, Benchmark: 10},
			{Name: "b", Weight: 10, Direction: model.HigherIsBetter, Benchmark: 10},
		},
	}
	results := []model.MetricResult{{Name: "a", Value: fptr(5)}}

	assert.InDelta(t, 5.0, LayerScore(dim, results), 1e-9)
}

func TestOverall_PartialFailure(t *testing.T) {
	assessments := []model.LayerAssessment{
		{DimensionNumber: 1, Score: 18, Status: model.LayerStatusComplete},
		{DimensionNumber: 2, Score: 12, Status: model.LayerStatusComplete},
		{DimensionNumber: 3, Score: 9, Status: model.LayerStatusFailed, FailureReason: model.FailureProvider},
	}

	// Failed layers contribute exactly zero even if a score was recorded
	// before the failure.
	assert.InDelta(t, 30.0, Overall(assessments), 1e-9)
}

func TestOverall_Clamped(t *testing.T) {
	assessments := []model.LayerAssessment{
		{Score: 60, Status: model.LayerStatusComplete},
		{Score: 60, Status: model.LayerStatusComplete},
	}
	assert.InDelta(t, 100.0, Overall(assessments), 1e-9)
	assert.Zero(t, Overall(nil))
}

func TestOverall_Deterministic(t *testing.T) {
	assessments := []model.LayerAssessment{
		{Score: 7.5, Status: model.LayerStatusComplete},
		{Score: 3.25, Status: model.LayerStatusComplete},
		{Score: 0, Status: model.LayerStatusFailed},
	}
	first := Overall(assessments)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Overall(assessments))
	}
}

func TestTierFor_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "Tier 1: Hegemon"},
		{80, "Tier 1: Hegemon"},
		{79.999, "Tier 2: Strategic Specialist"},
		{50, "Tier 2: Strategic Specialist"},
		{49.999, "Tier 3: Adopter"},
		{30, "Tier 3: Adopter"},
		{29.999, "Tier 4: Consumer"},
		{0, "Tier 4: Consumer"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.score), "score %v", tc.score)
	}
}

func TestScore_ReturnsTier(t *testing.T) {
	assessments := []model.LayerAssessment{
		{Score: 55, Status: model.LayerStatusComplete},
	}
	overall, tier := Score(assessments)
	assert.InDelta(t, 55.0, overall, 1e-9)
	assert.Equal(t, "Tier 2: Strategic Specialist", tier)
}
