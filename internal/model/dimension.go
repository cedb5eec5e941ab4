package model

// MetricDirection indicates how a raw metric value relates to a better score.
type MetricDirection string

const (
	// HigherIsBetter normalizes against the global leader value.
	HigherIsBetter MetricDirection = "higher"
	// LowerIsBetter normalizes against the global minimum value (e.g., price).
	LowerIsBetter MetricDirection = "lower"
)

// Metric defines a single measurable data point within a dimension.
type Metric struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Unit        string          `json:"unit" yaml:"unit"`
	Weight      float64         `json:"weight" yaml:"weight"`
	Direction   MetricDirection `json:"direction" yaml:"direction"`

	// Benchmark is the global reference value the entity is normalized
	// against: the leader value for higher-is-better metrics, the global
	// minimum for lower-is-better ones. Zero disables normalization and
	// the metric contributes nothing.
	Benchmark float64 `json:"benchmark" yaml:"benchmark"`

	// Queries are search templates with {entity} and {year} placeholders.
	Queries []string `json:"queries" yaml:"queries"`
}

// Dimension is one independently-researched layer of the assessment.
type Dimension struct {
	Number      int      `json:"number" yaml:"number"`
	Name        string   `json:"name" yaml:"name"`
	ShortName   string   `json:"short_name" yaml:"short_name"`
	Description string   `json:"description" yaml:"description"`
	Weight      float64  `json:"weight" yaml:"weight"`
	Metrics     []Metric `json:"metrics" yaml:"metrics"`

	// Domains is the preferred-source allowlist for evidence queries.
	Domains []string `json:"domains" yaml:"domains"`
}

// MetricWeightTotal sums the metric weights within the dimension.
func (d Dimension) MetricWeightTotal() float64 {
	var total float64
	for _, m := range d.Metrics {
		total += m.Weight
	}
	return total
}
