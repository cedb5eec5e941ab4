// Package registry holds the dimension/metric definitions that drive an
// assessment. The registry is pure data: workers read query templates and
// benchmarks from it, the scoring engine reads weights.
package registry

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/naaf-labs/naaf-cli/internal/model"
)

// weightTolerance absorbs float drift when checking that dimension weights
// sum to exactly 100.
const weightTolerance = 1e-6

// Registry is an ordered, validated set of assessment dimensions.
type Registry struct {
	dimensions []model.Dimension
}

// New builds a Registry from dimensions and validates it.
func New(dims []model.Dimension) (*Registry, error) {
	r := &Registry{dimensions: dims}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Default returns the built-in framework registry.
func Default() *Registry {
	// The embedded registry is validated by tests; a panic here means the
	// compiled-in data is broken.
	r, err := New(defaultDimensions())
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFromFile reads a YAML dimension list from path and returns a
// validated Registry. Used when config overrides the built-in rubric.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read dimensions file")
	}

	var doc struct {
		Dimensions []model.Dimension `yaml:"dimensions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal dimensions file")
	}

	return New(doc.Dimensions)
}

// Validate checks the registry invariants: at least one dimension,
// ordinals sequential from 1, weights summing to 100, and per-dimension
// metric weights summing to the dimension weight.
func (r *Registry) Validate() error {
	if len(r.dimensions) == 0 {
		return eris.New("registry: no dimensions defined")
	}

	var total float64
	for i, d := range r.dimensions {
		if d.Number != i+1 {
			return eris.Errorf("registry: dimension %q has ordinal %d, want %d", d.Name, d.Number, i+1)
		}
		if d.Weight <= 0 {
			return eris.Errorf("registry: dimension %q has non-positive weight %v", d.Name, d.Weight)
		}
		if len(d.Metrics) == 0 {
			return eris.Errorf("registry: dimension %q has no metrics", d.Name)
		}
		if mw := d.MetricWeightTotal(); math.Abs(mw-d.Weight) > weightTolerance {
			return eris.Errorf("registry: dimension %q metric weights sum to %v, want %v", d.Name, mw, d.Weight)
		}
		total += d.Weight
	}

	if math.Abs(total-100) > weightTolerance {
		return eris.Errorf("registry: dimension weights sum to %v, want 100", total)
	}
	return nil
}

// Dimensions returns the ordered dimension list.
func (r *Registry) Dimensions() []model.Dimension {
	return r.dimensions
}

// Dimension returns the dimension with the given ordinal, or nil.
func (r *Registry) Dimension(number int) *model.Dimension {
	if number < 1 || number > len(r.dimensions) {
		return nil
	}
	return &r.dimensions[number-1]
}

// Count returns the number of dimensions.
func (r *Registry) Count() int {
	return len(r.dimensions)
}
