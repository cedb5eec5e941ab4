package model

import "time"

// FrameworkVersion tags persisted runs with the rubric revision that
// produced them.
const FrameworkVersion = "1.0"

// RunStatus represents the lifecycle state of an assessment run.
type RunStatus string

const (
	RunStatusCreated   RunStatus = "created"
	RunStatusRunning   RunStatus = "running"
	RunStatusFinalized RunStatus = "finalized"
)

// LayerStatus represents the state of a single layer's research.
type LayerStatus string

const (
	LayerStatusPending    LayerStatus = "pending"
	LayerStatusInProgress LayerStatus = "in_progress"
	LayerStatusComplete   LayerStatus = "complete"
	LayerStatusFailed     LayerStatus = "failed"
)

// FailureReason classifies why a layer assessment failed.
type FailureReason string

const (
	FailureNone      FailureReason = ""
	FailureProvider  FailureReason = "provider_error"
	FailureNoData    FailureReason = "no_data"
	FailureTimeout   FailureReason = "timeout"
	FailureCancelled FailureReason = "cancelled"
)

// MetricResult is one extracted data point with its citation. A nil Value
// means the metric was researched but not found; that is a valid terminal
// state, not an error.
type MetricResult struct {
	Name       string   `json:"name"`
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	Year       int      `json:"year,omitempty"`
	SourceURL  string   `json:"source_url,omitempty"`
	Confidence float64  `json:"confidence"`
}

// LayerAssessment is one dimension's outcome for one run. It is mutated
// only by the worker that owns it and becomes immutable once Status is
// complete or failed.
type LayerAssessment struct {
	DimensionNumber int            `json:"dimension_number"`
	DimensionName   string         `json:"dimension_name"`
	Score           float64        `json:"score"`
	MaxScore        float64        `json:"max_score"`
	Status          LayerStatus    `json:"status"`
	FailureReason   FailureReason  `json:"failure_reason,omitempty"`
	Metrics         []MetricResult `json:"metrics,omitempty"`
	Justification   string         `json:"justification,omitempty"`
	Sources         []string       `json:"sources,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// Settled reports whether the layer has reached a terminal status.
func (a LayerAssessment) Settled() bool {
	return a.Status == LayerStatusComplete || a.Status == LayerStatusFailed
}

// Source is a deduplicated cited URL with first-seen metadata.
type Source struct {
	URL             string    `json:"url"`
	FirstSeenAt     time.Time `json:"first_seen_at"`
	DimensionNumber int       `json:"dimension_number"`
}

// Run is one assessment execution for one entity. The assessments slice
// always holds exactly one entry per registry dimension, in dimension
// order, pre-populated as pending placeholders before any worker starts.
type Run struct {
	ID          string            `json:"id"`
	Entity      Entity            `json:"entity"`
	Status      RunStatus         `json:"status"`
	Assessments []LayerAssessment `json:"assessments"`
	Overall     *float64          `json:"overall,omitempty"`
	Tier        string            `json:"tier,omitempty"`
	Sources     []Source          `json:"sources,omitempty"`
	Version     string            `json:"framework_version"`
	RequestedAt time.Time         `json:"requested_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Assessment returns the layer assessment for a dimension number, or nil.
func (r *Run) Assessment(dimension int) *LayerAssessment {
	for i := range r.Assessments {
		if r.Assessments[i].DimensionNumber == dimension {
			return &r.Assessments[i]
		}
	}
	return nil
}

// CollectSources rebuilds the deduplicated source list from all layer
// citations, preserving first-seen order.
func (r *Run) CollectSources(now time.Time) {
	seen := make(map[string]bool)
	r.Sources = nil
	for _, a := range r.Assessments {
		for _, u := range a.Sources {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			r.Sources = append(r.Sources, Source{
				URL:             u,
				FirstSeenAt:     now,
				DimensionNumber: a.DimensionNumber,
			})
		}
	}
}

// EntitySummary is the per-entity rollup returned by entity listings.
type EntitySummary struct {
	Entity      string    `json:"entity"`
	EntityKey   string    `json:"entity_key"`
	LatestScore float64   `json:"latest_score"`
	Tier        string    `json:"tier"`
	RunCount    int       `json:"run_count"`
	LastUpdated time.Time `json:"last_updated"`
}
