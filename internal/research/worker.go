package research

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/internal/resilience"
	"github.com/naaf-labs/naaf-cli/internal/scoring"
	"github.com/naaf-labs/naaf-cli/pkg/claude"
	"github.com/naaf-labs/naaf-cli/pkg/youdotcom"
)

// LayerResearcher assesses a single dimension for an entity. The result
// is always a settled assessment: research problems degrade to a failed
// layer with a reason, never an error return.
type LayerResearcher interface {
	Assess(ctx context.Context, entity model.Entity, dim model.Dimension) model.LayerAssessment
}

// WorkerOptions tune per-layer research.
type WorkerOptions struct {
	Year             int
	ResultsPerQuery  int
	QueriesPerMetric int
	QueryRetries     int
}

// Worker researches one dimension: it runs the dimension's evidence
// queries, extracts metric values from the hits, and scores the layer.
type Worker struct {
	search    youdotcom.Client
	extractor claude.Extractor
	log       *zap.Logger
	opts      WorkerOptions
}

// NewWorker builds a layer worker. Zero option fields get defaults.
func NewWorker(search youdotcom.Client, extractor claude.Extractor, log *zap.Logger, opts WorkerOptions) *Worker {
	if opts.Year <= 0 {
		opts.Year = time.Now().Year()
	}
	if opts.ResultsPerQuery <= 0 {
		opts.ResultsPerQuery = 5
	}
	if opts.QueriesPerMetric <= 0 {
		opts.QueriesPerMetric = 2
	}
	if opts.QueryRetries <= 0 {
		opts.QueryRetries = 3
	}
	return &Worker{search: search, extractor: extractor, log: log, opts: opts}
}

func (w *Worker) Assess(ctx context.Context, entity model.Entity, dim model.Dimension) model.LayerAssessment {
	started := time.Now().UTC()
	a := model.LayerAssessment{
		DimensionNumber: dim.Number,
		DimensionName:   dim.Name,
		MaxScore:        dim.Weight,
		Status:          model.LayerStatusInProgress,
	}

	var searchErrs, searchOK int
	cited := make(map[string]bool)
	for _, metric := range dim.Metrics {
		if ctx.Err() != nil {
			break
		}
		result, ok := w.researchMetric(ctx, entity, dim, metric)
		if ok {
			searchOK++
		} else {
			searchErrs++
		}
		a.Metrics = append(a.Metrics, result)
		if result.SourceURL != "" && !cited[result.SourceURL] {
			cited[result.SourceURL] = true
			a.Sources = append(a.Sources, result.SourceURL)
		}
	}

	now := time.Now().UTC()
	a.CompletedAt = &now

	// Deadline and cancellation settle the layer as failed through the
	// same path as provider outages.
	if err := ctx.Err(); err != nil {
		a.Status = model.LayerStatusFailed
		a.Score = 0
		if errors.Is(err, context.DeadlineExceeded) {
			a.FailureReason = model.FailureTimeout
		} else {
			a.FailureReason = model.FailureCancelled
		}
		return a
	}

	if searchOK == 0 && searchErrs > 0 {
		a.Status = model.LayerStatusFailed
		a.FailureReason = model.FailureProvider
		a.Score = 0
		w.log.Warn("layer failed, all evidence queries errored",
			zap.Int("dimension", dim.Number), zap.String("entity", entity.Key))
		return a
	}

	a.Status = model.LayerStatusComplete
	a.Score = scoring.LayerScore(dim, a.Metrics)
	a.Justification = w.justify(ctx, entity, dim, a.Metrics)

	w.log.Info("layer complete",
		zap.Int("dimension", dim.Number),
		zap.String("entity", entity.Key),
		zap.Float64("score", a.Score),
		zap.Duration("took", now.Sub(started)))
	return a
}

// researchMetric runs the metric's queries and extracts one value. The
// bool reports whether at least one search round-trip succeeded.
func (w *Worker) researchMetric(ctx context.Context, entity model.Entity, dim model.Dimension, metric model.Metric) (model.MetricResult, bool) {
	result := model.MetricResult{Name: metric.Name, Unit: metric.Unit}

	evidence, ok := w.gatherEvidence(ctx, entity, dim, metric)
	if len(evidence) == 0 {
		return result, ok
	}

	ex, err := w.extractor.ExtractMetric(ctx, claude.ExtractionRequest{
		Entity:      entity.Name,
		MetricName:  metric.Name,
		Description: metric.Description,
		Unit:        metric.Unit,
		Year:        w.opts.Year,
		Evidence:    evidence,
	})
	if err != nil {
		w.log.Warn("metric extraction failed",
			zap.String("metric", metric.Name), zap.Error(err))
		return result, ok
	}

	result.Value = ex.Value
	result.Year = ex.Year
	result.SourceURL = ex.SourceURL
	result.Confidence = ex.Confidence
	if ex.Unit != "" {
		result.Unit = ex.Unit
	}
	return result, ok
}

// gatherEvidence searches domain-restricted first and falls back to the
// open web when the allowlist yields nothing.
func (w *Worker) gatherEvidence(ctx context.Context, entity model.Entity, dim model.Dimension, metric model.Metric) ([]claude.Evidence, bool) {
	queries := expandQueries(metric.Queries, entity.Name, w.opts.Year, w.opts.QueriesPerMetric)

	var evidence []claude.Evidence
	var anyOK bool
	for _, q := range queries {
		hits, err := w.runQuery(ctx, q, dim.Domains)
		if err == nil && len(hits) == 0 && len(dim.Domains) > 0 {
			hits, err = w.runQuery(ctx, q, nil)
		}
		if err != nil {
			w.log.Debug("evidence query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		anyOK = true
		for _, h := range hits {
			evidence = append(evidence, claude.Evidence{
				Title:   h.Title,
				URL:     h.URL,
				Snippet: h.Snippet,
			})
		}
	}
	return evidence, anyOK
}

func (w *Worker) runQuery(ctx context.Context, query string, domains []string) ([]youdotcom.Hit, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = w.opts.QueryRetries
	cfg.ShouldRetry = resilience.IsTransient
	cfg.OnRetry = resilience.RetryLogger("youdotcom", "search")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]youdotcom.Hit, error) {
		return w.search.Search(ctx, youdotcom.SearchRequest{
			Query:      query,
			NumResults: w.opts.ResultsPerQuery,
			Domains:    domains,
		})
	})
}

func (w *Worker) justify(ctx context.Context, entity model.Entity, dim model.Dimension, metrics []model.MetricResult) string {
	var findings []string
	for _, m := range metrics {
		if m.Value == nil {
			findings = append(findings, fmt.Sprintf("%s: no reliable figure found", m.Name))
			continue
		}
		findings = append(findings, fmt.Sprintf("%s: %g %s (confidence %.2f)", m.Name, *m.Value, m.Unit, m.Confidence))
	}

	text, err := w.extractor.Justify(ctx, claude.JustificationRequest{
		Entity:    entity.Name,
		Dimension: dim.Name,
		Findings:  findings,
	})
	if err != nil {
		w.log.Warn("justification generation failed",
			zap.Int("dimension", dim.Number), zap.Error(err))
		return ""
	}
	return text
}

// expandQueries fills {entity} and {year} placeholders, capped at limit.
func expandQueries(templates []string, entity string, year, limit int) []string {
	if limit > 0 && len(templates) > limit {
		templates = templates[:limit]
	}
	out := make([]string, 0, len(templates))
	r := strings.NewReplacer("{entity}", entity, "{year}", strconv.Itoa(year))
	for _, t := range templates {
		out = append(out, r.Replace(t))
	}
	return out
}
