// Package research orchestrates assessment runs: it fans one worker out
// per registry dimension, aggregates their settled layers into a scored
// run, persists the result, and streams progress events along the way.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/internal/registry"
	"github.com/naaf-labs/naaf-cli/internal/scoring"
	"github.com/naaf-labs/naaf-cli/internal/store"
	"github.com/naaf-labs/naaf-cli/internal/stream"
)

// ErrInvalidEntity is returned when the requested entity name is empty
// after normalization.
var ErrInvalidEntity = eris.New("research: invalid entity name")

// CoordinatorOptions tune run execution.
type CoordinatorOptions struct {
	// Deadline bounds a whole run. Layers still in flight when it
	// expires settle as failed with a timeout reason.
	Deadline time.Duration
	// MaxConcurrent caps simultaneous layer workers. Zero means one
	// worker per dimension with no cap.
	MaxConcurrent int
}

// Coordinator owns the run lifecycle from request to persisted result.
type Coordinator struct {
	registry *registry.Registry
	worker   LayerResearcher
	store    store.Store
	broker   *stream.Broker
	log      *zap.Logger
	opts     CoordinatorOptions
	now      func() time.Time
}

// NewCoordinator wires a coordinator. The broker may be shared with an
// HTTP server streaming the same events.
func NewCoordinator(reg *registry.Registry, worker LayerResearcher, st store.Store, broker *stream.Broker, log *zap.Logger, opts CoordinatorOptions) *Coordinator {
	if opts.Deadline <= 0 {
		opts.Deadline = 5 * time.Minute
	}
	return &Coordinator{
		registry: reg,
		worker:   worker,
		store:    st,
		broker:   broker,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// NewRun validates the entity name and builds a run shell with one
// pending placeholder per dimension. It does not start any research.
func (c *Coordinator) NewRun(entityName string) (*model.Run, error) {
	entity := model.NewEntity(entityName)
	if entity.Key == "" {
		return nil, ErrInvalidEntity
	}

	requested := c.now().UTC()
	run := &model.Run{
		ID:          runID(entity, requested),
		Entity:      entity,
		Status:      model.RunStatusCreated,
		Version:     model.FrameworkVersion,
		RequestedAt: requested,
	}
	for _, dim := range c.registry.Dimensions() {
		run.Assessments = append(run.Assessments, model.LayerAssessment{
			DimensionNumber: dim.Number,
			DimensionName:   dim.Name,
			MaxScore:        dim.Weight,
			Status:          model.LayerStatusPending,
		})
	}
	return run, nil
}

// Execute runs the full assessment synchronously and returns the
// finalized run. Layer failures never abort the run; only invalid input
// or a persistence failure surfaces as an error, and in the latter case
// the finalized run is still returned alongside it.
func (c *Coordinator) Execute(ctx context.Context, run *model.Run) (*model.Run, error) {
	log := c.log.With(zap.String("run_id", run.ID), zap.String("entity", run.Entity.Key))
	log.Info("run started", zap.Int("dimensions", len(run.Assessments)))

	run.Status = model.RunStatusRunning
	c.publish(run.ID, stream.Event{
		Type:    stream.EventStatus,
		Message: fmt.Sprintf("assessing %s across %d dimensions", run.Entity.Name, len(run.Assessments)),
	})

	runCtx, cancel := context.WithTimeout(ctx, c.opts.Deadline)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	if c.opts.MaxConcurrent > 0 {
		g.SetLimit(c.opts.MaxConcurrent)
	}
	for i := range run.Assessments {
		dim := c.registry.Dimension(run.Assessments[i].DimensionNumber)
		if dim == nil {
			continue
		}
		slot := &run.Assessments[i]
		g.Go(func() error {
			slot.Status = model.LayerStatusInProgress
			*slot = c.worker.Assess(gctx, run.Entity, *dim)
			c.publish(run.ID, stream.Event{
				Type:      stream.EventLayerComplete,
				Dimension: slot.DimensionNumber,
				Message:   slot.DimensionName,
				Payload: map[string]any{
					"score":          slot.Score,
					"max_score":      slot.MaxScore,
					"status":         slot.Status,
					"failure_reason": slot.FailureReason,
				},
			})
			return nil
		})
	}
	g.Wait() // workers never return errors

	c.settleUnfinished(run, runCtx.Err())

	overall, tier := scoring.Score(run.Assessments)
	run.Overall = &overall
	run.Tier = tier
	c.publish(run.ID, stream.Event{
		Type:    stream.EventScoringComplete,
		Message: tier,
		Payload: map[string]any{"overall": overall, "tier": tier},
	})

	completed := c.now().UTC()
	run.CompletedAt = &completed
	run.CollectSources(completed)
	run.Status = model.RunStatusFinalized

	// A settled run must persist even when the caller's context is already
	// cancelled, so the write runs on a detached context with its own bound.
	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancelSave()
	if err := c.store.SaveRun(saveCtx, run); err != nil {
		log.Error("run persistence failed", zap.Error(err))
		c.publish(run.ID, stream.Event{
			Type:    stream.EventError,
			Message: "failed to persist run",
		})
		return run, eris.Wrapf(err, "research: save run %s", run.ID)
	}

	c.publish(run.ID, stream.Event{
		Type:    stream.EventComplete,
		Message: fmt.Sprintf("%s scored %.1f (%s)", run.Entity.Name, overall, tier),
		Payload: map[string]any{"overall": overall, "tier": tier},
	})
	log.Info("run finalized", zap.Float64("overall", overall), zap.String("tier", tier))
	return run, nil
}

// Assess is the one-call entry point: validate, execute, persist.
func (c *Coordinator) Assess(ctx context.Context, entityName string) (*model.Run, error) {
	run, err := c.NewRun(entityName)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, run)
}

// settleUnfinished force-fails any layer a worker never settled. This is
// the single code path for deadline and cancellation outcomes.
func (c *Coordinator) settleUnfinished(run *model.Run, cause error) {
	reason := model.FailureTimeout
	if cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
		reason = model.FailureCancelled
	}
	now := c.now().UTC()
	for i := range run.Assessments {
		a := &run.Assessments[i]
		if a.Settled() {
			continue
		}
		a.Status = model.LayerStatusFailed
		a.FailureReason = reason
		a.Score = 0
		a.CompletedAt = &now
		c.publish(run.ID, stream.Event{
			Type:      stream.EventLayerComplete,
			Dimension: a.DimensionNumber,
			Message:   a.DimensionName,
			Payload: map[string]any{
				"score":          0.0,
				"max_score":      a.MaxScore,
				"status":         a.Status,
				"failure_reason": a.FailureReason,
			},
		})
	}
}

func (c *Coordinator) publish(id string, ev stream.Event) {
	if c.broker != nil {
		c.broker.Publish(id, ev)
	}
}

// runID is <entity-slug>_<timestamp>_<short-uuid>, sortable per entity.
func runID(entity model.Entity, at time.Time) string {
	short := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("%s_%s_%s", entity.Slug(), at.Format("20060102_150405"), short)
}
