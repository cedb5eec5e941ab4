package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/naaf-labs/naaf-cli/internal/model"
)

// ErrNotFound is returned when a run or entity does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	EntityKey string `json:"entity_key,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for assessment runs. Runs are
// append-only: a finalized run is never modified, re-assessment writes a
// new record.
type Store interface {
	// SaveRun appends a finalized run and updates the entity index.
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	// ListRuns returns runs most recent first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	// LatestRun returns the newest run for an entity key.
	LatestRun(ctx context.Context, entityKey string) (*model.Run, error)
	// ListEntities returns one summary per assessed entity.
	ListEntities(ctx context.Context) ([]model.EntitySummary, error)

	Migrate(ctx context.Context) error
	Close() error
}
