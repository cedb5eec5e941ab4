package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naaf-labs/naaf-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRun(entity string, overall float64, at time.Time) *model.Run {
	e := model.NewEntity(entity)
	score := overall
	done := at.Add(time.Minute)
	return &model.Run{
		ID:     e.Slug() + "_" + at.Format("20060102_150405"),
		Entity: e,
		Status: model.RunStatusFinalized,
		Assessments: []model.LayerAssessment{
			{DimensionNumber: 1, DimensionName: "Energy", Score: overall, MaxScore: 100, Status: model.LayerStatusComplete},
		},
		Overall:     &score,
		Tier:        "Tier 3: Adopter",
		Version:     model.FrameworkVersion,
		RequestedAt: at,
		CompletedAt: &done,
	}
}

func TestSQLite_SaveAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := testRun("Brazil", 42.5, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "Brazil", got.Entity.Name)
	require.NotNil(t, got.Overall)
	assert.InDelta(t, 42.5, *got.Overall, 1e-9)
	assert.Len(t, got.Assessments, 1)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_AppendOnly_ReassessmentAddsRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := testRun("Brazil", 40, base)
	second := testRun("Brazil", 55, base.Add(time.Hour))
	require.NoError(t, st.SaveRun(ctx, first))
	require.NoError(t, st.SaveRun(ctx, second))

	runs, err := st.ListRuns(ctx, RunFilter{EntityKey: "brazil"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Most recent first.
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	// Earlier run is untouched.
	old, err := st.GetRun(ctx, first.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, *old.Overall, 1e-9)
}

func TestSQLite_LatestRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveRun(ctx, testRun("Brazil", 40, base)))
	latest := testRun("Brazil", 61, base.Add(2*time.Hour))
	require.NoError(t, st.SaveRun(ctx, latest))

	got, err := st.LatestRun(ctx, "brazil")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)

	_, err = st.LatestRun(ctx, "atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListRuns_LimitAndFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveRun(ctx, testRun("Brazil", 40, base)))
	require.NoError(t, st.SaveRun(ctx, testRun("India", 50, base.Add(time.Minute))))
	require.NoError(t, st.SaveRun(ctx, testRun("Brazil", 45, base.Add(2*time.Minute))))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	brazil, err := st.ListRuns(ctx, RunFilter{EntityKey: "brazil"})
	require.NoError(t, err)
	assert.Len(t, brazil, 2)
}

func TestSQLite_EntityIndex(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveRun(ctx, testRun("Brazil", 40, base)))
	require.NoError(t, st.SaveRun(ctx, testRun("Brazil", 55, base.Add(time.Hour))))
	require.NoError(t, st.SaveRun(ctx, testRun("India", 62, base.Add(time.Minute))))

	entities, err := st.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	byKey := make(map[string]model.EntitySummary)
	for _, e := range entities {
		byKey[e.EntityKey] = e
	}
	brazil := byKey["brazil"]
	assert.Equal(t, "Brazil", brazil.Entity)
	assert.Equal(t, 2, brazil.RunCount)
	assert.InDelta(t, 55.0, brazil.LatestScore, 1e-9)

	india := byKey["india"]
	assert.Equal(t, 1, india.RunCount)
	assert.InDelta(t, 62.0, india.LatestScore, 1e-9)
}
