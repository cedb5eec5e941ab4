package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/naaf-labs/naaf-cli/internal/db"
	"github.com/naaf-labs/naaf-cli/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string, opts db.PoolOptions) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	entity_key   TEXT NOT NULL,
	entity_name  TEXT NOT NULL,
	overall      DOUBLE PRECISION,
	tier         TEXT,
	doc          JSONB NOT NULL,
	requested_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS entity_index (
	entity_key    TEXT PRIMARY KEY,
	entity_name   TEXT NOT NULL,
	latest_run_id TEXT NOT NULL REFERENCES runs(id),
	latest_score  DOUBLE PRECISION,
	tier          TEXT,
	run_count     INTEGER NOT NULL DEFAULT 0,
	last_updated  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_entity_key ON runs(entity_key);
CREATE INDEX IF NOT EXISTS idx_runs_requested_at ON runs(requested_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	doc, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	var overall any
	if run.Overall != nil {
		overall = *run.Overall
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, entity_key, entity_name, overall, tier, doc, requested_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Entity.Key, run.Entity.Name, overall, run.Tier,
		doc, run.RequestedAt.UTC(), run.CompletedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO entity_index (entity_key, entity_name, latest_run_id, latest_score, tier, run_count, last_updated)
		 VALUES ($1, $2, $3, $4, $5, 1, $6)
		 ON CONFLICT (entity_key) DO UPDATE SET
		   entity_name = EXCLUDED.entity_name,
		   latest_run_id = EXCLUDED.latest_run_id,
		   latest_score = EXCLUDED.latest_score,
		   tier = EXCLUDED.tier,
		   run_count = entity_index.run_count + 1,
		   last_updated = EXCLUDED.last_updated`,
		run.Entity.Key, run.Entity.Name, run.ID, overall, run.Tier, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update entity index for %s", run.Entity.Key)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM runs WHERE id = $1`, runID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return unmarshalRun(string(doc))
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT doc FROM runs`
	var args []any
	if filter.EntityKey != "" {
		args = append(args, filter.EntityKey)
		query += ` WHERE entity_key = $1`
	}
	query += ` ORDER BY requested_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		run, err := unmarshalRun(string(doc))
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) LatestRun(ctx context.Context, entityKey string) (*model.Run, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM runs WHERE entity_key = $1 ORDER BY requested_at DESC LIMIT 1`,
		entityKey,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest run for %s", entityKey)
	}
	return unmarshalRun(string(doc))
}

func (s *PostgresStore) ListEntities(ctx context.Context) ([]model.EntitySummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_key, entity_name, latest_score, tier, run_count, last_updated
		 FROM entity_index ORDER BY entity_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entities")
	}
	defer rows.Close()

	var out []model.EntitySummary
	for rows.Next() {
		var (
			es    model.EntitySummary
			score *float64
			tier  *string
		)
		if err := rows.Scan(&es.EntityKey, &es.Entity, &score, &tier, &es.RunCount, &es.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entity")
		}
		if score != nil {
			es.LatestScore = *score
		}
		if tier != nil {
			es.Tier = *tier
		}
		out = append(out, es)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate entities")
}
