package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/naaf-labs/naaf-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	entity_key   TEXT NOT NULL,
	entity_name  TEXT NOT NULL,
	overall      REAL,
	tier         TEXT,
	doc          TEXT NOT NULL,
	requested_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS entity_index (
	entity_key    TEXT PRIMARY KEY,
	entity_name   TEXT NOT NULL,
	latest_run_id TEXT NOT NULL REFERENCES runs(id),
	latest_score  REAL,
	tier          TEXT,
	run_count     INTEGER NOT NULL DEFAULT 0,
	last_updated  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_entity_key ON runs(entity_key);
CREATE INDEX IF NOT EXISTS idx_runs_requested_at ON runs(requested_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	doc, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var overall any
	if run.Overall != nil {
		overall = *run.Overall
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, entity_key, entity_name, overall, tier, doc, requested_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Entity.Key, run.Entity.Name, overall, run.Tier,
		string(doc), run.RequestedAt.UTC(), nullableTime(run.CompletedAt),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entity_index (entity_key, entity_name, latest_run_id, latest_score, tier, run_count, last_updated)
		 VALUES (?, ?, ?, ?, ?, 1, ?)
		 ON CONFLICT(entity_key) DO UPDATE SET
		   entity_name = excluded.entity_name,
		   latest_run_id = excluded.latest_run_id,
		   latest_score = excluded.latest_score,
		   tier = excluded.tier,
		   run_count = run_count + 1,
		   last_updated = excluded.last_updated`,
		run.Entity.Key, run.Entity.Name, run.ID, overall, run.Tier, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update entity index for %s", run.Entity.Key)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM runs WHERE id = ?`, runID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return unmarshalRun(doc)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT doc FROM runs`
	var args []any
	if filter.EntityKey != "" {
		query += ` WHERE entity_key = ?`
		args = append(args, filter.EntityKey)
	}
	query += ` ORDER BY requested_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		run, err := unmarshalRun(doc)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) LatestRun(ctx context.Context, entityKey string) (*model.Run, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM runs WHERE entity_key = ? ORDER BY requested_at DESC LIMIT 1`,
		entityKey,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest run for %s", entityKey)
	}
	return unmarshalRun(doc)
}

func (s *SQLiteStore) ListEntities(ctx context.Context) ([]model.EntitySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_key, entity_name, latest_score, tier, run_count, last_updated
		 FROM entity_index ORDER BY entity_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entities")
	}
	defer rows.Close()

	var out []model.EntitySummary
	for rows.Next() {
		var (
			es    model.EntitySummary
			score sql.NullFloat64
			tier  sql.NullString
		)
		if err := rows.Scan(&es.EntityKey, &es.Entity, &score, &tier, &es.RunCount, &es.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entity")
		}
		es.LatestScore = score.Float64
		es.Tier = tier.String
		out = append(out, es)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate entities")
}

func unmarshalRun(doc string) (*model.Run, error) {
	var run model.Run
	if err := json.Unmarshal([]byte(doc), &run); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal run")
	}
	return &run, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
