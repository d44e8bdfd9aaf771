// Package runstore persists training runs and their checkpoints in SQLite so
// evaluation can resolve a run ID to its best checkpoint.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Sentinel errors for lookups.
var (
	// ErrRunNotFound indicates no run exists with the requested ID.
	ErrRunNotFound = errors.New("runstore: run not found")

	// ErrNoCheckpoints indicates the run has no registered checkpoints.
	ErrNoCheckpoints = errors.New("runstore: run has no checkpoints")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    classes     TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES runs(id),
    model_path  TEXT NOT NULL,
    vocab_path  TEXT NOT NULL,
    epoch       INTEGER NOT NULL,
    val_loss    REAL NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_run ON checkpoints(run_id);
`

// Mode selects which end of the metric ordering is "best".
type Mode string

const (
	// ModeMin treats the lowest metric value as best (losses).
	ModeMin Mode = "min"
	// ModeMax treats the highest metric value as best (scores).
	ModeMax Mode = "max"
)

// Run is a registered training run.
type Run struct {
	ID        string
	Name      string
	Classes   []string
	CreatedAt time.Time
}

// Checkpoint is one saved model state within a run.
type Checkpoint struct {
	ID        int64
	RunID     string
	ModelPath string
	VocabPath string
	Epoch     int
	ValLoss   float64
	CreatedAt time.Time
}

// Store is a SQLite-backed run registry.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the registry at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a run with its class list and returns it with a fresh
// UUID.
func (s *Store) CreateRun(ctx context.Context, name string, classes []string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Name:      name,
		Classes:   classes,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, classes, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Name, strings.Join(classes, ","), run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, classes, created_at FROM runs WHERE id = ?`, id)

	var run Run
	var classes, createdAt string
	if err := row.Scan(&run.ID, &run.Name, &classes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return Run{}, fmt.Errorf("loading run: %w", err)
	}

	if classes != "" {
		run.Classes = strings.Split(classes, ",")
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, classes, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		var classes, createdAt string
		if err := rows.Scan(&run.ID, &run.Name, &classes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if classes != "" {
			run.Classes = strings.Split(classes, ",")
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AddCheckpoint records a checkpoint for an existing run.
func (s *Store) AddCheckpoint(ctx context.Context, cp Checkpoint) (int64, error) {
	if _, err := s.GetRun(ctx, cp.RunID); err != nil {
		return 0, err
	}

	createdAt := cp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (run_id, model_path, vocab_path, epoch, val_loss, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cp.RunID, cp.ModelPath, cp.VocabPath, cp.Epoch, cp.ValLoss, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting checkpoint: %w", err)
	}
	return res.LastInsertId()
}

// BestCheckpoint returns the run's checkpoint with the lowest (ModeMin) or
// highest (ModeMax) validation loss.
func (s *Store) BestCheckpoint(ctx context.Context, runID string, mode Mode) (Checkpoint, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return Checkpoint{}, err
	}

	order := "ASC"
	if mode == ModeMax {
		order = "DESC"
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, model_path, vocab_path, epoch, val_loss, created_at
		 FROM checkpoints WHERE run_id = ?
		 ORDER BY val_loss `+order+`, id ASC LIMIT 1`, runID)

	var cp Checkpoint
	var createdAt string
	err := row.Scan(&cp.ID, &cp.RunID, &cp.ModelPath, &cp.VocabPath, &cp.Epoch, &cp.ValLoss, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, fmt.Errorf("%w: %s", ErrNoCheckpoints, runID)
		}
		return Checkpoint{}, fmt.Errorf("loading checkpoint: %w", err)
	}

	cp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return cp, nil
}
