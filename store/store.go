package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("store: run not found")

// fixed width so started_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run 一次离线训练的记录
type Run struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Seed         int64         `json:"seed"`
	Samples      int           `json:"samples"`
	Iterations   int           `json:"iterations"`
	LearningRate float64       `json:"learning_rate"`
	InitialLoss  float64       `json:"initial_loss"`
	FinalLoss    float64       `json:"final_loss"`
	Checkpoint   string        `json:"checkpoint"`
	Losses       []float64     `json:"losses,omitempty"`
}

// Store keeps training run history in SQLite.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection, so ":memory:" stays a single database
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		learning_rate REAL NOT NULL,
		initial_loss REAL NOT NULL,
		final_loss REAL NOT NULL,
		checkpoint TEXT NOT NULL DEFAULT '',
		losses JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_training_runs_started ON training_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts r, assigning an ID when it has none.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	losses, err := json.Marshal(r.Losses)
	if err != nil {
		return fmt.Errorf("failed to marshal losses: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO training_runs
			(id, started_at, duration_ms, seed, samples, iterations, learning_rate,
			 initial_loss, final_loss, checkpoint, losses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt.UTC().Format(timeLayout), r.Duration.Milliseconds(), r.Seed, r.Samples,
		r.Iterations, r.LearningRate, r.InitialLoss, r.FinalLoss, r.Checkpoint, string(losses))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, duration_ms, seed, samples, iterations, learning_rate,
	initial_loss, final_loss, checkpoint`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner, extra ...interface{}) (*Run, error) {
	var (
		r          Run
		startedAt  string
		durationMs int64
	)
	dest := append([]interface{}{&r.ID, &startedAt, &durationMs, &r.Seed, &r.Samples, &r.Iterations,
		&r.LearningRate, &r.InitialLoss, &r.FinalLoss, &r.Checkpoint}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	r.StartedAt = t
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return &r, nil
}

// ListRuns returns the most recent runs first, without loss curves.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM training_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var losses string
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`, losses FROM training_runs WHERE id = ?`, id)
	r, err := scanRun(row, &losses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := json.Unmarshal([]byte(losses), &r.Losses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal losses: %w", err)
	}
	return r, nil
}
