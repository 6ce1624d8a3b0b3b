package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/trajcost/internal/goal"

	_ "modernc.org/sqlite"
)

var ErrLedgerClosed = errors.New("storage: ledger is not open")

// Evaluation is one scoring of a stored run under a particular goal setup.
type Evaluation struct {
	ID         string
	RunID      string
	Goal       GoalSettings
	Integral   float64
	Cost       float64
	Total      float64
	Quadrature string
	CreatedAt  time.Time
}

// Ledger keeps the history of evaluations in a sqlite database.
type Ledger struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func OpenLedger(ctx context.Context, path string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("storage: ledger path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{path: path, db: db}, nil
}

// Record stores e, assigning an id and timestamp when they are unset.
func (l *Ledger) Record(ctx context.Context, e Evaluation) (string, error) {
	db, err := l.getDB()
	if err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	weights, err := json.Marshal(e.Goal.Weights)
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, run_id, goal, exponent, divide_by_displacement, weights,
			integral, cost, total, quadrature, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.RunID, e.Goal.Name, e.Goal.Exponent, e.Goal.DivideByDisplacement, string(weights),
		e.Integral, e.Cost, e.Total, e.Quadrature, e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("record evaluation for %s: %w", e.RunID, err)
	}
	return e.ID, nil
}

// History returns the evaluations of runID in the order they were recorded.
func (l *Ledger) History(ctx context.Context, runID string) ([]Evaluation, error) {
	db, err := l.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, goal, exponent, divide_by_displacement, weights,
			integral, cost, total, quadrature, created_at
		FROM evaluations WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			e         Evaluation
			weights   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Goal.Name, &e.Goal.Exponent, &e.Goal.DivideByDisplacement,
			&weights, &e.Integral, &e.Cost, &e.Total, &e.Quadrature, &createdAt); err != nil {
			return nil, err
		}
		var ws []goal.Weight
		if err := json.Unmarshal([]byte(weights), &ws); err != nil {
			return nil, fmt.Errorf("decode weights of %s: %w", e.ID, err)
		}
		e.Goal.Weights = ws
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("decode timestamp of %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func (l *Ledger) getDB() (*sql.DB, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.db == nil {
		return nil, ErrLedgerClosed
	}
	return l.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL,
			goal TEXT NOT NULL,
			exponent REAL NOT NULL,
			divide_by_displacement INTEGER NOT NULL,
			weights TEXT NOT NULL,
			integral REAL NOT NULL,
			cost REAL NOT NULL,
			total REAL NOT NULL,
			quadrature TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS evaluations_run ON evaluations (run_id);
	`)
	return err
}
