// Package store persists the best solution of each finished search.
// Only the final best tour is kept; per-iteration history never reaches the
// database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/copyleftdev/hillclimb/internal/errors"
	"github.com/copyleftdev/hillclimb/internal/tsp"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = stderrors.New("result not found")

// Record is a persisted best solution.
type Record struct {
	ID         string
	Points     int
	Iterations int
	Length     float64
	Tour       []int
	// Coords holds the input coordinates; empty for matrix input.
	Coords     []tsp.Point
	FinishedAt time.Time
}

// Store is a SQL-backed result store.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to the database of the given type ("sqlite" or "postgres")
// and creates the schema if needed.
func Open(ctx context.Context, dbType, dsn string, maxConns int) (*Store, error) {
	var driver string
	switch dbType {
	case "sqlite":
		driver = "sqlite"
	case "postgres":
		driver = "pgx"
	default:
		return nil, errors.Errorf("unsupported database type %q", dbType).WithOperation("Open").WithComponent("store")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", dbType).WithOperation("Open").WithComponent("store")
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	if dbType == "sqlite" {
		// One writer; an in-memory database lives on its only connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "verify %s connection", dbType).WithOperation("Open").WithComponent("store")
	}

	s := &Store{db: db, dialect: dbType}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	q := `
	CREATE TABLE IF NOT EXISTS tour_results (
		id TEXT PRIMARY KEY,
		points INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		length DOUBLE PRECISION NOT NULL,
		tour TEXT NOT NULL,
		coords TEXT NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "create tour_results table").WithOperation("initSchema").WithComponent("store")
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save inserts or replaces the record with rec.ID.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if s == nil || s.db == nil {
		return errors.New("store: db is nil")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("save result: id must not be empty").WithOperation("Save").WithComponent("store")
	}

	tour, err := json.Marshal(rec.Tour)
	if err != nil {
		return errors.Wrap(err, "encode tour").WithOperation("Save").WithComponent("store")
	}
	coords, err := json.Marshal(rec.Coords)
	if err != nil {
		return errors.Wrap(err, "encode coords").WithOperation("Save").WithComponent("store")
	}

	q := s.rebind(`
	INSERT INTO tour_results (id, points, iterations, length, tour, coords, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET points = EXCLUDED.points,
		iterations = EXCLUDED.iterations,
		length = EXCLUDED.length,
		tour = EXCLUDED.tour,
		coords = EXCLUDED.coords,
		finished_at = EXCLUDED.finished_at;
	`)
	if _, err := s.db.ExecContext(ctx, q, rec.ID, rec.Points, rec.Iterations, rec.Length, string(tour), string(coords), rec.FinishedAt.UTC()); err != nil {
		return errors.Wrapf(err, "save result id=%q", rec.ID).WithOperation("Save").WithComponent("store")
	}
	return nil
}

// Get returns the record for id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db is nil")
	}

	q := s.rebind(`
	SELECT id, points, iterations, length, tour, coords, finished_at
	FROM tour_results
	WHERE id = ?;
	`)

	var (
		rec          Record
		tour, coords string
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &rec.Points, &rec.Iterations, &rec.Length, &tour, &coords, &rec.FinishedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get result id=%q", id).WithOperation("Get").WithComponent("store")
	}
	if err := json.Unmarshal([]byte(tour), &rec.Tour); err != nil {
		return nil, errors.Wrapf(err, "decode tour id=%q", id).WithOperation("Get").WithComponent("store")
	}
	if err := json.Unmarshal([]byte(coords), &rec.Coords); err != nil {
		return nil, errors.Wrapf(err, "decode coords id=%q", id).WithOperation("Get").WithComponent("store")
	}
	return &rec, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
