package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hillclimb/internal/tsp"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", "file::memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	finished := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	rec := Record{
		ID:         "tsp_1",
		Points:     4,
		Iterations: 50,
		Length:     4,
		Tour:       []int{2, 1, 0, 3, 2},
		Coords:     []tsp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}},
		FinishedAt: finished,
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "tsp_1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Points, got.Points)
	assert.Equal(t, rec.Iterations, got.Iterations)
	assert.Equal(t, rec.Length, got.Length)
	assert.Equal(t, rec.Tour, got.Tour)
	assert.Equal(t, rec.Coords, got.Coords)
	assert.True(t, finished.Equal(got.FinishedAt), "finished_at %v", got.FinishedAt)
}

func TestSaveReplacesExisting(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Record{ID: "tsp_2", Points: 3, Length: 9, Tour: []int{0, 1, 2, 0}, FinishedAt: time.Now()}))
	require.NoError(t, s.Save(ctx, Record{ID: "tsp_2", Points: 3, Length: 6, Tour: []int{0, 2, 1, 0}, FinishedAt: time.Now()}))

	got, err := s.Get(ctx, "tsp_2")
	require.NoError(t, err)
	assert.Equal(t, 6.0, got.Length)
	assert.Equal(t, []int{0, 2, 1, 0}, got.Tour)
	assert.Empty(t, got.Coords)
}

func TestGetMissing(t *testing.T) {
	s := openMemory(t)
	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveRejectsEmptyID(t *testing.T) {
	s := openMemory(t)
	assert.Error(t, s.Save(context.Background(), Record{}))
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", 1)
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: "postgres"}
	assert.Equal(t, "WHERE a = $1 AND b = $2", pg.rebind("WHERE a = ? AND b = ?"))

	lite := &Store{dialect: "sqlite"}
	assert.Equal(t, "WHERE a = ?", lite.rebind("WHERE a = ?"))
}

func TestNilStore(t *testing.T) {
	var s *Store
	assert.Error(t, s.Save(context.Background(), Record{ID: "x"}))
	_, err := s.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
