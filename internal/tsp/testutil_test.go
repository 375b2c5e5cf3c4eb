package tsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedSource replays fixed draws so mutations are fully determined.
type scriptedSource struct {
	floats []float64
	ints   []int
	pairs  [][2]int
}

func (s *scriptedSource) Float64() (float64, error) {
	if len(s.floats) == 0 {
		return 0, ErrEntropy
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v, nil
}

func (s *scriptedSource) Intn(n int) (int, error) {
	if len(s.ints) == 0 {
		return 0, ErrEntropy
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n, nil
}

func (s *scriptedSource) IndexPair(low, high int) (int, int, error) {
	if high-low < 2 {
		return 0, 0, ErrSamplingRange
	}
	if len(s.pairs) == 0 {
		return 0, 0, ErrEntropy
	}
	p := s.pairs[0]
	s.pairs = s.pairs[1:]
	return p[0], p[1], nil
}

// unitSquare returns the corners (0,0),(0,1),(1,1),(1,0).
func unitSquare(t *testing.T) *DistanceModel {
	t.Helper()
	dist, err := NewDistanceModelFromPoints([]Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}})
	require.NoError(t, err)
	return dist
}

// ringPoints places n points on a circle of radius 10.
func ringPoints(t *testing.T, n int) *DistanceModel {
	t.Helper()
	pts := make([]Point, n)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{X: 10 * math.Cos(angle), Y: 10 * math.Sin(angle)}
	}
	dist, err := NewDistanceModelFromPoints(pts)
	require.NoError(t, err)
	return dist
}

func mustTour(t *testing.T, dist *DistanceModel, seq ...int) Tour {
	t.Helper()
	tour, err := NewTour(dist, seq)
	require.NoError(t, err)
	return tour
}

func requireValidTour(t *testing.T, tour Tour, n int) {
	t.Helper()
	require.NoError(t, ValidateTour(tour.Sequence(), n))
}
