package tsp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseSegment(t *testing.T) {
	tests := []struct {
		name string
		m, n int
		want []int
	}{
		{"middle", 1, 3, []int{0, 3, 2, 1, 4}},
		{"whole", 0, 4, []int{4, 3, 2, 1, 0}},
		{"single", 2, 2, []int{0, 1, 2, 3, 4}},
		{"pair", 3, 4, []int{0, 1, 2, 4, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := []int{0, 1, 2, 3, 4}
			ReverseSegment(seq, tt.m, tt.n)
			assert.Equal(t, tt.want, seq)
		})
	}
}

func TestSwapElements(t *testing.T) {
	seq := []int{0, 1, 2, 3}
	SwapElements(seq, 0, 3)
	assert.Equal(t, []int{3, 1, 2, 0}, seq)
	SwapElements(seq, 2, 2)
	assert.Equal(t, []int{3, 1, 2, 0}, seq)
}

func TestMutateScripted(t *testing.T) {
	dist := unitSquare(t)
	crossed := 2 + 2*math.Sqrt2

	tests := []struct {
		name     string
		start    []int
		float    float64
		pair     [2]int
		wantSeq  []int
		wantLen  float64
		wantMove Move
	}{
		{
			name:     "reversal uncrosses tour",
			start:    []int{0, 2, 1, 3, 0},
			float:    0.2,
			pair:     [2]int{2, 1},
			wantSeq:  []int{0, 1, 2, 3, 0},
			wantLen:  4,
			wantMove: Move{Kind: MoveReverse, I: 1, J: 2},
		},
		{
			name:     "reversal touching the start repairs closure",
			start:    []int{0, 1, 2, 3, 0},
			float:    0.49,
			pair:     [2]int{0, 2},
			wantSeq:  []int{2, 1, 0, 3, 2},
			wantLen:  4,
			wantMove: Move{Kind: MoveReverse, I: 0, J: 2},
		},
		{
			name:     "swap touching the start repairs closure",
			start:    []int{0, 1, 2, 3, 0},
			float:    0.7,
			pair:     [2]int{1, 0},
			wantSeq:  []int{1, 0, 2, 3, 1},
			wantLen:  crossed,
			wantMove: Move{Kind: MoveSwap, I: 1, J: 0},
		},
		{
			name:     "swap at threshold",
			start:    []int{0, 1, 2, 3, 0},
			float:    0.5,
			pair:     [2]int{1, 2},
			wantSeq:  []int{0, 2, 1, 3, 0},
			wantLen:  crossed,
			wantMove: Move{Kind: MoveSwap, I: 1, J: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{floats: []float64{tt.float}, pairs: [][2]int{tt.pair}}
			mut := NewMutator(dist, src)
			start := mustTour(t, dist, tt.start...)

			next, mv, err := mut.MutateMove(start)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeq, next.Sequence())
			assert.InDelta(t, tt.wantLen, next.Length(), 1e-12)
			assert.Equal(t, tt.wantMove, mv)
			assert.Equal(t, tt.start, start.Sequence(), "input tour must not change")
		})
	}
}

func TestMutateKeepsInvariants(t *testing.T) {
	dist := ringPoints(t, 30)
	src := NewSeededSource(3)
	mut := NewMutator(dist, src)

	tour, err := RandomTour(dist, src)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		before := tour.Sequence()
		beforeLen := tour.Length()

		next, err := mut.Mutate(tour)
		require.NoError(t, err)
		requireValidTour(t, next, 30)

		want, err := dist.TourLength(next.Sequence())
		require.NoError(t, err)
		require.Equal(t, want, next.Length(), "cached length must match")

		// Mutating the result further never reaches back into the input.
		further, err := mut.Mutate(next)
		require.NoError(t, err)
		_ = further
		require.Equal(t, before, tour.Sequence())
		require.Equal(t, beforeLen, tour.Length())

		tour = next
	}
}

func TestMutateNeverPicksReservedTail(t *testing.T) {
	dist := ringPoints(t, 6)
	for _, reserved := range []int{0, 1, 2} {
		src := NewSeededSource(uint64(reserved) + 11)
		mut := NewMutator(dist, src, WithReservedTail(reserved))
		tour, err := RandomTour(dist, src)
		require.NoError(t, err)

		low, high := mut.SamplingRange(6)
		assert.Equal(t, 0, low)
		assert.Equal(t, 6-reserved, high)

		for i := 0; i < 300; i++ {
			_, mv, err := mut.MutateMove(tour)
			require.NoError(t, err)
			assert.Less(t, mv.I, high)
			assert.Less(t, mv.J, high)
		}
	}
}

func TestMutateSmallTours(t *testing.T) {
	three, err := NewDistanceModel([][]float64{{0, 1, 2}, {1, 0, 3}, {2, 3, 0}})
	require.NoError(t, err)

	t.Run("three points with default range", func(t *testing.T) {
		src := NewCryptoSource()
		mut := NewMutator(three, src)
		tour, err := RandomTour(three, src)
		require.NoError(t, err)
		for i := 0; i < 100; i++ {
			tour, err = mut.Mutate(tour)
			require.NoError(t, err)
			requireValidTour(t, tour, 3)
			assert.InDelta(t, 6.0, tour.Length(), 1e-12)
		}
	})

	t.Run("three points with two reserved", func(t *testing.T) {
		mut := NewMutator(three, NewCryptoSource(), WithReservedTail(2))
		_, err := mut.Mutate(mustTour(t, three, 0, 1, 2, 0))
		assert.True(t, errors.Is(err, ErrSamplingRange), "got %v", err)
	})

	t.Run("two points", func(t *testing.T) {
		two, err := NewDistanceModel([][]float64{{0, 1}, {1, 0}})
		require.NoError(t, err)
		mut := NewMutator(two, NewCryptoSource())
		_, err = mut.Mutate(mustTour(t, two, 0, 1, 0))
		assert.True(t, errors.Is(err, ErrSamplingRange), "got %v", err)
	})

	t.Run("mismatched tour", func(t *testing.T) {
		mut := NewMutator(three, NewCryptoSource())
		_, err := mut.Mutate(mustTour(t, unitSquare(t), 0, 1, 2, 3, 0))
		assert.True(t, errors.Is(err, ErrDimensionMismatch))
	})
}

func TestMutateRandomFailure(t *testing.T) {
	dist := unitSquare(t)
	mut := NewMutator(dist, &scriptedSource{})
	_, err := mut.Mutate(mustTour(t, dist, 0, 1, 2, 3, 0))
	assert.True(t, errors.Is(err, ErrEntropy))
}

func TestMoveKindString(t *testing.T) {
	assert.Equal(t, "reverse", MoveReverse.String())
	assert.Equal(t, "swap", MoveSwap.String())
	assert.Equal(t, "unknown", MoveKind(7).String())
}
