package tsp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTour(t *testing.T) {
	tests := []struct {
		name    string
		seq     []int
		n       int
		wantErr error
	}{
		{name: "valid", seq: []int{2, 0, 1, 3, 2}, n: 4},
		{name: "too short", seq: []int{0, 1, 0}, n: 4, wantErr: ErrInvalidTour},
		{name: "not closed", seq: []int{0, 1, 2, 3, 1}, n: 4, wantErr: ErrInvalidTour},
		{name: "duplicate", seq: []int{0, 1, 1, 3, 0}, n: 4, wantErr: ErrInvalidTour},
		{name: "out of range", seq: []int{0, 1, 5, 3, 0}, n: 4, wantErr: ErrIndexOutOfRange},
		{name: "negative", seq: []int{-1, 1, 2, -1}, n: 3, wantErr: ErrIndexOutOfRange},
		{name: "one point", seq: []int{0, 0}, n: 1, wantErr: ErrTooFewPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTour(tt.seq, tt.n)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNewTourScoresAndOwnsSequence(t *testing.T) {
	dist := unitSquare(t)
	seq := []int{0, 1, 2, 3, 0}

	tour, err := NewTour(dist, seq)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, tour.Length(), 1e-12)
	assert.Equal(t, 4, tour.Points())

	seq[1] = 3
	assert.Equal(t, []int{0, 1, 2, 3, 0}, tour.Sequence())

	out := tour.Sequence()
	out[0] = 9
	assert.Equal(t, 0, tour.Sequence()[0])

	_, err = NewTour(dist, []int{0, 1, 2, 0})
	assert.True(t, errors.Is(err, ErrInvalidTour))
}

func TestCloneDoesNotAlias(t *testing.T) {
	dist := unitSquare(t)
	tour := mustTour(t, dist, 0, 1, 2, 3, 0)

	clone := tour.Clone()
	SwapElements(clone.seq, 1, 2)

	assert.Equal(t, []int{0, 1, 2, 3, 0}, tour.Sequence())
	assert.Equal(t, []int{0, 2, 1, 3, 0}, clone.Sequence())
}

func TestCloseTour(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2, 0, 3}, CloseTour([]int{3, 1, 2, 0}))
	assert.Nil(t, CloseTour(nil))
}

func TestZeroTour(t *testing.T) {
	var tour Tour
	assert.True(t, tour.IsZero())
	assert.Equal(t, 0, tour.Points())
}
