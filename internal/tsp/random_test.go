package tsp

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestCryptoSourceFloat64(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v, err := src.Float64()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestIndexPair(t *testing.T) {
	sources := map[string]RandomSource{
		"crypto": NewCryptoSource(),
		"seeded": NewSeededSource(42),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			seen := make(map[[2]int]bool)
			for i := 0; i < 2000; i++ {
				a, b, err := src.IndexPair(3, 7)
				require.NoError(t, err)
				assert.NotEqual(t, a, b)
				assert.GreaterOrEqual(t, a, 3)
				assert.Less(t, a, 7)
				assert.GreaterOrEqual(t, b, 3)
				assert.Less(t, b, 7)
				seen[[2]int{a, b}] = true
			}
			// 4 positions give 12 ordered pairs; all should appear.
			assert.Len(t, seen, 12)

			_, _, err := src.IndexPair(0, 1)
			assert.True(t, errors.Is(err, ErrSamplingRange))
			_, _, err = src.IndexPair(5, 2)
			assert.True(t, errors.Is(err, ErrSamplingRange))
		})
	}
}

func TestIntnRejectsNonPositive(t *testing.T) {
	_, err := NewCryptoSource().Intn(0)
	assert.True(t, errors.Is(err, ErrSamplingRange))
	_, err = NewSeededSource(1).Intn(-3)
	assert.True(t, errors.Is(err, ErrSamplingRange))
}

func TestCryptoSourceReadFailure(t *testing.T) {
	src := &CryptoSource{r: failingReader{}}

	_, err := src.Float64()
	assert.True(t, errors.Is(err, ErrEntropy))

	_, _, err = src.IndexPair(0, 5)
	assert.True(t, errors.Is(err, ErrEntropy))
}

func TestSeededSourceIsReproducible(t *testing.T) {
	a, b := NewSeededSource(99), NewSeededSource(99)
	for i := 0; i < 50; i++ {
		fa, _ := a.Float64()
		fb, _ := b.Float64()
		assert.Equal(t, fa, fb)
		ia, ja, _ := a.IndexPair(0, 10)
		ib, jb, _ := b.IndexPair(0, 10)
		assert.Equal(t, [2]int{ia, ja}, [2]int{ib, jb})
	}
}
