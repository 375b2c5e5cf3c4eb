package tsp

import (
	crand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand/v2"
)

// RandomSource supplies the randomness consumed by the seed generator and
// the mutation operator. Implementations are not required to be safe for
// concurrent use; every climber owns its own source.
type RandomSource interface {
	// Float64 returns a uniform value in [0,1).
	Float64() (float64, error)
	// Intn returns a uniform value in [0,n). n must be positive.
	Intn(n int) (int, error)
	// IndexPair returns two distinct values drawn uniformly without
	// replacement from [low,high). Order is unspecified.
	IndexPair(low, high int) (int, int, error)
}

// CryptoSource draws from the operating system's cryptographic entropy so
// that independent runs and processes never share correlated seeds.
type CryptoSource struct {
	r io.Reader
}

// NewCryptoSource returns a source reading from crypto/rand.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{r: crand.Reader}
}

func (s *CryptoSource) uint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(s.r, buf[:]); err != nil {
		return 0, newError("random", "read", ErrEntropy, "%v", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Float64 uses the top 53 bits of a random word.
func (s *CryptoSource) Float64() (float64, error) {
	u, err := s.uint64()
	if err != nil {
		return 0, err
	}
	return float64(u>>11) / (1 << 53), nil
}

// Intn uses rejection sampling to avoid modulo bias.
func (s *CryptoSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, newError("random", "Intn", ErrSamplingRange, "n = %d", n)
	}
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % bound)
	for {
		u, err := s.uint64()
		if err != nil {
			return 0, err
		}
		if u < limit {
			return int(u % bound), nil
		}
	}
}

// IndexPair draws two distinct indices from [low,high).
func (s *CryptoSource) IndexPair(low, high int) (int, int, error) {
	return indexPair(s, low, high)
}

// SeededSource is a deterministic PCG stream, used when a caller asks for a
// reproducible run.
type SeededSource struct {
	rng *rand.Rand
}

// NewSeededSource returns a deterministic source for seed.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 returns a value in [0,1).
func (s *SeededSource) Float64() (float64, error) {
	return s.rng.Float64(), nil
}

// Intn returns a value in [0,n).
func (s *SeededSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, newError("random", "Intn", ErrSamplingRange, "n = %d", n)
	}
	return s.rng.IntN(n), nil
}

// IndexPair draws two distinct indices from [low,high).
func (s *SeededSource) IndexPair(low, high int) (int, int, error) {
	return indexPair(s, low, high)
}

// indexPair samples without replacement: the second draw covers one fewer
// slot and skips over the first pick.
func indexPair(src interface{ Intn(int) (int, error) }, low, high int) (int, int, error) {
	span := high - low
	if span < 2 {
		return 0, 0, newError("random", "IndexPair", ErrSamplingRange, "[%d,%d)", low, high)
	}
	a, err := src.Intn(span)
	if err != nil {
		return 0, 0, err
	}
	b, err := src.Intn(span - 1)
	if err != nil {
		return 0, 0, err
	}
	if b >= a {
		b++
	}
	return low + a, low + b, nil
}
