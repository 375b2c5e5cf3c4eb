package tsp

// MoveKind identifies the neighborhood move applied by a mutation.
type MoveKind int

const (
	// MoveReverse reverses a contiguous segment (2-opt).
	MoveReverse MoveKind = iota
	// MoveSwap exchanges two positions (or-opt style).
	MoveSwap
)

// String returns the move name.
func (k MoveKind) String() string {
	switch k {
	case MoveReverse:
		return "reverse"
	case MoveSwap:
		return "swap"
	default:
		return "unknown"
	}
}

// Move records the move a mutation applied.
type Move struct {
	Kind MoveKind
	I, J int
}

// DefaultReservedTail is the number of trailing open-tour positions excluded
// from mutation sampling. With one reserved position, pairs come from
// [0, N-1), matching the long-standing behaviour of this heuristic.
const DefaultReservedTail = 1

// reverseProbability splits draws between reversal and swap moves.
const reverseProbability = 0.5

// ReverseSegment reverses seq[m..n] inclusive in place.
func ReverseSegment(seq []int, m, n int) {
	for m < n {
		seq[m], seq[n] = seq[n], seq[m]
		m++
		n--
	}
}

// SwapElements exchanges seq[m] and seq[n] in place.
func SwapElements(seq []int, m, n int) {
	seq[m], seq[n] = seq[n], seq[m]
}

// Mutator produces one neighbor of a tour per call.
type Mutator struct {
	dist     *DistanceModel
	src      RandomSource
	reserved int
}

// MutatorOption configures a Mutator.
type MutatorOption func(*Mutator)

// WithReservedTail sets how many trailing open-tour positions are never
// chosen as move endpoints. Values below zero are treated as zero.
func WithReservedTail(r int) MutatorOption {
	return func(m *Mutator) {
		if r < 0 {
			r = 0
		}
		m.reserved = r
	}
}

// NewMutator returns a Mutator scoring against dist and drawing from src.
func NewMutator(dist *DistanceModel, src RandomSource, opts ...MutatorOption) *Mutator {
	m := &Mutator{
		dist:     dist,
		src:      src,
		reserved: DefaultReservedTail,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SamplingRange returns the half-open range [0, high) move endpoints are
// drawn from for a tour over n points.
func (m *Mutator) SamplingRange(n int) (int, int) {
	return 0, n - m.reserved
}

// Mutate returns a neighbor of t. t is left unmodified and shares no storage
// with the result.
func (m *Mutator) Mutate(t Tour) (Tour, error) {
	next, _, err := m.MutateMove(t)
	return next, err
}

// MutateMove is Mutate that also reports the move applied.
func (m *Mutator) MutateMove(t Tour) (Tour, Move, error) {
	const op = "Mutate"

	n := t.Points()
	if n != m.dist.Len() {
		return Tour{}, Move{}, newError("mutate", op, ErrDimensionMismatch, "tour has %d points, distance model %d", n, m.dist.Len())
	}
	low, high := m.SamplingRange(n)
	if high-low < 2 {
		return Tour{}, Move{}, newError("mutate", op, ErrSamplingRange, "%d points with %d reserved", n, m.reserved)
	}

	seq := append([]int(nil), t.seq...)

	r, err := m.src.Float64()
	if err != nil {
		return Tour{}, Move{}, wrapError("mutate", op, err)
	}
	i, j, err := m.src.IndexPair(low, high)
	if err != nil {
		return Tour{}, Move{}, wrapError("mutate", op, err)
	}

	var mv Move
	if r < reverseProbability {
		if i > j {
			i, j = j, i
		}
		ReverseSegment(seq, i, j)
		mv = Move{Kind: MoveReverse, I: i, J: j}
	} else {
		SwapElements(seq, i, j)
		mv = Move{Kind: MoveSwap, I: i, J: j}
	}
	seq[n] = seq[0]

	return Tour{seq: seq, length: m.dist.tourLength(seq)}, mv, nil
}
