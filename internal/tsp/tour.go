package tsp

// Tour is a closed visiting sequence over all points paired with its length.
//
// The sequence holds N+1 indices: the first N are a permutation of [0,N) and
// the last repeats the first. The cached length always equals the distance
// model's TourLength of the sequence; only constructors in this package and
// the Mutator set it. A Tour owns its backing array, so copies made with
// Clone never alias.
type Tour struct {
	seq    []int
	length float64
}

// NewTour validates a closed sequence against dist and scores it.
func NewTour(dist *DistanceModel, seq []int) (Tour, error) {
	if err := ValidateTour(seq, dist.Len()); err != nil {
		return Tour{}, wrapError("tour", "NewTour", err)
	}
	owned := append([]int(nil), seq...)
	return Tour{seq: owned, length: dist.tourLength(owned)}, nil
}

// CloseTour returns open with its first element appended.
func CloseTour(open []int) []int {
	if len(open) == 0 {
		return nil
	}
	out := make([]int, len(open)+1)
	copy(out, open)
	out[len(open)] = open[0]
	return out
}

// ValidateTour checks that seq is a closed tour over n points.
func ValidateTour(seq []int, n int) error {
	if n < 2 {
		return newError("tour", "ValidateTour", ErrTooFewPoints, "got %d points", n)
	}
	if len(seq) != n+1 {
		return newError("tour", "ValidateTour", ErrInvalidTour, "length %d, want %d", len(seq), n+1)
	}
	if seq[0] != seq[n] {
		return newError("tour", "ValidateTour", ErrInvalidTour, "not closed: starts at %d, ends at %d", seq[0], seq[n])
	}
	seen := make([]bool, n)
	for k := 0; k < n; k++ {
		p := seq[k]
		if p < 0 || p >= n {
			return newError("tour", "ValidateTour", ErrIndexOutOfRange, "position %d holds %d", k, p)
		}
		if seen[p] {
			return newError("tour", "ValidateTour", ErrInvalidTour, "point %d visited twice", p)
		}
		seen[p] = true
	}
	return nil
}

// Sequence returns a copy of the closed sequence.
func (t Tour) Sequence() []int {
	return append([]int(nil), t.seq...)
}

// Length returns the cached tour length.
func (t Tour) Length() float64 {
	return t.length
}

// Points returns the number of distinct points visited.
func (t Tour) Points() int {
	if len(t.seq) == 0 {
		return 0
	}
	return len(t.seq) - 1
}

// IsZero reports whether t is the zero Tour.
func (t Tour) IsZero() bool {
	return t.seq == nil
}

// Clone returns a deep copy of t.
func (t Tour) Clone() Tour {
	return Tour{seq: append([]int(nil), t.seq...), length: t.length}
}
