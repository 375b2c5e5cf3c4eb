package tsp

// RandomTour returns a uniformly random closed tour over every point of dist,
// shuffled with Fisher–Yates using src.
func RandomTour(dist *DistanceModel, src RandomSource) (Tour, error) {
	n := dist.Len()
	if n < 2 {
		return Tour{}, newError("seed", "RandomTour", ErrTooFewPoints, "got %d points", n)
	}

	seq := make([]int, n+1)
	for i := 0; i < n; i++ {
		seq[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := src.Intn(i + 1)
		if err != nil {
			return Tour{}, wrapError("seed", "RandomTour", err)
		}
		seq[i], seq[j] = seq[j], seq[i]
	}
	seq[n] = seq[0]

	return Tour{seq: seq, length: dist.tourLength(seq)}, nil
}
