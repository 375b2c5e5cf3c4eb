// Package embed recovers approximate planar coordinates from a distance
// matrix so that tours given only as distances can be drawn.
package embed

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/hillclimb/internal/tsp"
)

// Embed returns one point per matrix row. Point 0 is the origin of the
// embedding; the result is defined up to rotation and reflection.
//
// It forms M[i][j] = ½(d(0,i)² + d(0,j)² − d(i,j)²), which for Euclidean
// input is the Gram matrix of positions relative to point 0, and keeps the
// two leading eigenvectors scaled by the square root of their eigenvalues.
func Embed(dist *tsp.DistanceModel) ([]tsp.Point, error) {
	n := dist.Len()
	d := dist.Matrix()

	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d0i, d0j, dij := d.At(0, i), d.At(0, j), d.At(i, j)
			gram.SetSym(i, j, 0.5*(d0i*d0i+d0j*d0j-dij*dij))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(gram, true); !ok {
		return nil, &tsp.Error{Component: "embed", Op: "Embed", Message: "eigen decomposition did not converge"}
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	points := make([]tsp.Point, n)
	for axis := 0; axis < 2 && axis < n; axis++ {
		col := order[axis]
		scale := math.Sqrt(math.Max(values[col], 0))
		for i := 0; i < n; i++ {
			v := vectors.At(i, col) * scale
			if axis == 0 {
				points[i].X = v
			} else {
				points[i].Y = v
			}
		}
	}
	return points, nil
}
