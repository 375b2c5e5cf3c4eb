package tsp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// symTol is the tolerance used when checking symmetry and the zero diagonal.
const symTol = 1e-9

// Point is a location in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceModel wraps an immutable symmetric distance matrix.
// It is safe for concurrent reads.
type DistanceModel struct {
	n int
	m *mat.SymDense
}

// NewDistanceModel validates rows as an N×N symmetric, non-negative matrix
// with a zero diagonal and copies it into a new DistanceModel.
func NewDistanceModel(rows [][]float64) (*DistanceModel, error) {
	const op = "NewDistanceModel"

	n := len(rows)
	for i, row := range rows {
		if len(row) != n {
			return nil, newError("distance", op, ErrNonSquare, "row %d has %d entries, want %d", i, len(row), n)
		}
	}
	if n < 2 {
		return nil, newError("distance", op, ErrTooFewPoints, "got %d points", n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := rows[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, newError("distance", op, ErrInvalidDistance, "entry (%d,%d)", i, j)
			}
			if v < 0 {
				return nil, newError("distance", op, ErrNegativeDistance, "entry (%d,%d) = %g", i, j, v)
			}
			if i == j && v > symTol {
				return nil, newError("distance", op, ErrNonZeroDiagonal, "entry (%d,%d) = %g", i, j, v)
			}
			if j > i && math.Abs(v-rows[j][i]) > symTol {
				return nil, newError("distance", op, ErrAsymmetric, "entries (%d,%d)=%g and (%d,%d)=%g", i, j, v, j, i, rows[j][i])
			}
		}
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, rows[i][j])
		}
	}
	return &DistanceModel{n: n, m: m}, nil
}

// NewDistanceModelFromPoints builds a DistanceModel of straight-line Euclidean
// distances between points.
func NewDistanceModelFromPoints(points []Point) (*DistanceModel, error) {
	n := len(points)
	if n < 2 {
		return nil, newError("distance", "NewDistanceModelFromPoints", ErrTooFewPoints, "got %d points", n)
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, newError("distance", "NewDistanceModelFromPoints", ErrInvalidDistance, "point %d", i)
		}
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y))
		}
	}
	return &DistanceModel{n: n, m: m}, nil
}

// Len returns the number of points.
func (d *DistanceModel) Len() int {
	return d.n
}

// Length returns the distance between points i and j.
func (d *DistanceModel) Length(i, j int) (float64, error) {
	if i < 0 || i >= d.n || j < 0 || j >= d.n {
		return 0, newError("distance", "Length", ErrIndexOutOfRange, "(%d,%d) with %d points", i, j, d.n)
	}
	return d.m.At(i, j), nil
}

// TourLength sums the consecutive edge lengths of seq. For a closed tour this
// is the full cycle length.
func (d *DistanceModel) TourLength(seq []int) (float64, error) {
	for k, p := range seq {
		if p < 0 || p >= d.n {
			return 0, newError("distance", "TourLength", ErrIndexOutOfRange, "position %d holds %d with %d points", k, p, d.n)
		}
	}
	return d.tourLength(seq), nil
}

// tourLength assumes every index in seq is valid.
func (d *DistanceModel) tourLength(seq []int) float64 {
	total := 0.0
	for k := 0; k < len(seq)-1; k++ {
		total += d.m.At(seq[k], seq[k+1])
	}
	return total
}

// Matrix returns a copy of the underlying matrix.
func (d *DistanceModel) Matrix() *mat.SymDense {
	out := mat.NewSymDense(d.n, nil)
	out.CopySym(d.m)
	return out
}

// Rows returns the matrix as a fresh slice of rows.
func (d *DistanceModel) Rows() [][]float64 {
	rows := make([][]float64, d.n)
	for i := range rows {
		rows[i] = make([]float64, d.n)
		for j := range rows[i] {
			rows[i][j] = d.m.At(i, j)
		}
	}
	return rows
}
