// Package render draws tours as line-and-marker diagrams.
//
// Rendering works on a Snapshot copied out of the search, so drawing never
// touches live search state.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/copyleftdev/hillclimb/internal/tsp"
)

var (
	edgeColor  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	firstColor = color.RGBA{R: 220, G: 20, B: 20, A: 255}
)

// arrowScale sizes the arrow head relative to the diagram's diagonal.
const arrowScale = 0.04

// Snapshot is an immutable view of what to draw.
type Snapshot struct {
	// Points holds one coordinate per point index.
	Points []tsp.Point
	// Sequence is a closed tour over Points. When empty only markers are drawn.
	Sequence []int
	// Title is drawn above the diagram.
	Title string
}

// Options controls the output image.
type Options struct {
	Width  vg.Length
	Height vg.Length
	// Format is any format accepted by plot.WriterTo, e.g. "png" or "svg".
	Format string
}

// DefaultOptions returns a 10×10 inch PNG.
func DefaultOptions() Options {
	return Options{Width: 10 * vg.Inch, Height: 10 * vg.Inch, Format: "png"}
}

// NewSnapshot copies points and seq.
func NewSnapshot(points []tsp.Point, seq []int, title string) Snapshot {
	return Snapshot{
		Points:   append([]tsp.Point(nil), points...),
		Sequence: append([]int(nil), seq...),
		Title:    title,
	}
}

// Draw writes the diagram for snap to w.
func Draw(w io.Writer, snap Snapshot, opts Options) error {
	p, err := Plot(snap)
	if err != nil {
		return err
	}
	if opts.Width == 0 || opts.Height == 0 {
		def := DefaultOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Format == "" {
		opts.Format = "png"
	}

	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("render: create %s writer: %w", opts.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render: write image: %w", err)
	}
	return nil
}

// Plot builds the plot for snap without encoding it.
func Plot(snap Snapshot) (*plot.Plot, error) {
	if len(snap.Points) == 0 {
		return nil, fmt.Errorf("render: no points")
	}
	if len(snap.Sequence) > 0 {
		if err := tsp.ValidateTour(snap.Sequence, len(snap.Points)); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
	}

	p := plot.New()
	p.Title.Text = snap.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	markers := make(plotter.XYs, len(snap.Points))
	labels := make([]string, len(snap.Points))
	for i, pt := range snap.Points {
		markers[i] = plotter.XY{X: pt.X, Y: pt.Y}
		labels[i] = fmt.Sprintf("c-%d", i)
	}

	if len(snap.Sequence) > 0 {
		path := make(plotter.XYs, len(snap.Sequence))
		for k, idx := range snap.Sequence {
			path[k] = markers[idx]
		}

		edges, err := plotter.NewLine(path)
		if err != nil {
			return nil, fmt.Errorf("render: tour line: %w", err)
		}
		edges.LineStyle.Color = edgeColor
		edges.LineStyle.Width = vg.Points(1.5)
		p.Add(edges)

		first, err := plotter.NewLine(path[:2])
		if err != nil {
			return nil, fmt.Errorf("render: first edge: %w", err)
		}
		first.LineStyle.Color = firstColor
		first.LineStyle.Width = vg.Points(2)
		p.Add(first)

		head, err := arrowHead(path[0], path[1], diagonal(markers))
		if err != nil {
			return nil, err
		}
		p.Add(head)
	}

	scatter, err := plotter.NewScatter(markers)
	if err != nil {
		return nil, fmt.Errorf("render: markers: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.BoxGlyph{}
	scatter.GlyphStyle.Color = edgeColor
	scatter.GlyphStyle.Radius = vg.Points(4)
	p.Add(scatter)

	names, err := plotter.NewLabels(plotter.XYLabels{XYs: markers, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("render: labels: %w", err)
	}
	p.Add(names)

	return p, nil
}

// arrowHead returns a filled triangle pointing from a to b with its tip at b.
func arrowHead(a, b plotter.XY, diag float64) (*plotter.Polygon, error) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		dx, dy, length = 1, 0, 1
	}
	ux, uy := dx/length, dy/length
	size := arrowScale * diag
	if size == 0 {
		size = arrowScale
	}
	baseX, baseY := b.X-ux*size, b.Y-uy*size
	half := size / 2

	tri := plotter.XYs{
		{X: b.X, Y: b.Y},
		{X: baseX - uy*half, Y: baseY + ux*half},
		{X: baseX + uy*half, Y: baseY - ux*half},
	}
	poly, err := plotter.NewPolygon(tri)
	if err != nil {
		return nil, fmt.Errorf("render: arrow head: %w", err)
	}
	poly.Color = firstColor
	poly.LineStyle.Color = firstColor
	return poly, nil
}

func diagonal(xys plotter.XYs) float64 {
	xmin, xmax, ymin, ymax := plotter.XYRange(xys)
	return math.Hypot(xmax-xmin, ymax-ymin)
}
