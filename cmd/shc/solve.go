package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/hillclimb/internal/config"
	"github.com/copyleftdev/hillclimb/internal/logging"
	"github.com/copyleftdev/hillclimb/internal/render"
	"github.com/copyleftdev/hillclimb/internal/tsp"
	"github.com/copyleftdev/hillclimb/internal/tsp/embed"
)

type solveOptions struct {
	input      string
	iterations int
	seed       uint64
	seeded     bool
	reserved   int
	verbose    bool
	plotFile   string
}

// problem is the input file format. Exactly one of Matrix and Points is set.
type problem struct {
	Matrix [][]float64 `json:"matrix,omitempty"`
	Points [][]float64 `json:"points,omitempty"`
	Tour   []int       `json:"tour,omitempty"`
}

func newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Search for a short closed tour",
		Long: `Search for a short closed tour with stochastic hill climbing.

The input is a JSON file holding either a symmetric distance matrix
{"matrix": [[0,1],[1,0]]} or planar points {"points": [[0,0],[3,4]]},
and optionally a closed starting tour {"tour": [0,2,1,0]}.

Examples:
  shc solve -i cities.json
  shc solve -i cities.json -n 500 --seed 7 -v
  shc solve -i matrix.json -o tour.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seeded = cmd.Flags().Changed("seed")
			return runSolve(cmd, opts)
		},
	}

	solveCmd.Flags().StringVarP(&opts.input, "input", "i", "-", "Input JSON file, - for stdin")
	solveCmd.Flags().IntVarP(&opts.iterations, "iterations", "n", config.GetEnvAsInt("SEARCH_DEFAULT_ITERATIONS", tsp.DefaultIterations), "Number of mutations to try")
	solveCmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for a reproducible run (default: operating system entropy)")
	solveCmd.Flags().IntVar(&opts.reserved, "reserved", config.GetEnvAsInt("SEARCH_RESERVED_TAIL", tsp.DefaultReservedTail), "Trailing tour positions never chosen for mutation")
	solveCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print the best distance after every iteration")
	solveCmd.Flags().StringVarP(&opts.plotFile, "output", "o", "", "Write a plot of the best tour (.png or .svg)")

	return solveCmd
}

func runSolve(cmd *cobra.Command, opts *solveOptions) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	prob, err := readProblem(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}
	dist, points, err := prob.distances()
	if err != nil {
		return err
	}

	var src tsp.RandomSource = tsp.NewCryptoSource()
	if opts.seeded {
		src = tsp.NewSeededSource(opts.seed)
	}

	var initial tsp.Tour
	if len(prob.Tour) > 0 {
		initial, err = tsp.NewTour(dist, prob.Tour)
	} else {
		initial, err = tsp.RandomTour(dist, src)
	}
	if err != nil {
		return err
	}

	mutator := tsp.NewMutator(dist, src, tsp.WithReservedTail(opts.reserved))
	climber := tsp.NewHillClimber(dist, mutator, tsp.WithLogger(logging.NewZapLogger(logger)))

	out := cmd.OutOrStdout()
	cfg := tsp.Config{Iterations: opts.iterations}
	if opts.verbose {
		cfg.Observer = func(iteration int, best float64) {
			fmt.Fprintf(out, "Iteration = %d -> Distance = %g\n", iteration, best)
		}
	}

	result, err := climber.Run(cmd.Context(), initial, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Seed distance: %g\n", result.Seed.Length())
	fmt.Fprintf(out, "Best tour: %s\n", formatTour(result.Best.Sequence()))
	fmt.Fprintf(out, "Best distance: %g\n", result.Best.Length())
	fmt.Fprintf(out, "Improvements: %d of %d\n", result.Improvements, result.Iterations)

	if opts.plotFile == "" {
		return nil
	}
	if points == nil {
		if points, err = embed.Embed(dist); err != nil {
			return err
		}
	}
	if err := writePlot(opts.plotFile, points, result.Best); err != nil {
		return err
	}
	logger.Info("Plot written", map[string]interface{}{"file": opts.plotFile})
	return nil
}

func readProblem(stdin io.Reader, path string) (*problem, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var prob problem
	if err := json.NewDecoder(r).Decode(&prob); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return &prob, nil
}

// distances builds the distance model. points is nil for matrix input.
func (p *problem) distances() (*tsp.DistanceModel, []tsp.Point, error) {
	switch {
	case len(p.Matrix) > 0 && len(p.Points) > 0:
		return nil, nil, fmt.Errorf("input has both matrix and points")
	case len(p.Points) > 0:
		points := make([]tsp.Point, len(p.Points))
		for i, xy := range p.Points {
			if len(xy) != 2 {
				return nil, nil, fmt.Errorf("point %d has %d coordinates, want 2", i, len(xy))
			}
			points[i] = tsp.Point{X: xy[0], Y: xy[1]}
		}
		dist, err := tsp.NewDistanceModelFromPoints(points)
		return dist, points, err
	case len(p.Matrix) > 0:
		dist, err := tsp.NewDistanceModel(p.Matrix)
		return dist, nil, err
	default:
		return nil, nil, fmt.Errorf("input needs a matrix or points")
	}
}

func writePlot(path string, points []tsp.Point, best tsp.Tour) error {
	opts := render.DefaultOptions()
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		opts.Format = "svg"
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	title := fmt.Sprintf("Distance = %.4f", best.Length())
	if err := render.Draw(f, render.NewSnapshot(points, best.Sequence(), title), opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatTour(seq []int) string {
	parts := make([]string, len(seq))
	for i, p := range seq {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, " -> ")
}
