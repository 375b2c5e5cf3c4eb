package tsp

import (
	"context"

	"go.uber.org/zap"
)

// DefaultIterations is the iteration budget used when none is given.
const DefaultIterations = 50

// State is the lifecycle state of a climb.
type State int

const (
	// StateRunning is the state while iterations remain.
	StateRunning State = iota
	// StateDone is reached once the budget is spent.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	if s == StateDone {
		return "done"
	}
	return "running"
}

// Observer receives the best length after every iteration. iteration is 1-based.
type Observer func(iteration int, best float64)

// Config contains configuration for a climb.
type Config struct {
	// Iterations is the number of mutations to perform. Zero means DefaultIterations.
	Iterations int

	// RecordTrace keeps the best length after every iteration in Result.Trace.
	RecordTrace bool

	// Observer, when set, is called after every iteration.
	Observer Observer
}

// Result contains the outcome of a climb.
type Result struct {
	// Best is the shortest tour observed.
	Best Tour
	// Seed is the tour the climb started from.
	Seed Tour
	// Iterations is the number of iterations performed.
	Iterations int
	// Improvements counts how often Best was replaced.
	Improvements int
	// Trace holds the best length after each iteration when requested.
	Trace []float64
}

// HillClimber runs stochastic hill climbing: a random walk of mutations
// feeding a best-so-far tracker that only accepts strict improvements.
type HillClimber struct {
	dist    *DistanceModel
	mutator *Mutator
	logger  *zap.Logger
	state   State
}

// ClimberOption configures a HillClimber.
type ClimberOption func(*HillClimber)

// WithLogger sets the logger used for the per-iteration trace.
func WithLogger(logger *zap.Logger) ClimberOption {
	return func(h *HillClimber) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHillClimber creates a climber over dist using mutator.
func NewHillClimber(dist *DistanceModel, mutator *Mutator, opts ...ClimberOption) *HillClimber {
	h := &HillClimber{
		dist:    dist,
		mutator: mutator,
		logger:  zap.NewNop(),
		state:   StateDone,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the state of the most recent climb.
func (h *HillClimber) State() State {
	return h.state
}

// Run climbs from initial for cfg.Iterations mutations. The context is
// checked between iterations; a cancelled run returns the context error and
// no result.
func (h *HillClimber) Run(ctx context.Context, initial Tour, cfg Config) (*Result, error) {
	const op = "Run"

	iterations := cfg.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}
	if iterations < 0 {
		return nil, newError("climber", op, ErrInvalidBudget, "got %d", iterations)
	}
	if initial.IsZero() {
		return nil, newError("climber", op, ErrInvalidTour, "no initial tour")
	}
	if initial.Points() != h.dist.Len() {
		return nil, newError("climber", op, ErrDimensionMismatch, "tour has %d points, distance model %d", initial.Points(), h.dist.Len())
	}

	h.state = StateRunning
	defer func() { h.state = StateDone }()

	best := initial.Clone()
	candidate := initial.Clone()
	result := &Result{Seed: initial.Clone()}
	if cfg.RecordTrace {
		result.Trace = make([]float64, 0, iterations)
	}

	for count := 1; count <= iterations; count++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		next, err := h.mutator.Mutate(candidate)
		if err != nil {
			return nil, wrapError("climber", op, err)
		}
		candidate = next
		if candidate.length < best.length {
			best = candidate.Clone()
			result.Improvements++
		}

		h.logger.Debug("Iteration",
			zap.Int("iteration", count),
			zap.Float64("distance", best.length),
		)
		if cfg.RecordTrace {
			result.Trace = append(result.Trace, best.length)
		}
		if cfg.Observer != nil {
			cfg.Observer(count, best.length)
		}
		result.Iterations = count
	}

	h.logger.Info("Best solution",
		zap.Ints("tour", best.seq),
		zap.Float64("distance", best.length),
		zap.Int("improvements", result.Improvements),
	)

	result.Best = best
	return result, nil
}

// Solve seeds a random tour with src and climbs from it.
func Solve(ctx context.Context, dist *DistanceModel, src RandomSource, cfg Config, opts ...ClimberOption) (*Result, error) {
	seed, err := RandomTour(dist, src)
	if err != nil {
		return nil, err
	}
	climber := NewHillClimber(dist, NewMutator(dist, src), opts...)
	return climber.Run(ctx, seed, cfg)
}
