package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/copyleftdev/hillclimb/internal/errors"
	"github.com/copyleftdev/hillclimb/internal/logging"
	"github.com/copyleftdev/hillclimb/internal/store"
	"github.com/copyleftdev/hillclimb/internal/tsp"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

var jobSeq atomic.Uint64

// SolveRequest describes a search job. Exactly one of Matrix and Points is set.
type SolveRequest struct {
	Matrix [][]float64 `json:"matrix,omitempty"`
	// Points holds [x, y] pairs.
	Points     [][]float64 `json:"points,omitempty"`
	Iterations int         `json:"iterations,omitempty"`
	// Seed makes the run reproducible. Without it randomness comes from the
	// operating system's entropy source.
	Seed *uint64 `json:"seed,omitempty"`
	// Tour is an optional closed starting tour.
	Tour []int `json:"tour,omitempty"`
}

// JobState represents the state of a search job.
// Fields are guarded by Server.jobsMu.
type JobState struct {
	ID          string
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Iteration   int
	Iterations  int
	PointCount  int
	BestLength  float64
	Err         string

	// Points is nil for matrix input. Dist is dropped once the job is
	// retired.
	Points []tsp.Point
	Dist   *tsp.DistanceModel
	Seed   tsp.Tour
	Result *tsp.Result

	climber    *tsp.HillClimber
	persisted  bool
	CancelFunc context.CancelFunc
}

// Progress returns the fraction of the budget spent.
func (j *JobState) Progress() float64 {
	if j.Iterations == 0 {
		return 0
	}
	return float64(j.Iteration) / float64(j.Iterations)
}

// decodeSolveRequest converts JSON-RPC params into a SolveRequest.
func decodeSolveRequest(param interface{}) (SolveRequest, error) {
	var req SolveRequest
	raw, err := json.Marshal(param)
	if err == nil {
		err = json.Unmarshal(raw, &req)
	}
	if err != nil {
		return req, errors.Wrap(err, "invalid parameter format").WithKind(errors.KindInvalid)
	}
	return req, nil
}

// defaultSource seeds a run from seed, or from operating system entropy.
func defaultSource(seed *uint64) tsp.RandomSource {
	if seed != nil {
		return tsp.NewSeededSource(*seed)
	}
	return tsp.NewCryptoSource()
}

// parsePoints converts [x, y] pairs, rejecting any other arity.
func parsePoints(raw [][]float64) ([]tsp.Point, error) {
	points := make([]tsp.Point, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, errors.Invalid("point %d has %d coordinates, want 2", i, len(p))
		}
		points[i] = tsp.Point{X: p[0], Y: p[1]}
	}
	return points, nil
}

// newJob validates req and prepares everything the run needs. Validation
// failures are KindInvalid; anything else is internal.
func (s *Server) newJob(req SolveRequest) (*JobState, error) {
	var (
		dist   *tsp.DistanceModel
		points []tsp.Point
		err    error
	)

	switch {
	case len(req.Matrix) > 0 && len(req.Points) > 0:
		return nil, errors.Invalid("give either matrix or points, not both")
	case len(req.Points) > 0:
		if len(req.Points) > s.cfg.Search.MaxPoints {
			return nil, errors.Invalid("too many points: %d > %d", len(req.Points), s.cfg.Search.MaxPoints)
		}
		if points, err = parsePoints(req.Points); err != nil {
			return nil, err
		}
		dist, err = tsp.NewDistanceModelFromPoints(points)
	case len(req.Matrix) > 0:
		if len(req.Matrix) > s.cfg.Search.MaxPoints {
			return nil, errors.Invalid("too many points: %d > %d", len(req.Matrix), s.cfg.Search.MaxPoints)
		}
		dist, err = tsp.NewDistanceModel(req.Matrix)
	default:
		return nil, errors.Invalid("matrix or points are required")
	}
	if err != nil {
		return nil, errors.Wrap(err, "invalid distances").WithKind(errors.KindInvalid)
	}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = s.cfg.Search.DefaultIterations
	}
	if iterations < 0 || iterations > s.cfg.Search.MaxIterations {
		return nil, errors.Invalid("iterations must be in [1, %d], got %d", s.cfg.Search.MaxIterations, iterations)
	}

	src := s.newSource(req.Seed)
	mutator := tsp.NewMutator(dist, src, tsp.WithReservedTail(s.cfg.Search.ReservedTail))
	if low, high := mutator.SamplingRange(dist.Len()); high-low < 2 {
		return nil, errors.Wrapf(tsp.ErrSamplingRange, "%d points leave %d mutation positions", dist.Len(), max(high-low, 0)).
			WithKind(errors.KindInvalid)
	}

	var seed tsp.Tour
	if len(req.Tour) > 0 {
		if seed, err = tsp.NewTour(dist, req.Tour); err != nil {
			return nil, errors.Wrap(err, "invalid tour").WithKind(errors.KindInvalid)
		}
	} else if seed, err = tsp.RandomTour(dist, src); err != nil {
		return nil, errors.Wrap(err, "seed tour").WithOperation("newJob").WithComponent("server")
	}

	id := fmt.Sprintf("tsp_%d_%d", time.Now().UnixNano(), jobSeq.Add(1))
	jobLogger := logging.NewZapLogger(s.logger.WithFields(map[string]interface{}{"job_id": id}))

	now := time.Now()
	return &JobState{
		ID:          id,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Iterations:  iterations,
		PointCount:  dist.Len(),
		BestLength:  seed.Length(),
		Points:      points,
		Dist:        dist,
		Seed:        seed,
		climber:     tsp.NewHillClimber(dist, mutator, tsp.WithLogger(jobLogger)),
	}, nil
}

// runJob executes the climb in its own goroutine and records the outcome.
func (s *Server) runJob(ctx context.Context, state *JobState) {
	s.jobsMu.Lock()
	if state.Status != StatusPending {
		// Cancelled before it started.
		s.jobsMu.Unlock()
		return
	}
	state.Status = StatusRunning
	s.jobsMu.Unlock()

	activeJobs.Inc()
	defer activeJobs.Dec()

	start := time.Now()
	result, err := state.climber.Run(ctx, state.Seed, tsp.Config{
		Iterations: state.Iterations,
		Observer: func(iteration int, best float64) {
			iterationsTotal.Inc()
			s.jobsMu.Lock()
			state.Iteration = iteration
			state.BestLength = best
			state.LastUpdated = time.Now()
			s.jobsMu.Unlock()
		},
	})
	elapsed := time.Since(start)

	s.jobsMu.Lock()
	now := time.Now()
	if state.Status == StatusCancelled {
		s.jobsMu.Unlock()
		return
	}
	if err != nil {
		s.logger.Error("Search failed", map[string]interface{}{
			"job_id": state.ID,
			"error":  err.Error(),
		})
		state.Status = StatusFailed
		state.Err = err.Error()
	} else {
		state.Status = StatusCompleted
		state.Result = result
		state.BestLength = result.Best.Length()
	}
	state.EndTime = &now
	state.LastUpdated = now
	status := state.Status
	s.jobsMu.Unlock()

	jobsFinished.WithLabelValues(status).Inc()
	if status != StatusCompleted {
		return
	}

	runDuration.Observe(elapsed.Seconds())
	if seedLen := result.Seed.Length(); seedLen > 0 {
		improvementRatio.Observe(result.Best.Length() / seedLen)
	}
	s.logger.Info("Search completed", map[string]interface{}{
		"job_id":       state.ID,
		"best_length":  result.Best.Length(),
		"seed_length":  result.Seed.Length(),
		"improvements": result.Improvements,
		"duration":     elapsed.String(),
	})

	if s.store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(saveCtx, store.Record{
		ID:         state.ID,
		Points:     result.Best.Points(),
		Iterations: result.Iterations,
		Length:     result.Best.Length(),
		Tour:       result.Best.Sequence(),
		Coords:     state.Points,
		FinishedAt: now,
	}); err != nil {
		s.logger.Error("Failed to persist result", map[string]interface{}{
			"job_id": state.ID,
			"error":  err.Error(),
		})
		return
	}

	s.jobsMu.Lock()
	state.persisted = true
	s.jobsMu.Unlock()
}

// scheduleEviction retires a finished job once the retention period passes.
func (s *Server) scheduleEviction(id string) {
	retention := s.cfg.Search.JobRetention
	if retention <= 0 {
		s.evict(id)
		return
	}
	time.AfterFunc(retention, func() { s.evict(id) })
}

// evict removes a persisted job; the store answers for it from then on.
// Jobs the store does not hold stay, without their distance model.
func (s *Server) evict(id string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	state, ok := s.jobs[id]
	if !ok {
		return
	}
	if state.persisted {
		delete(s.jobs, id)
		jobsEvicted.WithLabelValues("removed").Inc()
		return
	}
	state.Dist = nil
	state.climber = nil
	jobsEvicted.WithLabelValues("compacted").Inc()
}
