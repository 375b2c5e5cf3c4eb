package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/hillclimb/internal/config"
	"github.com/copyleftdev/hillclimb/internal/errors"
	"github.com/copyleftdev/hillclimb/internal/logging"
	"github.com/copyleftdev/hillclimb/internal/render"
	"github.com/copyleftdev/hillclimb/internal/store"
	"github.com/copyleftdev/hillclimb/internal/tsp"
	"github.com/copyleftdev/hillclimb/internal/tsp/embed"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// ResultStore persists best solutions of finished jobs.
type ResultStore interface {
	Save(ctx context.Context, rec store.Record) error
	Get(ctx context.Context, id string) (*store.Record, error)
}

// JSON-RPC 2.0 error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
)

// errJobNotFound is returned for unknown job ids.
var errJobNotFound = errors.NotFound("job not found")

// Server implements the HTTP and JSON-RPC server for the search service.
// It manages search jobs and provides endpoints to start, monitor, cancel and plot them.
type Server struct {
	cfg       *config.Config
	logger    Logger
	store     ResultStore
	newSource func(seed *uint64) tsp.RandomSource

	jobs   map[string]*JobState
	jobsMu sync.RWMutex // Protects jobs and every JobState in it
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables persistence of finished results.
func WithStore(rs ResultStore) Option {
	return func(s *Server) {
		s.store = rs
	}
}

// NewServer creates a new server instance with the given config and logger
// The logger parameter accepts any type that implements the Logger interface
func NewServer(cfg *config.Config, logger Logger, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		newSource: defaultSource,
		jobs:      make(map[string]*JobState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
		r.Get("/plot/{id}", s.handlePlot)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, rpcParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, rpcInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "tsp.start":
		result, err = s.handleStart(r.Context(), request.Params)
	case "tsp.status":
		result, err = s.handleJobStatus(r.Context(), request.Params)
	case "tsp.cancel":
		err = s.handleJobCancel(request.Params)
		if err == nil {
			result = map[string]interface{}{"status": StatusCancelled}
		}
	default:
		s.respondWithError(w, rpcMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code := rpcInvalidParams
		switch errors.KindOf(err) {
		case errors.KindNotFound, errors.KindInternal:
			code = rpcServerError
		}
		s.respondWithError(w, code, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleStart handles the tsp.start JSON-RPC method.
// Expected parameters: {"points": [[0,0],[0,1],[1,1]], "iterations": 100}
// or {"matrix": [[0,1],[1,0]]}; "seed" and "tour" are optional.
// Returns: {"job_id": "tsp_123_1", "status": "pending"}
func (s *Server) handleStart(ctx context.Context, params []interface{}) (interface{}, error) {
	if len(params) == 0 {
		return nil, errors.Invalid("missing required parameters")
	}
	req, err := decodeSolveRequest(params[0])
	if err != nil {
		return nil, err
	}
	return s.start(req)
}

// start registers a job and launches it.
func (s *Server) start(req SolveRequest) (map[string]interface{}, error) {
	state, err := s.newJob(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	state.CancelFunc = cancel

	s.jobsMu.Lock()
	s.jobs[state.ID] = state
	s.jobsMu.Unlock()

	jobsStarted.Inc()
	s.logger.Info("Search started", map[string]interface{}{
		"job_id":      state.ID,
		"points":      state.PointCount,
		"iterations":  state.Iterations,
		"seed_length": state.Seed.Length(),
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.runJob(ctx, state)
		s.scheduleEviction(state.ID)
	}()

	return map[string]interface{}{
		"job_id": state.ID,
		"status": StatusPending,
	}, nil
}

// jobIDParam extracts "job_id" from JSON-RPC params.
func jobIDParam(params []interface{}) (string, error) {
	if len(params) == 0 {
		return "", errors.Invalid("missing required parameters")
	}
	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return "", errors.Invalid("invalid parameter format, expected object")
	}
	id, ok := paramMap["job_id"].(string)
	if !ok || id == "" {
		return "", errors.Invalid("job_id is required")
	}
	return id, nil
}

// handleJobStatus handles the tsp.status JSON-RPC method.
// Expected parameters: {"job_id": "tsp_123_1"}
func (s *Server) handleJobStatus(ctx context.Context, params []interface{}) (interface{}, error) {
	id, err := jobIDParam(params)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, id)
}

// status reports a job from memory, falling back to the result store.
func (s *Server) status(ctx context.Context, id string) (map[string]interface{}, error) {
	s.jobsMu.RLock()
	state, exists := s.jobs[id]
	if exists {
		defer s.jobsMu.RUnlock()
		return statusResponse(state), nil
	}
	s.jobsMu.RUnlock()

	if s.store == nil {
		return nil, errJobNotFound
	}
	rec, err := s.store.Get(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errJobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load stored result").WithOperation("status").WithComponent("server")
	}
	return map[string]interface{}{
		"job_id":      rec.ID,
		"status":      StatusCompleted,
		"progress":    1.0,
		"iterations":  rec.Iterations,
		"points":      rec.Points,
		"best_length": rec.Length,
		"best_tour":   rec.Tour,
		"end_time":    rec.FinishedAt.Format(time.RFC3339),
	}, nil
}

// statusResponse must be called with jobsMu held.
func statusResponse(state *JobState) map[string]interface{} {
	response := map[string]interface{}{
		"job_id":      state.ID,
		"status":      state.Status,
		"progress":    state.Progress(),
		"iteration":   state.Iteration,
		"iterations":  state.Iterations,
		"points":      state.PointCount,
		"seed_length": state.Seed.Length(),
		"best_length": state.BestLength,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}

	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != "" {
		response["error"] = state.Err
	}
	if state.Result != nil {
		response["best_tour"] = state.Result.Best.Sequence()
		response["improvements"] = state.Result.Improvements
	}
	return response
}

// handleJobCancel handles the tsp.cancel JSON-RPC method.
// Expected parameters: {"job_id": "tsp_123_1"}
func (s *Server) handleJobCancel(params []interface{}) error {
	id, err := jobIDParam(params)
	if err != nil {
		return err
	}
	return s.cancel(id)
}

func (s *Server) cancel(id string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	state, exists := s.jobs[id]
	if !exists {
		return errJobNotFound
	}

	switch state.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return errors.Conflict("cannot cancel job with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	jobsFinished.WithLabelValues(StatusCancelled).Inc()

	s.logger.Info("Search cancelled", map[string]interface{}{
		"job_id": id,
	})

	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels running jobs and waits for them to stop.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	s.jobsMu.Unlock()

	s.wg.Wait()
	return nil
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes err with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), map[string]interface{}{
		"error": err.Error(),
		"kind":  errors.KindOf(err).String(),
	})
}

// handleSolve handles POST /api/v1/solve
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(err, "invalid request body").WithKind(errors.KindInvalid))
		return
	}

	result, err := s.start(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// handleStatus handles GET /api/v1/status/{id}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancel handles DELETE /api/v1/solve/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.cancel(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// handlePlot handles GET /api/v1/plot/{id}?format=png|svg. It draws the
// best tour of a completed job, or the seed tour while the job runs.
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "svg" {
		writeError(w, errors.Invalid("format must be png or svg, got %q", format))
		return
	}

	snap, err := s.plotSnapshot(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	opts := render.DefaultOptions()
	opts.Format = format
	if err := render.Draw(&buf, snap, opts); err != nil {
		s.logger.Error("Plot failed", map[string]interface{}{"job_id": id, "error": err.Error()})
		writeError(w, err)
		return
	}

	if format == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
	} else {
		w.Header().Set("Content-Type", "image/png")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// plotSnapshot collects what to draw for id from memory, falling back to
// the result store.
func (s *Server) plotSnapshot(ctx context.Context, id string) (render.Snapshot, error) {
	s.jobsMu.RLock()
	state, exists := s.jobs[id]
	var (
		points []tsp.Point
		dist   *tsp.DistanceModel
		tour   tsp.Tour
		title  string
	)
	if exists {
		points = state.Points
		dist = state.Dist
		tour = state.Seed
		title = fmt.Sprintf("%s seed (%.4f)", state.ID, state.Seed.Length())
		if state.Result != nil {
			tour = state.Result.Best
			title = fmt.Sprintf("%s best (%.4f)", state.ID, tour.Length())
		}
	}
	s.jobsMu.RUnlock()

	if !exists {
		return s.storedSnapshot(ctx, id)
	}

	if points == nil {
		if dist == nil {
			return render.Snapshot{}, errors.NotFound("plot data for job %s has expired", id)
		}
		var err error
		if points, err = embed.Embed(dist); err != nil {
			return render.Snapshot{}, errors.Wrap(err, "embed distance matrix").WithComponent("server")
		}
	}
	return render.NewSnapshot(points, tour.Sequence(), title), nil
}

func (s *Server) storedSnapshot(ctx context.Context, id string) (render.Snapshot, error) {
	if s.store == nil {
		return render.Snapshot{}, errJobNotFound
	}
	rec, err := s.store.Get(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return render.Snapshot{}, errJobNotFound
	}
	if err != nil {
		return render.Snapshot{}, errors.Wrap(err, "load stored result").WithOperation("plot").WithComponent("server")
	}
	if len(rec.Coords) == 0 {
		return render.Snapshot{}, errors.NotFound("no coordinates stored for job %s", id)
	}
	title := fmt.Sprintf("%s best (%.4f)", rec.ID, rec.Length)
	return render.NewSnapshot(rec.Coords, rec.Tour, title), nil
}
