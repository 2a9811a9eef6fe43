// Package server implements the HTTP API of the SCREE solver service. It
// manages solve jobs and provides endpoints to start, monitor and cancel
// them.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/SCREE/internal/config"
	"github.com/copyleftdev/SCREE/internal/logging"
	"github.com/copyleftdev/SCREE/internal/solver"
	"github.com/copyleftdev/SCREE/internal/solver/problems"
)

// Logger defines the logging interface used by the server, keeping the
// implementation choice with the caller.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// SolveState tracks one solve job. Access goes through the server's mutex.
type SolveState struct {
	ID          string
	Problem     string
	Dim         int
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *solver.Result
	Error       string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP server for the solver service.
type Server struct {
	cfg       *config.Config
	logger    Logger
	solverLog *zap.Logger

	jobs   map[string]*SolveState
	jobsMu sync.RWMutex
	nextID int
}

// NewServer creates a server. solverLog is handed to the solver engines; a
// nil value disables solver logging.
func NewServer(cfg *config.Config, logger Logger, solverLog *zap.Logger) *Server {
	if solverLog == nil {
		solverLog = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		solverLog: solverLog,
		jobs:      make(map[string]*SolveState),
	}
}

// RegisterRoutes mounts the API routes.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/problems", s.handleProblems)
		r.Post("/solve", s.handleSolve)
		r.Get("/solve/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
	})
}

// Close cancels every running job.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}

type solveRequest struct {
	Problem string `json:"problem"`
	Dim     int    `json:"dim"`
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"problems": problems.Names()})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Dim <= 0 {
		req.Dim = 10
	}

	problem, err := problems.ByName(req.Problem, req.Dim)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine, err := solver.NewEngine(problem, s.cfg.SolverOptions(), s.solverLog)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &SolveState{
		Problem:     req.Problem,
		Dim:         req.Dim,
		Status:      "pending",
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.jobsMu.Lock()
	s.nextID++
	job.ID = fmt.Sprintf("solve_%d", s.nextID)
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()

	solvesStarted.Inc()
	go s.runJob(ctx, job, engine)

	s.logger.Info("Solve started", map[string]interface{}{
		"id":      job.ID,
		"problem": req.Problem,
		"dim":     req.Dim,
	})
	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     job.ID,
		"status": job.Status,
	})
}

func (s *Server) runJob(ctx context.Context, job *SolveState, engine *solver.Engine) {
	s.updateJob(job, func() { job.Status = "running" })

	result, err := engine.Run(ctx)

	s.updateJob(job, func() {
		now := time.Now()
		job.EndTime = &now
		job.Result = result
		switch {
		case ctx.Err() != nil:
			job.Status = "cancelled"
		case err != nil:
			job.Status = "failed"
			job.Error = err.Error()
		default:
			job.Status = "completed"
		}
	})

	solvesFinished.WithLabelValues(result.Status.String()).Inc()
	innerIterations.Observe(float64(result.InnerIterations))
}

func (s *Server) updateJob(job *SolveState, update func()) {
	s.jobsMu.Lock()
	update()
	job.LastUpdated = time.Now()
	s.jobsMu.Unlock()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	job, ok := s.jobs[id]
	var snapshot map[string]interface{}
	if ok {
		snapshot = map[string]interface{}{
			"id":         job.ID,
			"problem":    job.Problem,
			"dim":        job.Dim,
			"status":     job.Status,
			"start_time": job.StartTime,
		}
		if job.Error != "" {
			snapshot["error"] = job.Error
		}
		if job.Result != nil {
			snapshot["solver_status"] = job.Result.Status.String()
			snapshot["objective"] = job.Result.Objective
			snapshot["x"] = job.Result.X
			snapshot["outer_iterations"] = job.Result.OuterIterations
			snapshot["inner_iterations"] = job.Result.InnerIterations
			snapshot["qp_iterations"] = job.Result.QPIterations
			snapshot["runtime"] = job.Result.Runtime.String()
		}
	}
	s.jobsMu.RUnlock()

	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown solve id")
		return
	}
	s.respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.Lock()
	job, ok := s.jobs[id]
	if ok && job.CancelFunc != nil {
		job.CancelFunc()
	}
	s.jobsMu.Unlock()

	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown solve id")
		return
	}
	s.logger.Info("Solve cancelled", map[string]interface{}{"id": id})
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": "cancelling"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]interface{}{"error": msg})
}
