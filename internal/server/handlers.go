package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/liftplan/internal/jobs"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pipeline"
	"github.com/claude/liftplan/internal/pool"
	"github.com/claude/liftplan/internal/prompts"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/timemodel"
	"github.com/claude/liftplan/internal/validate"
	"github.com/go-chi/chi/v5"
)

type generateRequest struct {
	UserID   string                     `json:"user_id"`
	User     prompts.UserProfile        `json:"user"`
	Schedule models.ScheduleConstraints `json:"schedule"`
}

// handleGenerate starts a generation job. One active job per user is
// enforced here, not inside the job manager.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	if req.User.PrimaryGoal == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user.primary_goal is required"})
		return
	}
	if err := validate.Schedule(req.Schedule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if active, ok := s.jobs.GetUserActive(req.UserID); ok {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "a generation job is already running for this user",
			"job_id": active.ID,
		})
		return
	}

	catalog, err := s.db.LoadCatalog(r.Context())
	if err != nil {
		s.log.Error("catalog load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "loading exercise catalog"})
		return
	}
	pools := pool.Build(catalog)
	if pools.Size() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "exercise catalog is empty"})
		return
	}

	job := s.jobs.Create(req.UserID)

	// The pipeline outlives the HTTP request; it reports into the job.
	go s.pipe.Run(context.Background(), job.ID, pipeline.Request{
		UserID:   req.UserID,
		User:     req.User,
		Schedule: req.Schedule,
		Pools:    pools,
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(chi.URLParam(r, "id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Cancel(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
	case errors.Is(err, jobs.ErrTerminal):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "job already finished"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	sp, err := s.db.GetProgram(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "program not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id parameter required"})
		return
	}
	list, err := s.db.ListPrograms(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.ListExercises(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleEstimateSession exposes the pure time model: post a session, get
// its estimated duration under the server's timing constants.
func (s *Server) handleEstimateSession(w http.ResponseWriter, r *http.Request) {
	var session models.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	d, err := timemodel.SessionDuration(session, s.tm)
	if err != nil {
		var parseErr *timemodel.ParseError
		if errors.As(err, &parseErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"estimated_duration_seconds": d})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
