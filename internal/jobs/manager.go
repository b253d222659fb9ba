// Package jobs tracks long-running generation requests in a mutex-guarded
// in-memory map. Jobs are ephemeral: lost on restart and garbage-collected
// after a maximum age.
//
// The manager enforces the status state machine itself: transitions out of
// a terminal state are rejected and progress never regresses. One active
// job per user is business policy and stays with the caller, via
// GetUserActive.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal is returned when an update touches a completed or failed job.
	ErrTerminal = errors.New("job already in terminal state")
	// ErrInvalidTransition is returned for status changes the state machine forbids.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Manager owns the job map. All access goes through the mutex; there is no
// per-job locking because updates are single small critical sections.
type Manager struct {
	mu   sync.Mutex
	jobs map[string]*models.GenerationJob
	log  *slog.Logger
	now  func() time.Time
}

// NewManager creates an empty job manager.
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		jobs: make(map[string]*models.GenerationJob),
		log:  log,
		now:  time.Now,
	}
}

// Create allocates a fresh queued job for the user.
func (m *Manager) Create(userID string) models.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	job := &models.GenerationJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.JobQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[job.ID] = job
	return *job
}

// Get returns a copy of the job.
func (m *Manager) Get(id string) (models.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.GenerationJob{}, ErrNotFound
	}
	return *job, nil
}

// GetUserActive returns the user's first non-terminal job, creation-oldest
// first. Callers use it to keep one active generation per user.
func (m *Manager) GetUserActive(userID string) (models.GenerationJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *models.GenerationJob
	for _, job := range m.jobs {
		if job.UserID != userID || job.Status.Terminal() {
			continue
		}
		if best == nil || job.CreatedAt.Before(best.CreatedAt) {
			best = job
		}
	}
	if best == nil {
		return models.GenerationJob{}, false
	}
	return *best, true
}

// Update merges the non-nil fields into the job and bumps UpdatedAt.
// Status changes must follow the state machine; updates to terminal jobs
// return ErrTerminal. Progress regressions are ignored rather than failed,
// since stage retries may legitimately re-report an earlier milestone.
func (m *Manager) Update(id string, upd models.JobUpdate) (models.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.GenerationJob{}, ErrNotFound
	}

	// Terminal jobs are frozen entirely: a progress-only update after a
	// cancel must fail so the pipeline stops, and a second Fail must not
	// overwrite the first error.
	if job.Status.Terminal() {
		return models.GenerationJob{}, ErrTerminal
	}

	if upd.Status != nil && *upd.Status != job.Status {
		if !job.Status.CanTransition(*upd.Status) {
			return models.GenerationJob{}, ErrInvalidTransition
		}
		job.Status = *upd.Status
	}
	if upd.Progress != nil && *upd.Progress > job.Progress {
		job.Progress = clampProgress(*upd.Progress)
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	if upd.ErrorReason != nil {
		job.ErrorReason = *upd.ErrorReason
	}
	job.UpdatedAt = m.now()
	return *job, nil
}

// Complete moves the job to completed with its result and full progress.
func (m *Manager) Complete(id string, result *models.FittedProgram) (models.GenerationJob, error) {
	status := models.JobCompleted
	progress := 100
	return m.Update(id, models.JobUpdate{Status: &status, Progress: &progress, Result: result})
}

// Fail moves the job to failed with a human-readable error and a reason
// code.
func (m *Manager) Fail(id string, reason models.Reason, message string) (models.GenerationJob, error) {
	status := models.JobFailed
	return m.Update(id, models.JobUpdate{Status: &status, Error: &message, ErrorReason: &reason})
}

// Cancel fails a non-terminal job with the user_cancelled reason. The
// pipeline notices the terminal state between stages and stops.
func (m *Manager) Cancel(id string) (models.GenerationJob, error) {
	return m.Fail(id, models.ReasonUserCancelled, "cancelled by user")
}

// CleanupOld deletes every job older than maxAge, regardless of status.
// Returns the number deleted.
func (m *Manager) CleanupOld(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	deleted := 0
	for id, job := range m.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(m.jobs, id)
			deleted++
		}
	}
	return deleted
}

// RunGC sweeps old jobs on the given interval until the context ends.
func (m *Manager) RunGC(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupOld(maxAge); n > 0 {
				m.log.Info("job gc", "deleted", n)
			}
		}
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
