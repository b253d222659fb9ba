package jobs

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
)

func testManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setStatus(t *testing.T, m *Manager, id string, s models.JobStatus) models.GenerationJob {
	t.Helper()
	job, err := m.Update(id, models.JobUpdate{Status: &s})
	if err != nil {
		t.Fatalf("transition to %s: %v", s, err)
	}
	return job
}

// TestCreateAndGet verifies a fresh job starts queued at zero progress.
func TestCreateAndGet(t *testing.T) {
	m := testManager()
	created := m.Create("user-1")

	job, err := m.Get(created.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if job.Status != models.JobQueued || job.Progress != 0 {
		t.Errorf("job = %s/%d, want queued/0", job.Status, job.Progress)
	}
	if job.UserID != "user-1" {
		t.Errorf("user = %q, want user-1", job.UserID)
	}
}

// TestGetUnknown verifies unknown ids return ErrNotFound.
func TestGetUnknown(t *testing.T) {
	m := testManager()
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestLifecycle walks the happy path queued -> generating -> completed.
func TestLifecycle(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")

	setStatus(t, m, job.ID, models.JobGenerating)
	result := &models.FittedProgram{ProgramName: "base"}
	done, err := m.Complete(job.ID, result)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if done.Status != models.JobCompleted || done.Progress != 100 {
		t.Errorf("job = %s/%d, want completed/100", done.Status, done.Progress)
	}
	if done.Result == nil || done.Result.ProgramName != "base" {
		t.Errorf("result = %+v, want program base", done.Result)
	}
}

// TestTerminalRejectsUpdates verifies status changes on a terminal job
// return ErrTerminal: completed can never go back to generating.
func TestTerminalRejectsUpdates(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")
	setStatus(t, m, job.ID, models.JobGenerating)
	if _, err := m.Complete(job.ID, &models.FittedProgram{}); err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	s := models.JobGenerating
	if _, err := m.Update(job.ID, models.JobUpdate{Status: &s}); !errors.Is(err, ErrTerminal) {
		t.Errorf("completed->generating err = %v, want ErrTerminal", err)
	}
	if _, err := m.Fail(job.ID, models.ReasonUserCancelled, "late cancel"); !errors.Is(err, ErrTerminal) {
		t.Errorf("fail after completion err = %v, want ErrTerminal", err)
	}
}

// TestTerminalFreezesAllFields verifies a terminal job rejects every
// update, not just status changes: a progress bump after a cancel must
// fail so the caller stops, and a second Fail must not overwrite the
// original error.
func TestTerminalFreezesAllFields(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")
	setStatus(t, m, job.ID, models.JobGenerating)
	if _, err := m.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	p := 95
	if _, err := m.Update(job.ID, models.JobUpdate{Progress: &p}); !errors.Is(err, ErrTerminal) {
		t.Errorf("progress update after cancel err = %v, want ErrTerminal", err)
	}
	if _, err := m.Fail(job.ID, models.ReasonInvalidBlueprint, "late failure"); !errors.Is(err, ErrTerminal) {
		t.Errorf("second Fail err = %v, want ErrTerminal", err)
	}

	got, err := m.Get(job.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.ErrorReason != models.ReasonUserCancelled || got.Error != "cancelled by user" {
		t.Errorf("job error = %s/%q, want user_cancelled/cancelled by user", got.ErrorReason, got.Error)
	}
	if got.Progress == 95 {
		t.Error("progress advanced after cancel, want frozen")
	}
}

// TestInvalidTransition verifies queued cannot jump straight to completed.
func TestInvalidTransition(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")

	s := models.JobCompleted
	if _, err := m.Update(job.ID, models.JobUpdate{Status: &s}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("queued->completed err = %v, want ErrInvalidTransition", err)
	}
}

// TestProgressMonotonic verifies progress regressions are ignored and
// values clamp to 100.
func TestProgressMonotonic(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")

	p := 65
	if _, err := m.Update(job.ID, models.JobUpdate{Progress: &p}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	p = 30
	got, err := m.Update(job.ID, models.JobUpdate{Progress: &p})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Progress != 65 {
		t.Errorf("progress = %d, want 65 (regression ignored)", got.Progress)
	}

	p = 150
	got, err = m.Update(job.ID, models.JobUpdate{Progress: &p})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Progress != 100 {
		t.Errorf("progress = %d, want clamped 100", got.Progress)
	}
}

// TestCancelDuringGeneration covers the cancel sequence: a generating job
// cancelled by the user lands failed with the user_cancelled reason, and
// the pipeline's next status update is rejected.
func TestCancelDuringGeneration(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")
	setStatus(t, m, job.ID, models.JobGenerating)

	cancelled, err := m.Cancel(job.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != models.JobFailed {
		t.Errorf("status = %s, want failed", cancelled.Status)
	}
	if cancelled.ErrorReason != models.ReasonUserCancelled {
		t.Errorf("reason = %s, want %s", cancelled.ErrorReason, models.ReasonUserCancelled)
	}

	// The pipeline finishing late must not resurrect the job.
	if _, err := m.Complete(job.ID, &models.FittedProgram{}); !errors.Is(err, ErrTerminal) {
		t.Errorf("late completion err = %v, want ErrTerminal", err)
	}

	got, err := m.Get(job.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != models.JobFailed || got.Error != "cancelled by user" {
		t.Errorf("job = %s/%q, want failed/cancelled by user", got.Status, got.Error)
	}
}

// TestCancelQueued verifies a job can be cancelled before it ever starts.
func TestCancelQueued(t *testing.T) {
	m := testManager()
	job := m.Create("user-1")

	if _, err := m.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	s := models.JobGenerating
	if _, err := m.Update(job.ID, models.JobUpdate{Status: &s}); !errors.Is(err, ErrTerminal) {
		t.Errorf("start after cancel err = %v, want ErrTerminal", err)
	}
}

// TestGetUserActive verifies the oldest non-terminal job wins and terminal
// jobs never count as active.
func TestGetUserActive(t *testing.T) {
	m := testManager()
	base := time.Now()
	clock := base
	m.now = func() time.Time { return clock }

	first := m.Create("user-1")
	clock = base.Add(time.Minute)
	m.Create("user-1")
	m.Create("user-2")

	active, ok := m.GetUserActive("user-1")
	if !ok || active.ID != first.ID {
		t.Errorf("active = %v/%v, want oldest job %s", active.ID, ok, first.ID)
	}

	if _, err := m.Cancel(first.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	active, ok = m.GetUserActive("user-1")
	if !ok || active.ID == first.ID {
		t.Errorf("active after cancel = %v/%v, want the second job", active.ID, ok)
	}

	if _, ok := m.GetUserActive("user-3"); ok {
		t.Error("user-3 has an active job, want none")
	}
}

// TestCleanupOld verifies expiry is by creation age regardless of status.
func TestCleanupOld(t *testing.T) {
	m := testManager()
	base := time.Now()
	clock := base
	m.now = func() time.Time { return clock }

	old := m.Create("user-1")
	clock = base.Add(2 * time.Hour)
	fresh := m.Create("user-1")

	if n := m.CleanupOld(time.Hour); n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := m.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("old job err = %v, want ErrNotFound", err)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh job err = %v, want kept", err)
	}
}
