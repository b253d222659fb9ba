package models

import "time"

// JobStatus is the lifecycle state of a generation job.
// Transitions are monotonic: queued -> generating -> completed | failed.
// Cancellation may fail a job directly from queued.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobGenerating JobStatus = "generating"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransition reports whether moving from s to next is a legal step.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobQueued:
		return next == JobGenerating || next == JobFailed
	case JobGenerating:
		return next == JobCompleted || next == JobFailed
	default:
		return false
	}
}

// GenerationJob tracks one long-running program generation request.
// Result and Error are set exactly once, at the terminal transition.
type GenerationJob struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	Result      *FittedProgram `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorReason Reason         `json:"error_reason,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// JobUpdate is a partial update applied by the job manager. Nil fields are
// left untouched.
type JobUpdate struct {
	Status      *JobStatus
	Progress    *int
	Result      *FittedProgram
	Error       *string
	ErrorReason *Reason
}
