// Package validate checks LLM-proposed blueprints against the candidate
// pool and the structural contract before any fitting happens. It fails
// closed: one violation is enough to reject the blueprint.
package validate

import (
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pool"
	"github.com/claude/liftplan/internal/timemodel"
)

// Code identifies a class of blueprint violation.
type Code string

const (
	UnknownExerciseID  Code = "unknown_exercise_id"
	IncompleteMetadata Code = "incomplete_metadata"
	InvalidLoad        Code = "invalid_load"
	InvalidFocusSum    Code = "invalid_focus_sum"
	MalformedReps      Code = "malformed_reps"
	InvalidStructure   Code = "invalid_structure"
)

// Violation pins one problem to the session and exercise that caused it.
type Violation struct {
	Code         Code   `json:"code"`
	SessionIndex int    `json:"session_index,omitempty"`
	ExerciseID   string `json:"exercise_id,omitempty"`
	Detail       string `json:"detail"`
}

func (v Violation) String() string {
	if v.ExerciseID != "" {
		return fmt.Sprintf("%s [session %d, %s]: %s", v.Code, v.SessionIndex, v.ExerciseID, v.Detail)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Detail)
}

// Result aggregates every violation found in one pass.
type Result struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

// Summary renders the violations as one human-readable line.
func (r Result) Summary() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Focus checks the analysis-stage focus distribution. The four shares must
// sum to exactly 100.
func Focus(f models.FocusDistribution) Result {
	if sum := f.Sum(); sum != 100 {
		return failed(Violation{
			Code:   InvalidFocusSum,
			Detail: fmt.Sprintf("focus distribution sums to %d, want 100", sum),
		})
	}
	return Result{OK: true}
}

// Blueprint checks pool containment, metadata completeness, load
// consistency, reps parseability, and structural shape. All violations are
// collected; none short-circuits.
func Blueprint(bp models.Blueprint, pools pool.Pools) Result {
	var vs []Violation

	if len(bp.Sessions) == 0 {
		vs = append(vs, Violation{Code: InvalidStructure, Detail: "blueprint has no sessions"})
	}
	if bp.DurationWeeks < 1 {
		vs = append(vs, Violation{Code: InvalidStructure, Detail: fmt.Sprintf("duration_weeks %d, want >= 1", bp.DurationWeeks)})
	}

	for _, s := range bp.Sessions {
		if len(s.Blocks) == 0 {
			vs = append(vs, Violation{Code: InvalidStructure, SessionIndex: s.SessionIndex, Detail: "session has no blocks"})
		}
		if _, ok := s.Weekday.Index(); !ok {
			vs = append(vs, Violation{Code: InvalidStructure, SessionIndex: s.SessionIndex, Detail: fmt.Sprintf("unknown weekday %q", s.Weekday)})
		}
		for _, b := range s.Blocks {
			for _, ex := range b.Exercises {
				vs = append(vs, checkExercise(s.SessionIndex, ex, pools)...)
			}
		}
	}

	if len(vs) > 0 {
		return Result{Violations: vs}
	}
	return Result{OK: true}
}

func checkExercise(sessionIndex int, ex models.PrescribedExercise, pools pool.Pools) []Violation {
	var vs []Violation
	at := func(code Code, detail string) Violation {
		return Violation{Code: code, SessionIndex: sessionIndex, ExerciseID: ex.ExerciseID, Detail: detail}
	}

	if !pools.Contains(ex.ExerciseID) {
		vs = append(vs, at(UnknownExerciseID, "not present in any candidate pool bucket"))
	}
	if ex.Category == "" || len(ex.RequiredEquipment) == 0 || len(ex.PrimaryMuscles) == 0 || ex.Difficulty == "" {
		vs = append(vs, at(IncompleteMetadata, "category, required_equipment, primary_muscles and difficulty are required"))
	}
	if ex.Sets < 1 {
		vs = append(vs, at(InvalidStructure, fmt.Sprintf("sets %d, want > 0", ex.Sets)))
	}
	if ex.Priority < models.PriorityProtect || ex.Priority > models.PriorityRemoveOK {
		vs = append(vs, at(InvalidStructure, fmt.Sprintf("priority %d, want 1-3", ex.Priority)))
	}
	if ex.RestSeconds < 0 {
		vs = append(vs, at(InvalidStructure, fmt.Sprintf("rest_seconds %d, want >= 0", ex.RestSeconds)))
	}
	if _, err := timemodel.ParseReps(ex.Reps); err != nil {
		vs = append(vs, at(MalformedReps, err.Error()))
	}
	if v, ok := checkLoad(ex); !ok {
		vs = append(vs, at(InvalidLoad, v))
	}
	return vs
}

func checkLoad(ex models.PrescribedExercise) (string, bool) {
	switch ex.LoadType {
	case models.LoadPercentage1RM:
		if ex.LoadValue <= 0 || ex.LoadValue > 100 {
			return fmt.Sprintf("percentage_1rm load %.1f, want (0,100]", ex.LoadValue), false
		}
	case models.LoadRPE:
		if ex.LoadValue < 1 || ex.LoadValue > 10 {
			return fmt.Sprintf("rpe load %.1f, want [1,10]", ex.LoadValue), false
		}
	case models.LoadBodyweight:
		if ex.LoadValue != 0 {
			return fmt.Sprintf("bodyweight load %.1f, want 0", ex.LoadValue), false
		}
	case models.LoadFixed:
		if ex.LoadValue < 0 {
			return fmt.Sprintf("fixed load %.1f, want >= 0", ex.LoadValue), false
		}
	default:
		return fmt.Sprintf("unknown load_type %q", ex.LoadType), false
	}
	return "", true
}

// Schedule checks caller-supplied scheduling constraints before any LLM
// call is made.
func Schedule(sc models.ScheduleConstraints) error {
	if sc.SessionsPerWeek < 1 || sc.SessionsPerWeek > 7 {
		return fmt.Errorf("sessions_per_week %d, want 1-7", sc.SessionsPerWeek)
	}
	if len(sc.Weekdays) != sc.SessionsPerWeek {
		return fmt.Errorf("%d weekdays for %d sessions per week", len(sc.Weekdays), sc.SessionsPerWeek)
	}
	for _, w := range sc.Weekdays {
		if _, ok := w.Index(); !ok {
			return fmt.Errorf("unknown weekday %q", w)
		}
	}
	r := sc.AllowedDurationMinutes
	if r.MinMinutes <= 0 || r.MaxMinutes <= 0 || r.MinMinutes > r.MaxMinutes {
		return fmt.Errorf("allowed duration range [%d,%d] is invalid", r.MinMinutes, r.MaxMinutes)
	}
	if sc.TargetMinutes < r.MinMinutes || sc.TargetMinutes > r.MaxMinutes {
		return fmt.Errorf("target %d min outside allowed range [%d,%d]", sc.TargetMinutes, r.MinMinutes, r.MaxMinutes)
	}
	return nil
}

func failed(v Violation) Result {
	return Result{Violations: []Violation{v}}
}
