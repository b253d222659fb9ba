// Package fitting adjusts a session's prescription until its estimated
// duration lands inside the allowed window, or reports why it cannot.
//
// The algorithm is greedy and deterministic: one change at a time, duration
// recomputed after every change, ties broken by ascending exercise id.
// Priority-1 exercises are never shrunk or removed.
package fitting

import (
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/timemodel"
)

// MaxAdjustments bounds the number of single changes per session. Hitting
// the bound is an infeasibility outcome, never a hang.
const MaxAdjustments = 50

// extensionStepSeconds is the grow-path increment applied to the warmup or
// cooldown allowance when no adjustable exercise can absorb more volume.
const extensionStepSeconds = 60

// Range is the allowed session duration window in seconds.
type Range struct {
	MinSeconds int
	MaxSeconds int
}

// FromMinutes converts a minute-based duration range.
func FromMinutes(r models.DurationRange) Range {
	return Range{MinSeconds: r.MinMinutes * 60, MaxSeconds: r.MaxMinutes * 60}
}

// InfeasibleError reports that a session cannot be fitted into the window.
type InfeasibleError struct {
	Reason          models.Reason
	SessionIndex    int
	DurationSeconds int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("session %d infeasible (%s) at %ds", e.SessionIndex, e.Reason, e.DurationSeconds)
}

// FitProgram fits every session of a blueprint independently. The first
// infeasible session aborts the program; partially fitted output would not
// be a usable week.
func FitProgram(bp models.Blueprint, tm models.TimeModel, r Range) ([]models.FittedSession, error) {
	fitted := make([]models.FittedSession, 0, len(bp.Sessions))
	for _, s := range bp.Sessions {
		fs, err := FitSession(s, tm, r)
		if err != nil {
			return nil, err
		}
		fitted = append(fitted, fs)
	}
	return fitted, nil
}

// FitSession returns the session adjusted to the window, leaving the input
// untouched. When the window cannot be met it returns *InfeasibleError.
func FitSession(s models.Session, tm models.TimeModel, r Range) (models.FittedSession, error) {
	work := cloneSession(s)

	d, err := timemodel.SessionDuration(work, tm)
	if err != nil {
		return models.FittedSession{}, err
	}

	for iter := 0; ; iter++ {
		if d >= r.MinSeconds && d <= r.MaxSeconds {
			return models.FittedSession{Session: work, EstimatedDurationSeconds: d}, nil
		}
		if iter >= MaxAdjustments {
			return models.FittedSession{}, &InfeasibleError{
				Reason: models.ReasonFitterDidNotConverge, SessionIndex: s.SessionIndex, DurationSeconds: d,
			}
		}

		var applied bool
		if d > r.MaxSeconds {
			applied, err = shrinkOnce(&work, tm)
			if err != nil {
				return models.FittedSession{}, err
			}
			if !applied {
				return models.FittedSession{}, &InfeasibleError{
					Reason: models.ReasonCannotShrinkBelowMax, SessionIndex: s.SessionIndex, DurationSeconds: d,
				}
			}
		} else {
			applied, err = growOnce(&work, tm, d, r.MaxSeconds)
			if err != nil {
				return models.FittedSession{}, err
			}
			if !applied {
				return models.FittedSession{}, &InfeasibleError{
					Reason: models.ReasonCannotGrowToMin, SessionIndex: s.SessionIndex, DurationSeconds: d,
				}
			}
		}

		d, err = timemodel.SessionDuration(work, tm)
		if err != nil {
			return models.FittedSession{}, err
		}
	}
}

// candidate locates one exercise inside the working session.
type candidate struct {
	block, idx int
	id         string
	seconds    int
}

// shrinkOnce applies the single highest-preference reduction: drop one set
// from the largest-contribution removable-tier exercise with sets>1, else
// remove the largest removable-tier exercise outright, then the same two
// steps against the adjustable tier. Returns false when nothing may change.
func shrinkOnce(s *models.Session, tm models.TimeModel) (bool, error) {
	for _, prio := range []int{models.PriorityRemoveOK, models.PriorityAdjustable} {
		if c, ok, err := largestWithExtraSets(s, tm, prio); err != nil {
			return false, err
		} else if ok {
			s.Blocks[c.block].Exercises[c.idx].Sets--
			return true, nil
		}
		if c, ok, err := largestRemovable(s, tm, prio); err != nil {
			return false, err
		} else if ok {
			exs := s.Blocks[c.block].Exercises
			s.Blocks[c.block].Exercises = append(exs[:c.idx:c.idx], exs[c.idx+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func largestWithExtraSets(s *models.Session, tm models.TimeModel, prio int) (candidate, bool, error) {
	var best candidate
	found := false
	err := eachAdjustable(s, func(bi, ei int, ex models.PrescribedExercise, bt models.BlockType) error {
		if ex.Priority != prio || ex.Sets <= 1 {
			return nil
		}
		cost, err := timemodel.SetCost(ex, bt, tm)
		if err != nil {
			return err
		}
		if cost == 0 {
			// Dropping a set changes nothing for flat timed work.
			return nil
		}
		d, err := timemodel.DurationOf(ex, bt, tm)
		if err != nil {
			return err
		}
		c := candidate{block: bi, idx: ei, id: ex.ExerciseID, seconds: d}
		if !found || larger(c, best) {
			best, found = c, true
		}
		return nil
	})
	return best, found, err
}

func largestRemovable(s *models.Session, tm models.TimeModel, prio int) (candidate, bool, error) {
	// A removal may not leave the session with no adjustable or removable
	// content at all; that would strand later shrink passes.
	if countShrinkable(s) <= 1 {
		return candidate{}, false, nil
	}
	var best candidate
	found := false
	err := eachAdjustable(s, func(bi, ei int, ex models.PrescribedExercise, bt models.BlockType) error {
		if ex.Priority != prio {
			return nil
		}
		d, err := timemodel.DurationOf(ex, bt, tm)
		if err != nil {
			return err
		}
		c := candidate{block: bi, idx: ei, id: ex.ExerciseID, seconds: d}
		if !found || larger(c, best) {
			best, found = c, true
		}
		return nil
	})
	return best, found, err
}

// growOnce adds one set to the adjustable exercise with the smallest
// per-set cost, falling back to extending the cooldown (then warmup)
// allowance. Steps that would overshoot the window maximum are not taken.
func growOnce(s *models.Session, tm models.TimeModel, d, maxSeconds int) (bool, error) {
	var best candidate
	found := false
	err := eachAdjustable(s, func(bi, ei int, ex models.PrescribedExercise, bt models.BlockType) error {
		if ex.Priority != models.PriorityAdjustable {
			return nil
		}
		cost, err := timemodel.SetCost(ex, bt, tm)
		if err != nil {
			return err
		}
		if cost == 0 {
			return nil
		}
		c := candidate{block: bi, idx: ei, id: ex.ExerciseID, seconds: cost}
		if !found || smaller(c, best) {
			best, found = c, true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if found && d+best.seconds <= maxSeconds {
		s.Blocks[best.block].Exercises[best.idx].Sets++
		return true, nil
	}

	if d+extensionStepSeconds > maxSeconds {
		return false, nil
	}
	if timemodel.HasBlock(*s, models.BlockCooldown) {
		s.CooldownMinutes = minutesOr(s.CooldownMinutes, tm.CooldownMinutesDefault) + 1
		return true, nil
	}
	if timemodel.HasBlock(*s, models.BlockWarmup) {
		s.WarmupMinutes = minutesOr(s.WarmupMinutes, tm.WarmupMinutesDefault) + 1
		return true, nil
	}
	return false, nil
}

// eachAdjustable visits every exercise outside warmup/cooldown blocks in
// execution order.
func eachAdjustable(s *models.Session, fn func(bi, ei int, ex models.PrescribedExercise, bt models.BlockType) error) error {
	for bi, b := range s.Blocks {
		if b.Type == models.BlockWarmup || b.Type == models.BlockCooldown {
			continue
		}
		for ei, ex := range b.Exercises {
			if err := fn(bi, ei, ex, b.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func countShrinkable(s *models.Session) int {
	n := 0
	eachAdjustable(s, func(_, _ int, ex models.PrescribedExercise, _ models.BlockType) error {
		if ex.Priority == models.PriorityAdjustable || ex.Priority == models.PriorityRemoveOK {
			n++
		}
		return nil
	})
	return n
}

func larger(a, b candidate) bool {
	if a.seconds != b.seconds {
		return a.seconds > b.seconds
	}
	return strings.Compare(a.id, b.id) < 0
}

func smaller(a, b candidate) bool {
	if a.seconds != b.seconds {
		return a.seconds < b.seconds
	}
	return strings.Compare(a.id, b.id) < 0
}

func minutesOr(override, def int) int {
	if override > 0 {
		return override
	}
	return def
}

func cloneSession(s models.Session) models.Session {
	out := s
	out.Blocks = make([]models.Block, len(s.Blocks))
	for i, b := range s.Blocks {
		nb := b
		nb.Exercises = make([]models.PrescribedExercise, len(b.Exercises))
		copy(nb.Exercises, b.Exercises)
		out.Blocks[i] = nb
	}
	return out
}
