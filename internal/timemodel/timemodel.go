// Package timemodel converts exercise prescriptions into elapsed seconds.
//
// Rest attribution convention: the final set of an exercise carries no
// trailing rest. The only rest between two exercises is the inter-exercise
// gap from the time model. The fitter's contribution arithmetic relies on
// the same convention; changing it here silently biases greedy selection.
package timemodel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/liftplan/internal/models"
)

// ParseError reports a reps string the time model cannot interpret.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable reps %q", e.Input)
}

var (
	repRangeRe  = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
	repSingleRe = regexp.MustCompile(`^(\d+)$`)
	secRe       = regexp.MustCompile(`^(\d+)(?:\s*-\s*(\d+))?\s*s(?:ec(?:onds)?)?$`)
	minRe       = regexp.MustCompile(`^(\d+)(?:\s*-\s*(\d+))?\s*min(?:ute)?s?$`)
)

// Prescription is a parsed reps string: either a representative rep count or
// an explicit per-set duration in seconds.
type Prescription struct {
	Timed   bool
	Reps    int
	Seconds int
}

// ParseReps interprets a reps string. Accepted forms: "8-12", "10",
// "30-45s", "40s", "6 min", "2-3 min". Ranges use the rounded midpoint.
func ParseReps(reps string) (Prescription, error) {
	s := strings.ToLower(strings.TrimSpace(reps))

	if m := repRangeRe.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		return Prescription{Reps: midpoint(a, b)}, nil
	}
	if m := repSingleRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Prescription{Reps: n}, nil
	}
	if m := secRe.FindStringSubmatch(s); m != nil {
		return Prescription{Timed: true, Seconds: rangeSeconds(m, 1)}, nil
	}
	if m := minRe.FindStringSubmatch(s); m != nil {
		return Prescription{Timed: true, Seconds: rangeSeconds(m, 60)}, nil
	}
	return Prescription{}, &ParseError{Input: reps}
}

func midpoint(a, b int) int {
	return int(math.Round(float64(a+b) / 2))
}

// rangeSeconds converts both endpoints to seconds before taking the
// midpoint, so "2-3 min" means midpoint(120, 180) = 150 rather than a
// whole-minute midpoint of 180.
func rangeSeconds(m []string, scale int) int {
	a, _ := strconv.Atoi(m[1])
	if m[2] == "" {
		return a * scale
	}
	b, _ := strconv.Atoi(m[2])
	return midpoint(a*scale, b*scale)
}

// setsMultiply reports whether a timed prescription repeats per set.
// Timed work only multiplies in main and accessory blocks.
func setsMultiply(bt models.BlockType) bool {
	return bt == models.BlockMain || bt == models.BlockAccessory
}

// WorkSecondsPerSet returns the working seconds of a single set, excluding
// any rest.
func WorkSecondsPerSet(p Prescription, tm models.TimeModel) int {
	if p.Timed {
		return p.Seconds
	}
	return int(math.Round(float64(p.Reps) / 10 * float64(tm.WorkSecondsPer10Reps)))
}

// SetCost returns the marginal seconds one additional (or one fewer) set of
// the exercise contributes: working time plus one inter-set rest. Zero when
// extra sets do not change the estimate (timed work outside main/accessory).
func SetCost(ex models.PrescribedExercise, bt models.BlockType, tm models.TimeModel) (int, error) {
	p, err := ParseReps(ex.Reps)
	if err != nil {
		return 0, err
	}
	if p.Timed && !setsMultiply(bt) {
		return 0, nil
	}
	return WorkSecondsPerSet(p, tm) + ex.RestSeconds, nil
}

// DurationOf estimates one exercise's total seconds inside a block of the
// given type. The last set carries no trailing rest.
func DurationOf(ex models.PrescribedExercise, bt models.BlockType, tm models.TimeModel) (int, error) {
	p, err := ParseReps(ex.Reps)
	if err != nil {
		return 0, err
	}
	work := WorkSecondsPerSet(p, tm)
	sets := ex.Sets
	if p.Timed && !setsMultiply(bt) {
		sets = 1
	}
	if sets < 1 {
		sets = 1
	}
	return sets*(work+ex.RestSeconds) - ex.RestSeconds, nil
}

// SessionDuration estimates a whole session.
//
// Warmup and cooldown blocks contribute a flat allowance (the session
// override when positive, else the time model default) rather than
// per-exercise arithmetic. Every other block contributes per-exercise
// durations, with one inter-exercise gap between consecutive exercises;
// warmup/cooldown boundaries add no gap.
func SessionDuration(s models.Session, tm models.TimeModel) (int, error) {
	total := 0
	counted := 0

	for _, b := range s.Blocks {
		switch b.Type {
		case models.BlockWarmup:
			total += minutesOr(s.WarmupMinutes, tm.WarmupMinutesDefault) * 60
		case models.BlockCooldown:
			total += minutesOr(s.CooldownMinutes, tm.CooldownMinutesDefault) * 60
		default:
			for _, ex := range b.Exercises {
				d, err := DurationOf(ex, b.Type, tm)
				if err != nil {
					return 0, fmt.Errorf("session %d exercise %s: %w", s.SessionIndex, ex.ExerciseID, err)
				}
				if counted > 0 {
					total += tm.RestBetweenExercisesSeconds
				}
				total += d
				counted++
			}
		}
	}
	return total, nil
}

func minutesOr(override, def int) int {
	if override > 0 {
		return override
	}
	return def
}

// HasBlock reports whether the session contains a block of the given type.
func HasBlock(s models.Session, bt models.BlockType) bool {
	for _, b := range s.Blocks {
		if b.Type == bt {
			return true
		}
	}
	return false
}
