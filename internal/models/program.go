package models

import "strings"

// LoadType describes how a prescribed load is expressed.
type LoadType string

const (
	LoadPercentage1RM LoadType = "percentage_1rm"
	LoadRPE           LoadType = "rpe"
	LoadBodyweight    LoadType = "bodyweight"
	LoadFixed         LoadType = "fixed"
)

// BlockType orders the phases of a session.
type BlockType string

const (
	BlockWarmup    BlockType = "warmup"
	BlockMain      BlockType = "main"
	BlockAccessory BlockType = "accessory"
	BlockCardio    BlockType = "cardio"
	BlockCooldown  BlockType = "cooldown"
)

// ExerciseRef is a catalog entry. Identity is ExerciseID, unique within a
// candidate pool version; the struct is immutable once issued by the pool.
type ExerciseRef struct {
	ExerciseID        string   `json:"exercise_id"`
	Name              string   `json:"name,omitempty"`
	Category          string   `json:"category"`
	RequiredEquipment []string `json:"required_equipment"`
	PrimaryMuscles    []string `json:"primary_muscles"`
	SecondaryMuscles  []string `json:"secondary_muscles,omitempty"`
	Difficulty        string   `json:"difficulty"`
}

// TimeModel holds the per-request timing constants every duration estimate
// derives from. Constant for the lifetime of a generation request.
type TimeModel struct {
	WorkSecondsPer10Reps        int `json:"work_seconds_per_10_reps"`
	RestBetweenSetsSeconds      int `json:"rest_between_sets_seconds"`
	RestBetweenExercisesSeconds int `json:"rest_between_exercises_seconds"`
	WarmupMinutesDefault        int `json:"warmup_minutes_default"`
	CooldownMinutesDefault      int `json:"cooldown_minutes_default"`
}

// Exercise priority tiers. The fitter may never remove a protected exercise
// while an adjustable or removable one remains in the session.
const (
	PriorityProtect    = 1
	PriorityAdjustable = 2
	PriorityRemoveOK   = 3
)

// PrescribedExercise is one exercise line inside a block, carrying both the
// prescription and the catalog metadata the validator requires.
type PrescribedExercise struct {
	ExerciseID        string   `json:"exercise_id"`
	Category          string   `json:"category"`
	RequiredEquipment []string `json:"required_equipment"`
	PrimaryMuscles    []string `json:"primary_muscles"`
	SecondaryMuscles  []string `json:"secondary_muscles,omitempty"`
	Difficulty        string   `json:"difficulty"`
	Sets              int      `json:"sets"`
	Reps              string   `json:"reps"`
	RestSeconds       int      `json:"rest_seconds"`
	LoadType          LoadType `json:"load_type"`
	LoadValue         float64  `json:"load_value"`
	Priority          int      `json:"priority"`
}

// Block groups exercises of one phase. Exercise order is execution order.
type Block struct {
	Type      BlockType            `json:"type"`
	Exercises []PrescribedExercise `json:"exercises"`
}

// Session is one training day. Block order is execution order.
// WarmupMinutes and CooldownMinutes override the time model defaults when
// positive; the fitter raises them as a last resort when a session runs short.
type Session struct {
	SessionIndex    int     `json:"session_index"`
	Weekday         Weekday `json:"weekday"`
	Name            string  `json:"name"`
	Blocks          []Block `json:"blocks"`
	WarmupMinutes   int     `json:"warmup_minutes,omitempty"`
	CooldownMinutes int     `json:"cooldown_minutes,omitempty"`
}

// Exercises returns the session's exercises in execution order, optionally
// filtered to the given block types.
func (s Session) Exercises(types ...BlockType) []PrescribedExercise {
	var out []PrescribedExercise
	for _, b := range s.Blocks {
		if len(types) > 0 && !containsBlockType(types, b.Type) {
			continue
		}
		out = append(out, b.Exercises...)
	}
	return out
}

func containsBlockType(types []BlockType, t BlockType) bool {
	for _, bt := range types {
		if bt == t {
			return true
		}
	}
	return false
}

// Blueprint is the structured program proposed by the blueprint stage,
// before deterministic fitting.
type Blueprint struct {
	ProgramName   string    `json:"program_name"`
	DurationWeeks int       `json:"duration_weeks"`
	Sessions      []Session `json:"sessions"`
}

// FocusDistribution splits training emphasis in whole percent.
// The four fields must sum to exactly 100.
type FocusDistribution struct {
	Strength    int `json:"strength"`
	Hypertrophy int `json:"hypertrophy"`
	Endurance   int `json:"endurance"`
	Cardio      int `json:"cardio"`
}

// Sum returns the total of the four focus shares.
func (f FocusDistribution) Sum() int {
	return f.Strength + f.Hypertrophy + f.Endurance + f.Cardio
}

// DurationRange bounds a session length in minutes.
type DurationRange struct {
	MinMinutes int `json:"min"`
	MaxMinutes int `json:"max"`
}

// ScheduleConstraints describes the weekly shape the caller asked for.
// len(Weekdays) must equal SessionsPerWeek and
// MinMinutes <= TargetMinutes <= MaxMinutes.
type ScheduleConstraints struct {
	SessionsPerWeek        int           `json:"sessions_per_week"`
	TargetMinutes          int           `json:"target_minutes"`
	AllowedDurationMinutes DurationRange `json:"allowed_duration_minutes"`
	Weekdays               []Weekday     `json:"weekdays"`
}

// FittedSession is a session after duration fitting, with its final estimate.
type FittedSession struct {
	Session
	EstimatedDurationSeconds int `json:"estimated_duration_seconds"`
}

// SpacingConflict reports two sessions that stress overlapping primary
// muscles closer together than the recovery window allows.
type SpacingConflict struct {
	SessionA           int      `json:"session_a"`
	SessionB           int      `json:"session_b"`
	HoursApart         int      `json:"hours_apart"`
	OverlappingMuscles []string `json:"overlapping_muscles"`
}

// SpacingReport is the advisory output of the recovery scheduler.
type SpacingReport struct {
	OK        bool              `json:"ok"`
	Conflicts []SpacingConflict `json:"conflicts,omitempty"`
}

// FittedProgram is the final pipeline output attached to a completed job.
type FittedProgram struct {
	ProgramName     string            `json:"program_name"`
	DurationWeeks   int               `json:"duration_weeks"`
	AnalysisSummary string            `json:"analysis_summary,omitempty"`
	Focus           FocusDistribution `json:"focus_distribution"`
	Sessions        []FittedSession   `json:"sessions"`
	Spacing         SpacingReport     `json:"spacing"`
}

// Weekday is a lowercase English weekday name.
type Weekday string

var weekdayOrder = map[Weekday]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// Index returns the day's position in the week, Monday = 0.
func (w Weekday) Index() (int, bool) {
	i, ok := weekdayOrder[Weekday(strings.ToLower(string(w)))]
	return i, ok
}
