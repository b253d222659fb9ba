package timemodel

import (
	"errors"
	"testing"

	"github.com/claude/liftplan/internal/models"
)

var testTM = models.TimeModel{
	WorkSecondsPer10Reps:        60,
	RestBetweenSetsSeconds:      90,
	RestBetweenExercisesSeconds: 60,
	WarmupMinutesDefault:        8,
	CooldownMinutesDefault:      5,
}

// TestParseRepsRange verifies rep ranges resolve to the rounded midpoint.
func TestParseRepsRange(t *testing.T) {
	cases := []struct {
		in   string
		reps int
	}{
		{"8-12", 10},
		{"8 - 12", 10},
		{"5-6", 6}, // 5.5 rounds up
		{"10", 10},
		{"1", 1},
	}
	for _, c := range cases {
		p, err := ParseReps(c.in)
		if err != nil {
			t.Fatalf("ParseReps(%q) error: %v", c.in, err)
		}
		if p.Timed {
			t.Errorf("ParseReps(%q) timed, want rep count", c.in)
		}
		if p.Reps != c.reps {
			t.Errorf("ParseReps(%q) = %d reps, want %d", c.in, p.Reps, c.reps)
		}
	}
}

// TestParseRepsTimed verifies second and minute prescriptions, including
// ranges and unit spelling variants.
func TestParseRepsTimed(t *testing.T) {
	cases := []struct {
		in      string
		seconds int
	}{
		{"40s", 40},
		{"30-45s", 38}, // 37.5 rounds up
		{"30 sec", 30},
		{"45 seconds", 45},
		{"6 min", 360},
		{"2-3 min", 150},
		{"1 minute", 60},
		{"6 MIN", 360},
	}
	for _, c := range cases {
		p, err := ParseReps(c.in)
		if err != nil {
			t.Fatalf("ParseReps(%q) error: %v", c.in, err)
		}
		if !p.Timed {
			t.Errorf("ParseReps(%q) not timed", c.in)
		}
		if p.Seconds != c.seconds {
			t.Errorf("ParseReps(%q) = %ds, want %ds", c.in, p.Seconds, c.seconds)
		}
	}
}

// TestParseRepsMalformed verifies unparseable strings return *ParseError.
func TestParseRepsMalformed(t *testing.T) {
	for _, in := range []string{"", "AMRAP", "8x3", "fast", "-5", "8-12 reps each side"} {
		_, err := ParseReps(in)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParseReps(%q) err = %v, want *ParseError", in, err)
		}
	}
}

// TestDurationOfReps verifies the per-exercise estimate: sets*(work+rest)
// minus the final set's trailing rest.
func TestDurationOfReps(t *testing.T) {
	ex := models.PrescribedExercise{ExerciseID: "back_squat", Sets: 4, Reps: "8-12", RestSeconds: 90}
	d, err := DurationOf(ex, models.BlockMain, testTM)
	if err != nil {
		t.Fatalf("DurationOf error: %v", err)
	}
	// midpoint 10 reps -> 60s work; 4*(60+90)-90 = 510
	if d != 510 {
		t.Errorf("duration = %d, want 510", d)
	}
}

// TestDurationOfTimedMain verifies timed work multiplies by sets inside a
// main block.
func TestDurationOfTimedMain(t *testing.T) {
	ex := models.PrescribedExercise{ExerciseID: "plank", Sets: 3, Reps: "40s", RestSeconds: 60}
	d, err := DurationOf(ex, models.BlockMain, testTM)
	if err != nil {
		t.Fatalf("DurationOf error: %v", err)
	}
	// 3*(40+60)-60 = 240
	if d != 240 {
		t.Errorf("duration = %d, want 240", d)
	}
}

// TestDurationOfTimedCardioFlat verifies timed work outside main/accessory
// counts once regardless of sets.
func TestDurationOfTimedCardioFlat(t *testing.T) {
	ex := models.PrescribedExercise{ExerciseID: "rowing_machine", Sets: 3, Reps: "6 min", RestSeconds: 60}
	d, err := DurationOf(ex, models.BlockCardio, testTM)
	if err != nil {
		t.Fatalf("DurationOf error: %v", err)
	}
	if d != 360 {
		t.Errorf("duration = %d, want 360 (flat, sets ignored)", d)
	}
}

// TestSetCost verifies the marginal per-set cost used by the fitter.
func TestSetCost(t *testing.T) {
	ex := models.PrescribedExercise{ExerciseID: "back_squat", Sets: 4, Reps: "10", RestSeconds: 90}
	cost, err := SetCost(ex, models.BlockMain, testTM)
	if err != nil {
		t.Fatalf("SetCost error: %v", err)
	}
	if cost != 150 {
		t.Errorf("cost = %d, want 150", cost)
	}

	flat := models.PrescribedExercise{ExerciseID: "rowing_machine", Sets: 2, Reps: "6 min", RestSeconds: 60}
	cost, err = SetCost(flat, models.BlockCardio, testTM)
	if err != nil {
		t.Fatalf("SetCost error: %v", err)
	}
	if cost != 0 {
		t.Errorf("flat timed cost = %d, want 0", cost)
	}
}

// TestSessionDuration verifies warmup/cooldown contribute flat allowances
// and exactly one inter-exercise gap separates consecutive counted
// exercises.
func TestSessionDuration(t *testing.T) {
	s := models.Session{
		SessionIndex: 1,
		Weekday:      "monday",
		Blocks: []models.Block{
			{Type: models.BlockWarmup, Exercises: []models.PrescribedExercise{
				{ExerciseID: "jumping_jacks", Sets: 1, Reps: "30s"},
			}},
			{Type: models.BlockMain, Exercises: []models.PrescribedExercise{
				// 510s and 360s respectively
				{ExerciseID: "back_squat", Sets: 4, Reps: "8-12", RestSeconds: 90},
				{ExerciseID: "bench_press", Sets: 3, Reps: "10", RestSeconds: 90},
			}},
			{Type: models.BlockCooldown, Exercises: []models.PrescribedExercise{
				{ExerciseID: "hamstring_stretch", Sets: 1, Reps: "1 minute"},
			}},
		},
	}

	d, err := SessionDuration(s, testTM)
	if err != nil {
		t.Fatalf("SessionDuration error: %v", err)
	}
	// warmup 8*60 + (510 + 60 + 360) + cooldown 5*60 = 480+930+300 = 1710
	if d != 1710 {
		t.Errorf("duration = %d, want 1710", d)
	}
}

// TestSessionDurationOverrides verifies positive session-level warmup and
// cooldown minutes replace the time model defaults.
func TestSessionDurationOverrides(t *testing.T) {
	s := models.Session{
		WarmupMinutes:   10,
		CooldownMinutes: 7,
		Blocks: []models.Block{
			{Type: models.BlockWarmup},
			{Type: models.BlockCooldown},
		},
	}
	d, err := SessionDuration(s, testTM)
	if err != nil {
		t.Fatalf("SessionDuration error: %v", err)
	}
	if d != 17*60 {
		t.Errorf("duration = %d, want %d", d, 17*60)
	}
}

// TestSessionDurationMalformedReps verifies a bad reps string surfaces as an
// error naming the exercise.
func TestSessionDurationMalformedReps(t *testing.T) {
	s := models.Session{
		SessionIndex: 2,
		Blocks: []models.Block{
			{Type: models.BlockMain, Exercises: []models.PrescribedExercise{
				{ExerciseID: "back_squat", Sets: 3, Reps: "AMRAP", RestSeconds: 90},
			}},
		},
	}
	_, err := SessionDuration(s, testTM)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want wrapped *ParseError", err)
	}
}
