package validate

import (
	"strings"
	"testing"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pool"
)

var testPools = pool.Pools{
	"strength": {"back_squat", "bench_press", "deadlift"},
	"cardio":   {"rowing_machine"},
}

func validExercise(id string) models.PrescribedExercise {
	return models.PrescribedExercise{
		ExerciseID:        id,
		Category:          "strength",
		RequiredEquipment: []string{"barbell"},
		PrimaryMuscles:    []string{"quadriceps"},
		Difficulty:        "intermediate",
		Sets:              4,
		Reps:              "8-12",
		RestSeconds:       90,
		LoadType:          models.LoadPercentage1RM,
		LoadValue:         75,
		Priority:          models.PriorityProtect,
	}
}

func validBlueprint() models.Blueprint {
	return models.Blueprint{
		ProgramName:   "strength base",
		DurationWeeks: 8,
		Sessions: []models.Session{{
			SessionIndex: 1,
			Weekday:      "monday",
			Blocks: []models.Block{{
				Type:      models.BlockMain,
				Exercises: []models.PrescribedExercise{validExercise("back_squat")},
			}},
		}},
	}
}

// TestFocusValid verifies a distribution summing to exactly 100 passes.
func TestFocusValid(t *testing.T) {
	res := Focus(models.FocusDistribution{Strength: 40, Hypertrophy: 40, Endurance: 10, Cardio: 10})
	if !res.OK {
		t.Errorf("valid focus rejected: %s", res.Summary())
	}
}

// TestFocusSumRejected verifies a distribution summing to 99 is rejected
// with invalid_focus_sum before anything downstream runs.
func TestFocusSumRejected(t *testing.T) {
	res := Focus(models.FocusDistribution{Strength: 40, Hypertrophy: 40, Endurance: 10, Cardio: 9})
	if res.OK {
		t.Fatal("focus sum 99 accepted")
	}
	if len(res.Violations) != 1 || res.Violations[0].Code != InvalidFocusSum {
		t.Errorf("violations = %+v, want one %s", res.Violations, InvalidFocusSum)
	}
	if !strings.Contains(res.Violations[0].Detail, "99") {
		t.Errorf("detail %q does not name the bad sum", res.Violations[0].Detail)
	}
}

// TestBlueprintValid verifies a fully populated blueprint passes.
func TestBlueprintValid(t *testing.T) {
	res := Blueprint(validBlueprint(), testPools)
	if !res.OK {
		t.Errorf("valid blueprint rejected: %s", res.Summary())
	}
}

// TestBlueprintUnknownExercise verifies an id missing from every pool
// bucket is reported with unknown_exercise_id, pinned to its session.
func TestBlueprintUnknownExercise(t *testing.T) {
	bp := validBlueprint()
	bp.Sessions[0].Blocks[0].Exercises[0].ExerciseID = "squat_999"

	res := Blueprint(bp, testPools)
	if res.OK {
		t.Fatal("unknown exercise accepted")
	}
	v := res.Violations[0]
	if v.Code != UnknownExerciseID {
		t.Errorf("code = %s, want %s", v.Code, UnknownExerciseID)
	}
	if v.ExerciseID != "squat_999" || v.SessionIndex != 1 {
		t.Errorf("violation pinned to %s/session %d, want squat_999/1", v.ExerciseID, v.SessionIndex)
	}
}

// TestBlueprintIncompleteMetadata verifies missing catalog metadata is
// reported with incomplete_metadata.
func TestBlueprintIncompleteMetadata(t *testing.T) {
	bp := validBlueprint()
	bp.Sessions[0].Blocks[0].Exercises[0].PrimaryMuscles = nil

	res := Blueprint(bp, testPools)
	if res.OK {
		t.Fatal("incomplete metadata accepted")
	}
	if res.Violations[0].Code != IncompleteMetadata {
		t.Errorf("code = %s, want %s", res.Violations[0].Code, IncompleteMetadata)
	}
}

// TestBlueprintLoadBounds verifies each load type's bounds.
func TestBlueprintLoadBounds(t *testing.T) {
	cases := []struct {
		name  string
		lt    models.LoadType
		value float64
		ok    bool
	}{
		{"pct in range", models.LoadPercentage1RM, 75, true},
		{"pct zero", models.LoadPercentage1RM, 0, false},
		{"pct over 100", models.LoadPercentage1RM, 101, false},
		{"rpe in range", models.LoadRPE, 8, true},
		{"rpe over 10", models.LoadRPE, 11, false},
		{"bodyweight zero", models.LoadBodyweight, 0, true},
		{"bodyweight nonzero", models.LoadBodyweight, 20, false},
		{"fixed positive", models.LoadFixed, 24, true},
		{"fixed negative", models.LoadFixed, -1, false},
		{"unknown type", models.LoadType("banded"), 1, false},
	}
	for _, c := range cases {
		bp := validBlueprint()
		bp.Sessions[0].Blocks[0].Exercises[0].LoadType = c.lt
		bp.Sessions[0].Blocks[0].Exercises[0].LoadValue = c.value

		res := Blueprint(bp, testPools)
		if res.OK != c.ok {
			t.Errorf("%s: ok = %v, want %v (%s)", c.name, res.OK, c.ok, res.Summary())
		}
		if !c.ok && res.Violations[0].Code != InvalidLoad {
			t.Errorf("%s: code = %s, want %s", c.name, res.Violations[0].Code, InvalidLoad)
		}
	}
}

// TestBlueprintMalformedReps verifies an unparseable reps string is
// reported with malformed_reps.
func TestBlueprintMalformedReps(t *testing.T) {
	bp := validBlueprint()
	bp.Sessions[0].Blocks[0].Exercises[0].Reps = "AMRAP"

	res := Blueprint(bp, testPools)
	if res.OK {
		t.Fatal("malformed reps accepted")
	}
	if res.Violations[0].Code != MalformedReps {
		t.Errorf("code = %s, want %s", res.Violations[0].Code, MalformedReps)
	}
}

// TestBlueprintCollectsAllViolations verifies validation reports every
// problem in one pass instead of stopping at the first.
func TestBlueprintCollectsAllViolations(t *testing.T) {
	bp := validBlueprint()
	e := &bp.Sessions[0].Blocks[0].Exercises[0]
	e.ExerciseID = "squat_999"
	e.Reps = "AMRAP"
	e.Sets = 0
	e.Priority = 9

	res := Blueprint(bp, testPools)
	if res.OK {
		t.Fatal("broken blueprint accepted")
	}
	codes := map[Code]bool{}
	for _, v := range res.Violations {
		codes[v.Code] = true
	}
	for _, want := range []Code{UnknownExerciseID, MalformedReps, InvalidStructure} {
		if !codes[want] {
			t.Errorf("missing violation %s in %s", want, res.Summary())
		}
	}
}

// TestBlueprintStructure verifies empty-session and weekday checks.
func TestBlueprintStructure(t *testing.T) {
	bp := models.Blueprint{ProgramName: "x", DurationWeeks: 0}
	res := Blueprint(bp, testPools)
	if res.OK {
		t.Fatal("empty blueprint accepted")
	}

	bp = validBlueprint()
	bp.Sessions[0].Weekday = "someday"
	res = Blueprint(bp, testPools)
	if res.OK || res.Violations[0].Code != InvalidStructure {
		t.Errorf("unknown weekday not rejected as %s: %+v", InvalidStructure, res.Violations)
	}
}

// TestScheduleConstraints verifies caller-side schedule validation.
func TestScheduleConstraints(t *testing.T) {
	good := models.ScheduleConstraints{
		SessionsPerWeek:        3,
		TargetMinutes:          60,
		AllowedDurationMinutes: models.DurationRange{MinMinutes: 45, MaxMinutes: 75},
		Weekdays:               []models.Weekday{"monday", "wednesday", "friday"},
	}
	if err := Schedule(good); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}

	bad := good
	bad.Weekdays = []models.Weekday{"monday"}
	if err := Schedule(bad); err == nil {
		t.Error("weekday count mismatch accepted")
	}

	bad = good
	bad.TargetMinutes = 90
	if err := Schedule(bad); err == nil {
		t.Error("target outside allowed range accepted")
	}

	bad = good
	bad.SessionsPerWeek = 0
	bad.Weekdays = nil
	if err := Schedule(bad); err == nil {
		t.Error("zero sessions per week accepted")
	}
}
