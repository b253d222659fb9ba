package spacing

import (
	"reflect"
	"testing"

	"github.com/claude/liftplan/internal/models"
)

func session(idx int, weekday models.Weekday, blockType models.BlockType, muscles ...string) models.Session {
	return models.Session{
		SessionIndex: idx,
		Weekday:      weekday,
		Blocks: []models.Block{{
			Type: blockType,
			Exercises: []models.PrescribedExercise{{
				ExerciseID:     "x",
				PrimaryMuscles: muscles,
			}},
		}},
	}
}

// TestCheckConflict verifies back-to-back days with shared primary muscles
// produce a conflict carrying the sorted overlap.
func TestCheckConflict(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "quadriceps", "glutes"),
		session(2, "tuesday", models.BlockMain, "glutes", "hamstrings"),
	}, 48)

	if report.OK {
		t.Fatal("24h apart with shared glutes, want conflict")
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(report.Conflicts))
	}
	c := report.Conflicts[0]
	if c.SessionA != 1 || c.SessionB != 2 || c.HoursApart != 24 {
		t.Errorf("conflict = %+v, want sessions 1/2 at 24h", c)
	}
	if !reflect.DeepEqual(c.OverlappingMuscles, []string{"glutes"}) {
		t.Errorf("overlap = %v, want [glutes]", c.OverlappingMuscles)
	}
}

// TestCheckNoMuscleOverlap verifies adjacent days without shared muscles
// pass.
func TestCheckNoMuscleOverlap(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "chest", "triceps"),
		session(2, "tuesday", models.BlockMain, "quadriceps", "glutes"),
	}, 48)
	if !report.OK {
		t.Errorf("no shared muscles, want OK: %+v", report.Conflicts)
	}
}

// TestCheckEnoughSpacing verifies sessions separated by at least the window
// pass even with full overlap.
func TestCheckEnoughSpacing(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "quadriceps"),
		session(2, "wednesday", models.BlockMain, "quadriceps"),
	}, 48)
	if !report.OK {
		t.Errorf("48h apart with 48h window, want OK: %+v", report.Conflicts)
	}
}

// TestCheckWrapAround verifies day distance wraps the week: Saturday and
// Monday are two days apart, not five.
func TestCheckWrapAround(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "back"),
		session(2, "saturday", models.BlockMain, "back"),
	}, 72)

	if report.OK {
		t.Fatal("sat->mon wraps to 48h inside a 72h window, want conflict")
	}
	if got := report.Conflicts[0].HoursApart; got != 48 {
		t.Errorf("hours apart = %d, want 48", got)
	}
}

// TestCheckIgnoresWarmupMuscles verifies warmup and cooldown work never
// count toward the overlap.
func TestCheckIgnoresWarmupMuscles(t *testing.T) {
	a := session(1, "monday", models.BlockMain, "quadriceps")
	b := session(2, "tuesday", models.BlockWarmup, "quadriceps")

	report := Check([]models.Session{a, b}, 48)
	if !report.OK {
		t.Errorf("warmup-only overlap flagged: %+v", report.Conflicts)
	}
}

// TestCheckAccessoryCounts verifies accessory blocks participate in the
// overlap alongside main work.
func TestCheckAccessoryCounts(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "hamstrings"),
		session(2, "tuesday", models.BlockAccessory, "hamstrings"),
	}, 48)
	if report.OK {
		t.Error("accessory overlap ignored, want conflict")
	}
}

// TestCheckUnknownWeekdaySkipped verifies pairs with an unparseable weekday
// are skipped rather than reported.
func TestCheckUnknownWeekdaySkipped(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "back"),
		session(2, "someday", models.BlockMain, "back"),
	}, 48)
	if !report.OK {
		t.Errorf("unknown weekday produced a conflict: %+v", report.Conflicts)
	}
}

// TestCheckMultipleConflicts verifies every offending pair is reported.
func TestCheckMultipleConflicts(t *testing.T) {
	report := Check([]models.Session{
		session(1, "monday", models.BlockMain, "quadriceps"),
		session(2, "tuesday", models.BlockMain, "quadriceps"),
		session(3, "wednesday", models.BlockMain, "quadriceps"),
	}, 48)

	// mon-tue and tue-wed conflict; mon-wed is exactly 48h and passes.
	if len(report.Conflicts) != 2 {
		t.Errorf("conflicts = %d, want 2: %+v", len(report.Conflicts), report.Conflicts)
	}
}
