// Package spacing checks weekly session placement against a minimum muscle
// recovery window. The check is advisory: conflicts are reported, never
// auto-corrected, so the package stays side-effect-free.
package spacing

import (
	"sort"

	"github.com/claude/liftplan/internal/models"
)

// Check reports every pair of sessions whose weekdays are closer than the
// recovery window while both stress at least one common primary muscle in
// their main or accessory work. Day distance wraps around the week, so a
// Saturday and Monday session are two days apart.
func Check(sessions []models.Session, minRecoveryHours int) models.SpacingReport {
	var conflicts []models.SpacingConflict

	for i := 0; i < len(sessions); i++ {
		for j := i + 1; j < len(sessions); j++ {
			a, b := sessions[i], sessions[j]
			days, ok := dayDistance(a.Weekday, b.Weekday)
			if !ok || days*24 >= minRecoveryHours {
				continue
			}
			overlap := muscleOverlap(a, b)
			if len(overlap) == 0 {
				continue
			}
			conflicts = append(conflicts, models.SpacingConflict{
				SessionA:           a.SessionIndex,
				SessionB:           b.SessionIndex,
				HoursApart:         days * 24,
				OverlappingMuscles: overlap,
			})
		}
	}

	return models.SpacingReport{OK: len(conflicts) == 0, Conflicts: conflicts}
}

// dayDistance returns the shorter wrap-around distance between two
// weekdays, in whole days.
func dayDistance(a, b models.Weekday) (int, bool) {
	ai, ok := a.Index()
	if !ok {
		return 0, false
	}
	bi, ok := b.Index()
	if !ok {
		return 0, false
	}
	d := ai - bi
	if d < 0 {
		d = -d
	}
	if wrapped := 7 - d; wrapped < d {
		d = wrapped
	}
	return d, true
}

// muscleOverlap intersects the primary muscles of the two sessions' main
// and accessory exercises, sorted for deterministic output.
func muscleOverlap(a, b models.Session) []string {
	seen := map[string]bool{}
	for _, ex := range a.Exercises(models.BlockMain, models.BlockAccessory) {
		for _, m := range ex.PrimaryMuscles {
			seen[m] = true
		}
	}

	hit := map[string]bool{}
	for _, ex := range b.Exercises(models.BlockMain, models.BlockAccessory) {
		for _, m := range ex.PrimaryMuscles {
			if seen[m] {
				hit[m] = true
			}
		}
	}

	if len(hit) == 0 {
		return nil
	}
	out := make([]string, 0, len(hit))
	for m := range hit {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
