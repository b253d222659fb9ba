// liftplan-fit runs the deterministic half of program generation offline:
// it validates a blueprint JSON file, fits it into a duration window, and
// reports recovery-spacing conflicts without touching the server or the LLM.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftplan/internal/fitting"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pool"
	"github.com/claude/liftplan/internal/runlog"
	"github.com/claude/liftplan/internal/spacing"
	"github.com/claude/liftplan/internal/timemodel"
	"github.com/claude/liftplan/internal/validate"
)

func main() {
	blueprintPath := flag.String("blueprint", "", "path to blueprint JSON file (required)")
	catalogPath := flag.String("catalog", "", "optional exercise catalog JSON for pool-containment validation")
	outPath := flag.String("out", "", "write the fitted program JSON here (default: stdout)")
	minMinutes := flag.Int("min", 45, "minimum session duration in minutes")
	maxMinutes := flag.Int("max", 75, "maximum session duration in minutes")
	minRecovery := flag.Int("min-recovery-hours", 48, "recovery window for overlapping muscle groups")
	stateDir := flag.String("state-dir", ".liftplan-fit", "directory for the run-skip state database")
	force := flag.Bool("force", false, "re-fit even if this blueprint was already fitted with the same window")

	workSeconds := flag.Int("work-seconds-per-10-reps", 60, "working seconds per 10 reps")
	restSets := flag.Int("rest-between-sets", 90, "rest between sets in seconds")
	restExercises := flag.Int("rest-between-exercises", 60, "rest between exercises in seconds")
	warmup := flag.Int("warmup-minutes", 8, "default warmup block minutes")
	cooldown := flag.Int("cooldown-minutes", 5, "default cooldown block minutes")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *blueprintPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-fit -blueprint plan.json [-min 45 -max 75] [-catalog exercises.json]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *minMinutes <= 0 || *maxMinutes < *minMinutes {
		log.Error("invalid duration window", "min", *minMinutes, "max", *maxMinutes)
		os.Exit(1)
	}

	state, err := runlog.Open(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	fileHash, err := runlog.HashFile(*blueprintPath)
	if err != nil {
		log.Error("failed to hash blueprint", "path", *blueprintPath, "error", err)
		os.Exit(1)
	}
	// The window is part of the identity: the same blueprint fitted into a
	// different window is a different run.
	runHash := fmt.Sprintf("%s:%d-%d", fileHash, *minMinutes, *maxMinutes)

	if !*force {
		outcome, err := state.Outcome(runHash)
		if err != nil {
			log.Error("state lookup failed", "error", err)
			os.Exit(1)
		}
		if outcome != "" {
			log.Info("blueprint unchanged since last run, skipping (use -force to re-fit)",
				"outcome", outcome)
			return
		}
	}

	bp, err := loadBlueprint(*blueprintPath)
	if err != nil {
		log.Error("failed to load blueprint", "path", *blueprintPath, "error", err)
		os.Exit(1)
	}

	tm := models.TimeModel{
		WorkSecondsPer10Reps:        *workSeconds,
		RestBetweenSetsSeconds:      *restSets,
		RestBetweenExercisesSeconds: *restExercises,
		WarmupMinutesDefault:        *warmup,
		CooldownMinutesDefault:      *cooldown,
	}

	if *catalogPath != "" {
		catalog, err := loadCatalog(*catalogPath)
		if err != nil {
			log.Error("failed to load catalog", "path", *catalogPath, "error", err)
			os.Exit(1)
		}
		if res := validate.Blueprint(bp, pool.Build(catalog)); !res.OK {
			for _, v := range res.Violations {
				log.Error("blueprint violation", "code", v.Code, "detail", v.Detail)
			}
			recordOutcome(state, runHash, "invalid", log)
			os.Exit(1)
		}
		log.Info("blueprint valid against catalog")
	}

	for _, s := range bp.Sessions {
		d, err := timemodel.SessionDuration(s, tm)
		if err != nil {
			log.Error("unparseable prescription", "session", s.SessionIndex, "error", err)
			recordOutcome(state, runHash, "invalid", log)
			os.Exit(1)
		}
		log.Info("session before fitting", "session", s.SessionIndex, "weekday", s.Weekday, "minutes", d/60)
	}

	window := fitting.FromMinutes(models.DurationRange{MinMinutes: *minMinutes, MaxMinutes: *maxMinutes})
	fitted, err := fitting.FitProgram(bp, tm, window)
	if err != nil {
		log.Error("fitting failed", "error", err)
		recordOutcome(state, runHash, "infeasible", log)
		os.Exit(1)
	}

	sessions := make([]models.Session, len(fitted))
	for i, fs := range fitted {
		sessions[i] = fs.Session
		log.Info("session fitted", "session", fs.SessionIndex, "weekday", fs.Weekday,
			"minutes", fs.EstimatedDurationSeconds/60)
	}

	report := spacing.Check(sessions, *minRecovery)
	for _, c := range report.Conflicts {
		log.Warn("recovery spacing conflict", "session_a", c.SessionA, "session_b", c.SessionB,
			"hours_apart", c.HoursApart, "muscles", c.OverlappingMuscles)
	}

	program := models.FittedProgram{
		ProgramName:   bp.ProgramName,
		DurationWeeks: bp.DurationWeeks,
		Sessions:      fitted,
		Spacing:       report,
	}
	if err := writeProgram(*outPath, program); err != nil {
		log.Error("failed to write output", "error", err)
		os.Exit(1)
	}

	recordOutcome(state, runHash, "fitted", log)
	log.Info("fit complete", "sessions", len(fitted), "spacing_ok", report.OK)
}

func recordOutcome(state *runlog.StateDB, hash, outcome string, log *slog.Logger) {
	if err := state.Record(hash, outcome); err != nil {
		log.Warn("failed to record run outcome", "error", err)
	}
}

func loadBlueprint(path string) (models.Blueprint, error) {
	var bp models.Blueprint
	data, err := os.ReadFile(path)
	if err != nil {
		return bp, err
	}
	if err := json.Unmarshal(data, &bp); err != nil {
		return bp, fmt.Errorf("parsing blueprint: %w", err)
	}
	return bp, nil
}

func loadCatalog(path string) ([]models.ExerciseRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog []models.ExerciseRef
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return catalog, nil
}

func writeProgram(path string, program models.FittedProgram) error {
	data, err := json.MarshalIndent(program, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
