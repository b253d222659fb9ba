package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pool"
	"github.com/claude/liftplan/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	catalogPath := flag.String("catalog", "", "path to exercise catalog JSON file (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *catalogPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-import -config config.yaml -catalog exercises.json [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		log.Error("failed to load catalog", "path", *catalogPath, "error", err)
		os.Exit(1)
	}
	log.Info("catalog loaded", "path", *catalogPath, "exercises", len(catalog))

	var rejected []string
	kept := catalog[:0]
	for _, ref := range catalog {
		if ref.ExerciseID == "" || ref.Category == "" || len(ref.PrimaryMuscles) == 0 {
			rejected = append(rejected, ref.ExerciseID)
			continue
		}
		kept = append(kept, ref)
	}
	if len(rejected) > 0 {
		log.Warn("rejected entries with missing id, category, or primary muscles", "count", len(rejected), "ids", rejected)
	}

	// Preview the selection pools the server would build from this catalog.
	pools := pool.Build(kept)
	for _, bucket := range pools.BucketNames() {
		log.Info("pool bucket", "category", bucket, "size", len(pools[bucket]))
	}
	log.Info("pool summary", "buckets", len(pools), "exercises", pools.Size(), "hash", pools.Hash())
	if err := pools.Validate(); err != nil {
		log.Warn("catalog yields out-of-bounds pools", "error", err)
	}

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	dsn := cfg.Database.DSN()

	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	var inserted, updated int
	for _, ref := range kept {
		created, err := db.UpsertExercise(ctx, ref)
		if err != nil {
			log.Error("upsert failed", "exercise_id", ref.ExerciseID, "error", err)
			os.Exit(1)
		}
		if created {
			inserted++
		} else {
			updated++
		}
	}

	log.Info("import complete", "inserted", inserted, "updated", updated, "rejected", len(rejected))
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
