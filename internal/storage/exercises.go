package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

// UpsertExercise inserts or refreshes a catalog entry. Returns true when a
// new row was created. RowsAffected cannot tell insert from update under
// DO UPDATE, so the query returns xmax = 0 (set only on freshly inserted
// rows) instead.
func (db *DB) UpsertExercise(ctx context.Context, ref models.ExerciseRef) (bool, error) {
	var inserted bool
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (exercise_id, name, category, required_equipment,
		 primary_muscles, secondary_muscles, difficulty)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (exercise_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   category = EXCLUDED.category,
		   required_equipment = EXCLUDED.required_equipment,
		   primary_muscles = EXCLUDED.primary_muscles,
		   secondary_muscles = EXCLUDED.secondary_muscles,
		   difficulty = EXCLUDED.difficulty
		 RETURNING (xmax = 0)`,
		ref.ExerciseID, ref.Name, ref.Category, ref.RequiredEquipment,
		ref.PrimaryMuscles, ref.SecondaryMuscles, ref.Difficulty).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upserting exercise %s: %w", ref.ExerciseID, err)
	}
	return inserted, nil
}

// ListExercises returns catalog entries, optionally filtered by category,
// in stable id order.
func (db *DB) ListExercises(ctx context.Context, category string) ([]models.ExerciseRef, error) {
	query := `SELECT exercise_id, name, category, required_equipment,
	          primary_muscles, secondary_muscles, difficulty
	          FROM exercises`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY exercise_id`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var out []models.ExerciseRef
	for rows.Next() {
		var ref models.ExerciseRef
		if err := rows.Scan(&ref.ExerciseID, &ref.Name, &ref.Category, &ref.RequiredEquipment,
			&ref.PrimaryMuscles, &ref.SecondaryMuscles, &ref.Difficulty); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// LoadCatalog returns the whole catalog ordered by category then id, the
// order the candidate pool builder relies on.
func (db *DB) LoadCatalog(ctx context.Context) ([]models.ExerciseRef, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, name, category, required_equipment,
		 primary_muscles, secondary_muscles, difficulty
		 FROM exercises ORDER BY category, exercise_id`)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	defer rows.Close()

	var out []models.ExerciseRef
	for rows.Next() {
		var ref models.ExerciseRef
		if err := rows.Scan(&ref.ExerciseID, &ref.Name, &ref.Category, &ref.RequiredEquipment,
			&ref.PrimaryMuscles, &ref.SecondaryMuscles, &ref.Difficulty); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
