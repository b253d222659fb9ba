package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SavedProgram is a persisted fitted program with its envelope.
type SavedProgram struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	Program   models.FittedProgram `json:"program"`
}

// ProgramSummary is the listing view, payload omitted.
type ProgramSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DurationWeeks int       `json:"duration_weeks"`
	Sessions      int       `json:"sessions"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaveProgram stores a completed program and returns its id.
func (db *DB) SaveProgram(ctx context.Context, userID string, program models.FittedProgram) (string, error) {
	payload, err := json.Marshal(program)
	if err != nil {
		return "", fmt.Errorf("encoding program: %w", err)
	}

	id := uuid.NewString()
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO generated_programs (id, user_id, name, duration_weeks, session_count, payload)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, userID, program.ProgramName, program.DurationWeeks, len(program.Sessions), payload)
	if err != nil {
		return "", fmt.Errorf("inserting program: %w", err)
	}
	return id, nil
}

// GetProgram fetches one saved program by id.
func (db *DB) GetProgram(ctx context.Context, id string) (*SavedProgram, error) {
	var (
		sp      SavedProgram
		payload []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at, payload
		 FROM generated_programs WHERE id = $1`, id).
		Scan(&sp.ID, &sp.UserID, &sp.Name, &sp.CreatedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching program %s: %w", id, err)
	}
	if err := json.Unmarshal(payload, &sp.Program); err != nil {
		return nil, fmt.Errorf("decoding program %s: %w", id, err)
	}
	return &sp, nil
}

// ListPrograms returns a user's saved programs, newest first.
func (db *DB) ListPrograms(ctx context.Context, userID string) ([]ProgramSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, duration_weeks, session_count, created_at
		 FROM generated_programs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var out []ProgramSummary
	for rows.Next() {
		var s ProgramSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationWeeks, &s.Sessions, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning program summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
