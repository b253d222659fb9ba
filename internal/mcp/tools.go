package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/claude/liftplan/internal/jobs"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/spacing"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/timemodel"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetJob = mcp.NewTool("get_job",
	mcp.WithDescription("Poll a generation job. Returns status (queued/generating/completed/failed), progress 0-100, and the fitted program or error reason once terminal."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Job id returned by the generate endpoint")),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Fetch a saved fitted program by id, including every session's blocks, prescriptions and estimated duration."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Program id")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List a user's saved programs, newest first. Summaries only; use get_program for the full payload."),
	mcp.WithString("user_id", mcp.Required(), mcp.Description("User id")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List exercise catalog entries with category, equipment, muscles and difficulty."),
	mcp.WithString("category", mcp.Description("Filter by category bucket (e.g. squat, hinge, push, pull)")),
)

var toolEstimateSession = mcp.NewTool("estimate_session",
	mcp.WithDescription("Estimate a session's duration in seconds under the server's time model. Input is a session JSON object with blocks and prescribed exercises."),
	mcp.WithString("session_json", mcp.Required(), mcp.Description("Session object as JSON")),
)

var toolCheckSpacing = mcp.NewTool("check_spacing",
	mcp.WithDescription("Check weekly recovery spacing for a set of sessions. Reports pairs of nearby sessions stressing the same primary muscles."),
	mcp.WithString("sessions_json", mcp.Required(), mcp.Description("JSON array of session objects with weekdays")),
	mcp.WithString("min_recovery_hours", mcp.Description("Recovery window in hours. Defaults to 48.")),
)

// --- Tool handlers ---

func (h *handlers) getJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	job, err := h.jobs.Get(id)
	if errors.Is(err, jobs.ErrNotFound) {
		return mcp.NewToolResultError("job not found"), nil
	}
	return resultJSON(job)
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	sp, err := h.db.GetProgram(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("program not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return resultJSON(sp)
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}

	list, err := h.db.ListPrograms(ctx, userID)
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return resultJSON(list)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.db.ListExercises(ctx, req.GetString("category", ""))
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return resultJSON(list)
}

func (h *handlers) estimateSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("session_json")
	if err != nil {
		return mcp.NewToolResultError("session_json parameter is required"), nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return mcp.NewToolResultError("invalid session JSON: " + err.Error()), nil
	}

	d, err := timemodel.SessionDuration(session, h.tm)
	if err != nil {
		return mcp.NewToolResultError("estimate failed: " + err.Error()), nil
	}
	return resultJSON(map[string]int{"estimated_duration_seconds": d})
}

func (h *handlers) checkSpacing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("sessions_json")
	if err != nil {
		return mcp.NewToolResultError("sessions_json parameter is required"), nil
	}

	var sessions []models.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return mcp.NewToolResultError("invalid sessions JSON: " + err.Error()), nil
	}

	hours := 48
	if v := req.GetString("min_recovery_hours", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return mcp.NewToolResultError("min_recovery_hours must be a non-negative integer"), nil
		}
		hours = n
	}

	return resultJSON(spacing.Check(sessions, hours))
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog, err := h.db.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func resultJSON(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
