// Package pipeline runs the generation sequence for one job: analysis ->
// blueprint -> validate -> fit -> spacing check. Stages run sequentially;
// the job's terminal state is checked between stages so a user cancel stops
// the pipeline before the next stage starts, never mid-stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/liftplan/internal/fitting"
	"github.com/claude/liftplan/internal/jobs"
	"github.com/claude/liftplan/internal/llm"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pool"
	"github.com/claude/liftplan/internal/prompts"
	"github.com/claude/liftplan/internal/spacing"
	"github.com/claude/liftplan/internal/validate"
)

// Progress milestones reported into the job as stages finish.
const (
	progressGenerating = 5
	progressAnalysis   = 30
	progressValidated  = 65
	progressFitted     = 85
	progressSpacing    = 95
)

// Retry bounds. Nothing in the pipeline retries indefinitely.
const (
	maxFormatRepairs = 2
	maxRegenerations = 2
	chatTemperature  = 0.4
)

// Chatter is the slice of the LLM client the pipeline needs.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, temperature float64) (string, error)
}

// ProgramStore persists completed programs. May be nil; persistence
// failures never fail the job.
type ProgramStore interface {
	SaveProgram(ctx context.Context, userID string, program models.FittedProgram) (string, error)
}

// Config carries the deterministic-stage constants.
type Config struct {
	TimeModel        models.TimeModel
	MinRecoveryHours int
}

// Pipeline executes generation requests against a job manager.
type Pipeline struct {
	chat  Chatter
	jobs  *jobs.Manager
	store ProgramStore
	cfg   Config
	log   *slog.Logger
}

// New wires a pipeline. store may be nil to skip persistence.
func New(chat Chatter, mgr *jobs.Manager, store ProgramStore, cfg Config, log *slog.Logger) *Pipeline {
	return &Pipeline{chat: chat, jobs: mgr, store: store, cfg: cfg, log: log}
}

// Request is one generation ask, already bound to a candidate pool version.
type Request struct {
	UserID   string
	User     prompts.UserProfile
	Schedule models.ScheduleConstraints
	Pools    pool.Pools
}

// Run drives the job to a terminal state. It is meant to run in its own
// goroutine; every outcome lands in the job manager, nothing is returned.
func (p *Pipeline) Run(ctx context.Context, jobID string, req Request) {
	status := models.JobGenerating
	progress := progressGenerating
	if _, err := p.jobs.Update(jobID, models.JobUpdate{Status: &status, Progress: &progress}); err != nil {
		// Cancelled before the first stage, or unknown id.
		p.log.Info("pipeline not started", "job", jobID, "error", err)
		return
	}

	analysis, err := p.analysisStage(ctx, req)
	if err != nil {
		p.fail(jobID, err)
		return
	}
	if !p.advance(jobID, progressAnalysis) {
		return
	}

	bp, err := p.blueprintStage(ctx, req, analysis)
	if err != nil {
		p.fail(jobID, err)
		return
	}
	if !p.advance(jobID, progressValidated) {
		return
	}

	window := fitting.FromMinutes(req.Schedule.AllowedDurationMinutes)
	fitted, err := fitting.FitProgram(bp, p.cfg.TimeModel, window)
	if err != nil {
		p.fail(jobID, err)
		return
	}
	if !p.advance(jobID, progressFitted) {
		return
	}

	// Spacing runs on the fitted sessions: fitting may have removed the
	// exercise that caused an overlap.
	sessions := make([]models.Session, len(fitted))
	for i, fs := range fitted {
		sessions[i] = fs.Session
	}
	report := spacing.Check(sessions, p.cfg.MinRecoveryHours)
	if !report.OK {
		p.log.Info("recovery spacing conflicts", "job", jobID, "conflicts", len(report.Conflicts))
	}
	if !p.advance(jobID, progressSpacing) {
		return
	}

	program := models.FittedProgram{
		ProgramName:     bp.ProgramName,
		DurationWeeks:   bp.DurationWeeks,
		AnalysisSummary: analysis.AnalysisSummary,
		Focus:           analysis.FocusDistribution,
		Sessions:        fitted,
		Spacing:         report,
	}

	if p.store != nil {
		if id, err := p.store.SaveProgram(ctx, req.UserID, program); err != nil {
			p.log.Error("program persistence failed", "job", jobID, "error", err)
		} else {
			p.log.Info("program saved", "job", jobID, "program", id)
		}
	}

	if _, err := p.jobs.Complete(jobID, &program); err != nil {
		p.log.Info("completion dropped", "job", jobID, "error", err)
	}
}

// advance bumps progress and reports whether the pipeline may continue.
// A terminal job (user cancel) stops it.
func (p *Pipeline) advance(jobID string, progress int) bool {
	_, err := p.jobs.Update(jobID, models.JobUpdate{Progress: &progress})
	if err != nil {
		p.log.Info("pipeline stopped", "job", jobID, "error", err)
		return false
	}
	return true
}

// fail maps a stage error to its reason code and fails the job. Failing a
// job that was cancelled meanwhile is a no-op.
func (p *Pipeline) fail(jobID string, err error) {
	reason := models.ReasonLLMUnavailable

	var formatErr *llm.FormatError
	var infeasible *fitting.InfeasibleError
	var invalid *blueprintInvalidError
	switch {
	case errors.As(err, &formatErr):
		reason = models.ReasonFormatError
	case errors.As(err, &infeasible):
		reason = infeasible.Reason
	case errors.As(err, &invalid):
		reason = models.ReasonInvalidBlueprint
	}

	if _, ferr := p.jobs.Fail(jobID, reason, err.Error()); ferr != nil {
		p.log.Info("failure dropped", "job", jobID, "error", ferr)
		return
	}
	p.log.Warn("generation failed", "job", jobID, "reason", reason, "error", err)
}

// blueprintInvalidError carries the aggregated violations of the last
// regeneration attempt.
type blueprintInvalidError struct {
	result validate.Result
}

func (e *blueprintInvalidError) Error() string {
	return fmt.Sprintf("blueprint rejected after retries: %s", e.result.Summary())
}

func (p *Pipeline) analysisStage(ctx context.Context, req Request) (prompts.AnalysisOutput, error) {
	msgs, err := prompts.AnalysisMessages(prompts.AnalysisInput{User: req.User})
	if err != nil {
		return prompts.AnalysisOutput{}, err
	}

	var out prompts.AnalysisOutput
	_, err = p.chatJSON(ctx, msgs, &out, func() error {
		if err := prompts.CheckAnalysisOutput(out); err != nil {
			return err
		}
		if res := validate.Focus(out.FocusDistribution); !res.OK {
			return fmt.Errorf("%s", res.Summary())
		}
		return nil
	})
	if err != nil {
		return prompts.AnalysisOutput{}, fmt.Errorf("analysis stage: %w", err)
	}
	return out, nil
}

// blueprintStage asks for a program and re-asks, with the violations named,
// up to maxRegenerations times when validation rejects it.
func (p *Pipeline) blueprintStage(ctx context.Context, req Request, analysis prompts.AnalysisOutput) (models.Blueprint, error) {
	msgs, err := prompts.BlueprintMessages(prompts.BlueprintInput{
		Schedule:          req.Schedule,
		FocusDistribution: analysis.FocusDistribution,
		Sport:             req.User.Sport,
		TimeModel:         p.cfg.TimeModel,
		CandidatePools:    req.Pools,
		CandidatePoolHash: req.Pools.Hash(),
	})
	if err != nil {
		return models.Blueprint{}, err
	}

	var lastResult validate.Result
	for attempt := 0; attempt <= maxRegenerations; attempt++ {
		var bp models.Blueprint
		raw, err := p.chatJSON(ctx, msgs, &bp, nil)
		if err != nil {
			return models.Blueprint{}, fmt.Errorf("blueprint stage: %w", err)
		}

		lastResult = validate.Blueprint(bp, req.Pools)
		if lastResult.OK {
			return bp, nil
		}
		p.log.Info("blueprint rejected", "attempt", attempt+1, "violations", len(lastResult.Violations))
		msgs = prompts.RegenerateMessages(msgs, raw, lastResult.Summary())
	}
	return models.Blueprint{}, &blueprintInvalidError{result: lastResult}
}

// chatJSON sends the messages, extracts strict JSON into out, and retries
// with a repair turn up to maxFormatRepairs times on parse or contract
// failures. Transport errors are returned as-is.
func (p *Pipeline) chatJSON(ctx context.Context, msgs []llm.Message, out any, check func() error) (string, error) {
	var lastErr error
	var raw string

	for attempt := 0; attempt <= maxFormatRepairs; attempt++ {
		var err error
		raw, err = p.chat.Chat(ctx, msgs, chatTemperature)
		if err != nil {
			return "", err
		}

		err = llm.ExtractJSON(raw, out)
		if err == nil && check != nil {
			if cerr := check(); cerr != nil {
				err = &llm.FormatError{Attempts: []string{"contract"}, Last: cerr}
			}
		}
		if err == nil {
			return raw, nil
		}
		lastErr = err
		msgs = prompts.RepairMessages(msgs, raw, err)
	}
	return raw, lastErr
}
