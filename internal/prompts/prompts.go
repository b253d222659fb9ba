// Package prompts defines the two LLM stage contracts (analysis and
// blueprint) and builds the chat messages for each.
package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/claude/liftplan/internal/llm"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pool"
)

// UserProfile is the caller-supplied picture of the trainee.
type UserProfile struct {
	Age           int     `json:"age,omitempty"`
	Sex           string  `json:"sex,omitempty"`
	WeightKg      float64 `json:"weight_kg,omitempty"`
	HeightCm      float64 `json:"height_cm,omitempty"`
	TrainingLevel string  `json:"training_level,omitempty"`
	PrimaryGoal   string  `json:"primary_goal"`
	Sport         string  `json:"sport,omitempty"`
}

// AnalysisInput is the first-stage contract input.
type AnalysisInput struct {
	User UserProfile `json:"user"`
}

// Recommendations bounds the volume the blueprint stage should propose.
type Recommendations struct {
	SetsPerSessionMin   int `json:"sets_per_session_min"`
	SetsPerSessionMax   int `json:"sets_per_session_max"`
	WeeklyVolumeSetsMin int `json:"weekly_volume_sets_min"`
	WeeklyVolumeSetsMax int `json:"weekly_volume_sets_max"`
}

// AnalysisOutput is the strict-JSON output of the analysis stage.
type AnalysisOutput struct {
	AnalysisSummary   string                   `json:"analysis_summary"`
	FocusDistribution models.FocusDistribution `json:"focus_distribution"`
	Recommendations   Recommendations          `json:"recommendations"`
}

// CheckAnalysisOutput enforces the required fields the JSON decoder cannot.
func CheckAnalysisOutput(out AnalysisOutput) error {
	if out.AnalysisSummary == "" {
		return fmt.Errorf("analysis_summary is empty")
	}
	if out.Recommendations.SetsPerSessionMin <= 0 || out.Recommendations.SetsPerSessionMax < out.Recommendations.SetsPerSessionMin {
		return fmt.Errorf("sets_per_session bounds [%d,%d] are invalid",
			out.Recommendations.SetsPerSessionMin, out.Recommendations.SetsPerSessionMax)
	}
	return nil
}

// BlueprintInput is the second-stage contract input.
type BlueprintInput struct {
	Schedule          models.ScheduleConstraints `json:"schedule"`
	FocusDistribution models.FocusDistribution   `json:"focus_distribution"`
	Sport             string                     `json:"sport,omitempty"`
	TimeModel         models.TimeModel           `json:"time_model"`
	CandidatePools    pool.Pools                 `json:"candidate_pools"`
	CandidatePoolHash string                     `json:"candidate_pool_hash,omitempty"`
}

const analysisSystem = `You are a strength and conditioning analyst.
Given a trainee profile, respond with ONLY a JSON object, no prose, matching:
{
  "analysis_summary": string,
  "focus_distribution": {"strength": int, "hypertrophy": int, "endurance": int, "cardio": int},
  "recommendations": {
    "sets_per_session_min": int, "sets_per_session_max": int,
    "weekly_volume_sets_min": int, "weekly_volume_sets_max": int
  }
}
The four focus_distribution values must sum to exactly 100.`

const blueprintSystem = `You are a workout program designer.
Given schedule constraints, a focus distribution, a time model and candidate
exercise pools, respond with ONLY a JSON object, no prose, matching:
{
  "program_name": string,
  "duration_weeks": int,
  "sessions": [{
    "session_index": int, "weekday": string, "name": string,
    "blocks": [{
      "type": "warmup"|"main"|"accessory"|"cardio"|"cooldown",
      "exercises": [{
        "exercise_id": string, "category": string,
        "required_equipment": [string], "primary_muscles": [string],
        "secondary_muscles": [string], "difficulty": string,
        "sets": int, "reps": string, "rest_seconds": int,
        "load_type": "percentage_1rm"|"rpe"|"bodyweight"|"fixed",
        "load_value": number, "priority": 1|2|3
      }]
    }]
  }]
}
Rules:
- Use ONLY exercise_id values that appear in candidate_pools.
- Copy the exercise metadata (category, equipment, muscles, difficulty) faithfully.
- priority 1 protects an exercise from removal, 2 allows set adjustment, 3 allows removal.
- One session per requested weekday, in the requested order.
- reps is either a rep range like "8-12" or a duration like "30-45s" or "6 min".`

// AnalysisMessages builds the analysis-stage chat turns.
func AnalysisMessages(in AnalysisInput) ([]llm.Message, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding analysis input: %w", err)
	}
	return []llm.Message{
		{Role: "system", Content: analysisSystem},
		{Role: "user", Content: string(body)},
	}, nil
}

// BlueprintMessages builds the blueprint-stage chat turns.
func BlueprintMessages(in BlueprintInput) ([]llm.Message, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding blueprint input: %w", err)
	}
	return []llm.Message{
		{Role: "system", Content: blueprintSystem},
		{Role: "user", Content: string(body)},
	}, nil
}

// RepairMessages asks the model to fix its previous reply. Used for the
// bounded malformed-JSON repair retries.
func RepairMessages(previous []llm.Message, raw string, cause error) []llm.Message {
	return append(previous[:len(previous):len(previous)],
		llm.Message{Role: "assistant", Content: raw},
		llm.Message{Role: "user", Content: fmt.Sprintf(
			"Your previous reply was rejected: %v. Respond again with ONLY the corrected JSON object.", cause)},
	)
}

// RegenerateMessages asks the model for a fresh blueprint after validation
// failures, naming the violations so the retry can avoid them.
func RegenerateMessages(previous []llm.Message, raw, violations string) []llm.Message {
	return append(previous[:len(previous):len(previous)],
		llm.Message{Role: "assistant", Content: raw},
		llm.Message{Role: "user", Content: fmt.Sprintf(
			"That program was rejected by validation: %s. Produce a corrected JSON program that fixes every violation.", violations)},
	)
}
