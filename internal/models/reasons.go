package models

// Reason is a machine-distinguishable code attached to a failed job so
// clients can tell cancellation, model failures, and fitting failures apart.
type Reason string

const (
	// ReasonFormatError marks LLM output that was not parseable as the
	// expected strict JSON after all repair attempts.
	ReasonFormatError Reason = "format_error"

	// ReasonInvalidBlueprint marks a blueprint that still failed validation
	// after the bounded regeneration retries.
	ReasonInvalidBlueprint Reason = "invalid_blueprint"

	// Fitter infeasibility reasons.
	ReasonCannotShrinkBelowMax Reason = "cannot_shrink_below_max"
	ReasonCannotGrowToMin      Reason = "cannot_grow_to_min"
	ReasonFitterDidNotConverge Reason = "fitter_did_not_converge"

	// ReasonUserCancelled marks a cooperative cancellation requested by the
	// client; distinct from true failure so the UI can render it differently.
	ReasonUserCancelled Reason = "user_cancelled"

	// ReasonLLMUnavailable marks a transport-level failure talking to the
	// model provider after retries.
	ReasonLLMUnavailable Reason = "llm_unavailable"
)
