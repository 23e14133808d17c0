package models

import "github.com/google/uuid"

// DecisionMethod says how a record's screening attempt was resolved.
type DecisionMethod string

const (
	MethodSkipped   DecisionMethod = "skipped"
	MethodRules     DecisionMethod = "rules"
	MethodReasoning DecisionMethod = "reasoning"
)

// ReasoningOutcome is the validated result of one reasoning exchange. The
// reasoning client always produces an outcome: degraded and invalid
// responses collapse into a deterministic unclear fallback rather than an
// error.
type ReasoningOutcome struct {
	Decision            Outcome       `json:"decision"`
	Reasons             []string      `json:"reasons"`
	VerbatimQuote       string        `json:"verbatim_quote"`
	QuoteLocation       QuoteLocation `json:"quote_location"`
	QCFlag              bool          `json:"qc_flag"`
	HumanActionRequired bool          `json:"human_action_required"`
	ModelName           string        `json:"model_name"`
}

// ScreeningSummary aggregates one screening run over a project.
type ScreeningSummary struct {
	ProjectID             uuid.UUID `json:"project_id"`
	TotalRecordsSeen      int       `json:"total_records_seen"`
	SkippedAlreadyDecided int       `json:"skipped_already_decided"`
	ScreenedByRules       int       `json:"screened_by_rules"`
	ScreenedByLLM         int       `json:"screened_by_llm"`
}
