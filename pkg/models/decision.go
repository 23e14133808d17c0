package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the screening phase a decision belongs to.
type Stage string

const (
	StageTitleAbstract Stage = "title_abstract"
	StageFullText      Stage = "full_text"
)

// ParseStage validates a stage string.
func ParseStage(s string) (Stage, bool) {
	switch Stage(s) {
	case StageTitleAbstract, StageFullText:
		return Stage(s), true
	}
	return "", false
}

// Outcome is the closed set of screening decisions.
type Outcome string

const (
	OutcomeInclude Outcome = "include"
	OutcomeExclude Outcome = "exclude"
	OutcomeUnclear Outcome = "unclear"
)

// ParseOutcome validates an outcome string.
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case OutcomeInclude, OutcomeExclude, OutcomeUnclear:
		return Outcome(s), true
	}
	return "", false
}

// QuoteLocation says where a supporting verbatim quote was taken from.
type QuoteLocation string

const (
	QuoteLocationTitle    QuoteLocation = "Title"
	QuoteLocationAbstract QuoteLocation = "Abstract"
)

// Creator identities stamped into Decision.CreatedBy. Human decisions carry
// the reviewer id instead.
const (
	CreatedBySystemRules = "SYSTEM_RULES"
	CreatedByAI          = "AI"
)

// Model names and prompt versions stamped by the decision recorder.
const (
	ModelNameRulesOnly     = "rules_only"
	ModelNameHumanReviewer = "human_reviewer"
	ModelNameNone          = "none"

	PromptVersionTARules = "ta_rules_v1"
	PromptVersionTALLM   = "ta_llm_v1"
	PromptVersionManual  = "manual"
)

// Decision is one screening verdict for a record at a stage. Rows are
// append-only: a record accumulates decision history, and the current
// decision for a stage is the most recently created row for that
// (record, stage) pair. Rows are never updated or deleted.
type Decision struct {
	ID       uuid.UUID `json:"id"`
	RecordID uuid.UUID `json:"record_id"`

	Stage    Stage    `json:"stage"`
	Decision Outcome  `json:"decision"`
	Reasons  []string `json:"reasons"`

	VerbatimQuote string        `json:"verbatim_quote,omitempty"`
	QuoteLocation QuoteLocation `json:"quote_location,omitempty"`

	QCFlag        bool      `json:"qc_flag"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	ModelName     string    `json:"model_name,omitempty"`
	PromptVersion string    `json:"prompt_version,omitempty"`
}
