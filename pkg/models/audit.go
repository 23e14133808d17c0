package models

import (
	"time"

	"github.com/google/uuid"
)

// ActorType identifies who produced an audited action.
type ActorType string

const (
	ActorSystem ActorType = "SYSTEM"
	ActorAI     ActorType = "AI"
	ActorHuman  ActorType = "HUMAN"
)

// Audit action codes.
const (
	ActionRulesTADecision = "RULES_TA_DECISION"
	ActionLLMTADecision   = "LLM_TA_DECISION"
	ActionHumanOverride   = "HUMAN_OVERRIDE"
)

// Actor ids for non-human actors.
const (
	ActorIDSystemRules = "SYSTEM_RULES"
	ActorIDAITitleAbs  = "AI_TA"
)

// AuditEvent is an immutable log entry. Every decision write is paired with
// exactly one audit event in the same transaction, and the trail must be
// reconstructable from audit events alone: the event repeats the actor,
// model and prompt identifiers and carries the full request/response
// payloads. DecisionID is nullable so the trail survives a cascade delete
// of the decision row.
type AuditEvent struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	RecordID   uuid.UUID  `json:"record_id"`
	DecisionID *uuid.UUID `json:"decision_id,omitempty"`

	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`

	ModelName     string `json:"model_name,omitempty"`
	PromptVersion string `json:"prompt_version,omitempty"`

	RequestPayload  map[string]any `json:"request_payload,omitempty"`
	ResponsePayload map[string]any `json:"response_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
