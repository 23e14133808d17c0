package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
)

// DecisionRecorder persists screening verdicts. Every path writes a
// decision together with its audit event in one transaction, so a
// decision without a trail (or a trail without a decision) cannot exist.
type DecisionRecorder interface {
	// RecordGuardDecision persists an exclusion produced by the
	// deterministic guard layer.
	RecordGuardDecision(ctx context.Context, projectID uuid.UUID, record *models.Record, result *GuardResult) (*models.Decision, error)

	// RecordReasoningDecision persists the outcome of a reasoning
	// exchange, degraded or not.
	RecordReasoningDecision(ctx context.Context, projectID uuid.UUID, record *models.Record, outcome *models.ReasoningOutcome) (*models.Decision, error)

	// RecordHumanOverride persists a reviewer's verdict. The record's
	// earlier decisions are kept; the override becomes current by being
	// the newest row.
	RecordHumanOverride(ctx context.Context, projectID uuid.UUID, recordID uuid.UUID, stage models.Stage, outcome models.Outcome, reasons []string, createdBy string) (*models.Decision, error)
}

type decisionRecorder struct {
	decisionRepo repositories.DecisionRepository
	logger       *zap.Logger
}

// NewDecisionRecorder creates a new DecisionRecorder.
func NewDecisionRecorder(decisionRepo repositories.DecisionRepository, logger *zap.Logger) DecisionRecorder {
	return &decisionRecorder{
		decisionRepo: decisionRepo,
		logger:       logger.Named("decision-recorder"),
	}
}

var _ DecisionRecorder = (*decisionRecorder)(nil)

func (r *decisionRecorder) RecordGuardDecision(ctx context.Context, projectID uuid.UUID, record *models.Record, result *GuardResult) (*models.Decision, error) {
	if !result.Excluded() {
		return nil, fmt.Errorf("guard result for record %s carries no decision", record.ID)
	}

	decision := &models.Decision{
		RecordID:      record.ID,
		Stage:         models.StageTitleAbstract,
		Decision:      *result.Decision,
		Reasons:       result.Reasons,
		QCFlag:        false,
		CreatedBy:     models.CreatedBySystemRules,
		ModelName:     models.ModelNameRulesOnly,
		PromptVersion: models.PromptVersionTARules,
	}

	event := &models.AuditEvent{
		ProjectID:     projectID,
		RecordID:      record.ID,
		ActorType:     models.ActorSystem,
		ActorID:       models.ActorIDSystemRules,
		Action:        models.ActionRulesTADecision,
		ModelName:     models.ModelNameRulesOnly,
		PromptVersion: models.PromptVersionTARules,
		RequestPayload: map[string]any{
			"record_id": record.ID.String(),
		},
		ResponsePayload: map[string]any{
			"decision": string(*result.Decision),
			"reasons":  result.Reasons,
		},
	}

	if err := r.decisionRepo.CreateWithAudit(ctx, decision, event); err != nil {
		return nil, fmt.Errorf("failed to record guard decision: %w", err)
	}

	r.logger.Info("recorded guard decision",
		zap.String("record_id", record.ID.String()),
		zap.String("decision", string(decision.Decision)))
	return decision, nil
}

func (r *decisionRecorder) RecordReasoningDecision(ctx context.Context, projectID uuid.UUID, record *models.Record, outcome *models.ReasoningOutcome) (*models.Decision, error) {
	decision := &models.Decision{
		RecordID:      record.ID,
		Stage:         models.StageTitleAbstract,
		Decision:      outcome.Decision,
		Reasons:       outcome.Reasons,
		VerbatimQuote: outcome.VerbatimQuote,
		QuoteLocation: outcome.QuoteLocation,
		QCFlag:        outcome.QCFlag,
		CreatedBy:     models.CreatedByAI,
		ModelName:     outcome.ModelName,
		PromptVersion: models.PromptVersionTALLM,
	}

	event := &models.AuditEvent{
		ProjectID:     projectID,
		RecordID:      record.ID,
		ActorType:     models.ActorAI,
		ActorID:       models.ActorIDAITitleAbs,
		Action:        models.ActionLLMTADecision,
		ModelName:     outcome.ModelName,
		PromptVersion: models.PromptVersionTALLM,
		RequestPayload: map[string]any{
			"record_id": record.ID.String(),
		},
		ResponsePayload: map[string]any{
			"decision":              string(outcome.Decision),
			"reasons":               outcome.Reasons,
			"verbatim_quote":        outcome.VerbatimQuote,
			"quote_location":        string(outcome.QuoteLocation),
			"qc_flag":               outcome.QCFlag,
			"human_action_required": outcome.HumanActionRequired,
			"model_name":            outcome.ModelName,
		},
	}

	if err := r.decisionRepo.CreateWithAudit(ctx, decision, event); err != nil {
		return nil, fmt.Errorf("failed to record reasoning decision: %w", err)
	}

	r.logger.Info("recorded reasoning decision",
		zap.String("record_id", record.ID.String()),
		zap.String("decision", string(decision.Decision)),
		zap.Bool("qc_flag", decision.QCFlag))
	return decision, nil
}

func (r *decisionRecorder) RecordHumanOverride(ctx context.Context, projectID uuid.UUID, recordID uuid.UUID, stage models.Stage, outcome models.Outcome, reasons []string, createdBy string) (*models.Decision, error) {
	decision := &models.Decision{
		ID:            uuid.New(),
		RecordID:      recordID,
		Stage:         stage,
		Decision:      outcome,
		Reasons:       reasons,
		QCFlag:        false,
		CreatedBy:     createdBy,
		ModelName:     models.ModelNameHumanReviewer,
		PromptVersion: models.PromptVersionManual,
	}

	event := &models.AuditEvent{
		ProjectID:     projectID,
		RecordID:      recordID,
		ActorType:     models.ActorHuman,
		ActorID:       createdBy,
		Action:        models.ActionHumanOverride,
		ModelName:     models.ModelNameHumanReviewer,
		PromptVersion: models.PromptVersionManual,
		RequestPayload: map[string]any{
			"stage":        string(stage),
			"new_decision": string(outcome),
			"reasons":      reasons,
		},
		ResponsePayload: map[string]any{
			"decision_id": decision.ID.String(),
		},
	}

	if err := r.decisionRepo.CreateWithAudit(ctx, decision, event); err != nil {
		return nil, fmt.Errorf("failed to record human override: %w", err)
	}

	r.logger.Info("recorded human override",
		zap.String("record_id", recordID.String()),
		zap.String("decision", string(decision.Decision)),
		zap.String("created_by", createdBy))
	return decision, nil
}
