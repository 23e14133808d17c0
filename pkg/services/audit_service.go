package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
)

const maxSummaryReasons = 2

// AuditTrailEntry is one audit event shaped for review surfaces, with a
// derived one-line summary.
type AuditTrailEntry struct {
	ID            uuid.UUID        `json:"id"`
	Time          time.Time        `json:"time"`
	ActorType     models.ActorType `json:"actor_type"`
	Action        string           `json:"action"`
	ModelName     string           `json:"model_name,omitempty"`
	PromptVersion string           `json:"prompt_version,omitempty"`
	Summary       string           `json:"summary,omitempty"`
}

// AuditService exposes read-only views of the audit trail.
type AuditService interface {
	// RecordTrail returns a record's audit trail in chronological order.
	// Each entry carries a summary line built from the event's action and
	// the first reasons of its response payload.
	RecordTrail(ctx context.Context, recordID uuid.UUID) ([]*AuditTrailEntry, error)

	// ProjectTrail returns a project's raw audit events, newest first.
	ProjectTrail(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.AuditEvent, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger.Named("audit-service"),
	}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) RecordTrail(ctx context.Context, recordID uuid.UUID) ([]*AuditTrailEntry, error) {
	events, err := s.auditRepo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	entries := make([]*AuditTrailEntry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, &AuditTrailEntry{
			ID:            ev.ID,
			Time:          ev.CreatedAt,
			ActorType:     ev.ActorType,
			Action:        ev.Action,
			ModelName:     ev.ModelName,
			PromptVersion: ev.PromptVersion,
			Summary:       summarize(ev),
		})
	}
	return entries, nil
}

func (s *auditService) ProjectTrail(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	return s.auditRepo.ListByProject(ctx, projectID, limit)
}

// summarize builds the one-line summary for an event: the action code,
// followed by the first reasons of the response payload when present.
func summarize(ev *models.AuditEvent) string {
	reasons := payloadReasons(ev.ResponsePayload)
	if len(reasons) == 0 {
		return ev.Action
	}
	if len(reasons) > maxSummaryReasons {
		reasons = reasons[:maxSummaryReasons]
	}
	return ev.Action + " - " + strings.Join(reasons, "; ")
}

// payloadReasons extracts the reasons list from a response payload.
// Payloads loaded from JSONB come back as []any, freshly built ones as
// []string.
func payloadReasons(payload map[string]any) []string {
	if payload == nil {
		return nil
	}
	switch raw := payload["reasons"].(type) {
	case []string:
		return raw
	case []any:
		reasons := make([]string, 0, len(raw))
		for _, r := range raw {
			if s, ok := r.(string); ok {
				reasons = append(reasons, s)
			}
		}
		return reasons
	default:
		return nil
	}
}
