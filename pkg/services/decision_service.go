package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
)

// OverrideInput is a reviewer's manual verdict for a record.
type OverrideInput struct {
	RecordID  uuid.UUID
	Stage     string
	Decision  string
	Reasons   []string
	CreatedBy string
}

// DecisionService exposes decision reads and the human override path.
type DecisionService interface {
	// Override records a reviewer's verdict as a new current decision.
	// Earlier decisions for the record stay in its history. Returns
	// apperrors.ErrInvalidStage or apperrors.ErrInvalidOutcome for bad
	// enum values and apperrors.ErrNotFound for an unknown record.
	Override(ctx context.Context, input OverrideInput) (*models.Decision, error)

	// History returns a record's full decision history, newest first.
	History(ctx context.Context, recordID uuid.UUID) ([]*models.Decision, error)

	// Current returns the latest decision for a record at a stage, or
	// nil when the record is undecided there.
	Current(ctx context.Context, recordID uuid.UUID, stage models.Stage) (*models.Decision, error)
}

type decisionService struct {
	recordRepo   repositories.RecordRepository
	decisionRepo repositories.DecisionRepository
	recorder     DecisionRecorder
	logger       *zap.Logger
}

// NewDecisionService creates a new DecisionService.
func NewDecisionService(
	recordRepo repositories.RecordRepository,
	decisionRepo repositories.DecisionRepository,
	recorder DecisionRecorder,
	logger *zap.Logger,
) DecisionService {
	return &decisionService{
		recordRepo:   recordRepo,
		decisionRepo: decisionRepo,
		recorder:     recorder,
		logger:       logger.Named("decision-service"),
	}
}

var _ DecisionService = (*decisionService)(nil)

func (s *decisionService) Override(ctx context.Context, input OverrideInput) (*models.Decision, error) {
	stage, ok := models.ParseStage(input.Stage)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStage, input.Stage)
	}
	outcome, ok := models.ParseOutcome(input.Decision)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidOutcome, input.Decision)
	}
	if input.CreatedBy == "" {
		return nil, fmt.Errorf("created_by is required")
	}

	// The record must exist, and the audit event needs its project.
	projectID, err := s.recordRepo.ProjectID(ctx, input.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve record: %w", err)
	}

	return s.recorder.RecordHumanOverride(ctx, projectID, input.RecordID, stage, outcome, input.Reasons, input.CreatedBy)
}

func (s *decisionService) History(ctx context.Context, recordID uuid.UUID) ([]*models.Decision, error) {
	if _, err := s.recordRepo.Get(ctx, recordID); err != nil {
		return nil, fmt.Errorf("failed to resolve record: %w", err)
	}
	return s.decisionRepo.ListByRecord(ctx, recordID)
}

func (s *decisionService) Current(ctx context.Context, recordID uuid.UUID, stage models.Stage) (*models.Decision, error) {
	return s.decisionRepo.GetCurrent(ctx, recordID, stage)
}
