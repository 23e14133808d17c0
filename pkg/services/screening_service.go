package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/metrics"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
)

// ScreeningService orchestrates title/abstract screening runs. A run
// walks every record of a project, skips records that already hold a
// current decision for the stage, and decides the rest through the guard
// layer first and the reasoning client second. Runs are idempotent:
// re-running a fully screened project records nothing new.
type ScreeningService interface {
	// RunTitleAbstract screens all undecided records of a project at the
	// title/abstract stage. It returns apperrors.ErrNotFound for an
	// unknown project and apperrors.ErrProtocolMissing when the project
	// has no protocol configuration. A persistence failure aborts the
	// run; records decided before the failure keep their decisions.
	RunTitleAbstract(ctx context.Context, projectID uuid.UUID) (*models.ScreeningSummary, error)
}

type screeningService struct {
	projectRepo  repositories.ProjectRepository
	recordRepo   repositories.RecordRepository
	decisionRepo repositories.DecisionRepository
	guard        ProtocolGuard
	reasoner     ScreeningReasoner
	recorder     DecisionRecorder
	logger       *zap.Logger

	// runLocks serializes runs per project. Concurrent run requests for
	// the same project queue behind each other; the later run then sees
	// the earlier run's decisions and skips those records.
	mu       sync.Mutex
	runLocks map[uuid.UUID]*sync.Mutex
}

// NewScreeningService creates a new ScreeningService.
func NewScreeningService(
	projectRepo repositories.ProjectRepository,
	recordRepo repositories.RecordRepository,
	decisionRepo repositories.DecisionRepository,
	guard ProtocolGuard,
	reasoner ScreeningReasoner,
	recorder DecisionRecorder,
	logger *zap.Logger,
) ScreeningService {
	return &screeningService{
		projectRepo:  projectRepo,
		recordRepo:   recordRepo,
		decisionRepo: decisionRepo,
		guard:        guard,
		reasoner:     reasoner,
		recorder:     recorder,
		logger:       logger.Named("screening-service"),
		runLocks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

var _ ScreeningService = (*screeningService)(nil)

func (s *screeningService) RunTitleAbstract(ctx context.Context, projectID uuid.UUID) (*models.ScreeningSummary, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if !project.HasProtocol() {
		return nil, apperrors.ErrProtocolMissing
	}

	lock := s.runLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.recordRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	protocol := models.ParseProtocolConfig(project.ProtocolConfig)
	protocolJSON := string(project.ProtocolConfig)

	summary := &models.ScreeningSummary{ProjectID: projectID}
	for _, record := range records {
		summary.TotalRecordsSeen++

		method, err := s.screenRecord(ctx, project, protocol, protocolJSON, record)
		if err != nil {
			return nil, fmt.Errorf("screening aborted at record %s: %w", record.ID, err)
		}

		switch method {
		case models.MethodSkipped:
			summary.SkippedAlreadyDecided++
			metrics.RecordsSkippedTotal.Inc()
		case models.MethodRules:
			summary.ScreenedByRules++
		case models.MethodReasoning:
			summary.ScreenedByLLM++
		}
	}

	metrics.ScreeningRunsTotal.Inc()
	s.logger.Info("screening run completed",
		zap.String("project_id", projectID.String()),
		zap.Int("total_records_seen", summary.TotalRecordsSeen),
		zap.Int("skipped_already_decided", summary.SkippedAlreadyDecided),
		zap.Int("screened_by_rules", summary.ScreenedByRules),
		zap.Int("screened_by_llm", summary.ScreenedByLLM))
	return summary, nil
}

// screenRecord decides one record and reports how. Guard exclusions take
// precedence over the reasoning client; a record the guards exclude never
// reaches the reasoning service.
func (s *screeningService) screenRecord(ctx context.Context, project *models.Project, protocol *models.ProtocolConfig, protocolJSON string, record *models.Record) (models.DecisionMethod, error) {
	existing, err := s.decisionRepo.GetCurrent(ctx, record.ID, models.StageTitleAbstract)
	if err != nil {
		return "", fmt.Errorf("failed to look up current decision: %w", err)
	}
	if existing != nil {
		return models.MethodSkipped, nil
	}

	if result := s.guard.Evaluate(protocol, record); result.Excluded() {
		decision, err := s.recorder.RecordGuardDecision(ctx, project.ID, record, result)
		if err != nil {
			return "", err
		}
		metrics.DecisionsTotal.WithLabelValues(string(models.MethodRules), string(decision.Decision)).Inc()
		return models.MethodRules, nil
	}

	outcome := s.reasoner.ScreenTitleAbstract(ctx, protocolJSON, record)
	decision, err := s.recorder.RecordReasoningDecision(ctx, project.ID, record, outcome)
	if err != nil {
		return "", err
	}
	metrics.DecisionsTotal.WithLabelValues(string(models.MethodReasoning), string(decision.Decision)).Inc()
	return models.MethodReasoning, nil
}

func (s *screeningService) runLock(projectID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.runLocks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.runLocks[projectID] = lock
	}
	return lock
}
