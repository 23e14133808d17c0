package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
)

// RecordListItem is one record of a project together with its current
// decision at the requested stage, shaped for screening review lists.
type RecordListItem struct {
	ID            uuid.UUID            `json:"id"`
	Title         string               `json:"title,omitempty"`
	Year          *int                 `json:"year,omitempty"`
	Decision      *models.Outcome      `json:"decision,omitempty"`
	Reasons       []string             `json:"reasons"`
	VerbatimQuote string               `json:"verbatim_quote,omitempty"`
	QuoteLocation models.QuoteLocation `json:"quote_location,omitempty"`
	QCFlag        bool                 `json:"qc_flag"`
}

// RecordDetail is one record with its full bibliographic fields and its
// current title/abstract decision.
type RecordDetail struct {
	Record     *models.Record   `json:"record"`
	ProjectID  uuid.UUID        `json:"project_id"`
	DecisionTA *models.Decision `json:"decision_ta,omitempty"`
}

// RecordService covers the record import boundary and decision-aware
// record reads.
type RecordService interface {
	// Import stores a batch of bibliographic records under a new file of
	// the project. Record fields are read-only after import.
	Import(ctx context.Context, projectID uuid.UUID, fileName string, records []*models.Record) (*models.File, int, error)

	// ListWithDecisions returns a project's records joined with their
	// current decision at the given stage, in import order.
	ListWithDecisions(ctx context.Context, projectID uuid.UUID, stage models.Stage) ([]*RecordListItem, error)

	// Detail returns one record with its current title/abstract decision.
	Detail(ctx context.Context, recordID uuid.UUID) (*RecordDetail, error)
}

type recordService struct {
	projectRepo  repositories.ProjectRepository
	recordRepo   repositories.RecordRepository
	decisionRepo repositories.DecisionRepository
	logger       *zap.Logger
}

// NewRecordService creates a new RecordService.
func NewRecordService(
	projectRepo repositories.ProjectRepository,
	recordRepo repositories.RecordRepository,
	decisionRepo repositories.DecisionRepository,
	logger *zap.Logger,
) RecordService {
	return &recordService{
		projectRepo:  projectRepo,
		recordRepo:   recordRepo,
		decisionRepo: decisionRepo,
		logger:       logger.Named("record-service"),
	}
}

var _ RecordService = (*recordService)(nil)

func (s *recordService) Import(ctx context.Context, projectID uuid.UUID, fileName string, records []*models.Record) (*models.File, int, error) {
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("import batch is empty")
	}
	if fileName == "" {
		fileName = "import.ris"
	}
	if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
		return nil, 0, fmt.Errorf("failed to resolve project: %w", err)
	}

	file, err := s.recordRepo.CreateImport(ctx, projectID, fileName, records)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("imported records",
		zap.String("project_id", projectID.String()),
		zap.String("file_name", fileName),
		zap.Int("count", len(records)))
	return file, len(records), nil
}

func (s *recordService) ListWithDecisions(ctx context.Context, projectID uuid.UUID, stage models.Stage) ([]*RecordListItem, error) {
	if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to resolve project: %w", err)
	}

	records, err := s.recordRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	items := make([]*RecordListItem, 0, len(records))
	for _, record := range records {
		item := &RecordListItem{
			ID:      record.ID,
			Title:   record.Title,
			Year:    record.Year,
			Reasons: []string{},
		}

		decision, err := s.decisionRepo.GetCurrent(ctx, record.ID, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to load decision for record %s: %w", record.ID, err)
		}
		if decision != nil {
			item.Decision = &decision.Decision
			item.Reasons = decision.Reasons
			item.VerbatimQuote = decision.VerbatimQuote
			item.QuoteLocation = decision.QuoteLocation
			item.QCFlag = decision.QCFlag
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *recordService) Detail(ctx context.Context, recordID uuid.UUID) (*RecordDetail, error) {
	record, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	projectID, err := s.recordRepo.ProjectID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	decision, err := s.decisionRepo.GetCurrent(ctx, recordID, models.StageTitleAbstract)
	if err != nil {
		return nil, err
	}

	return &RecordDetail{
		Record:     record,
		ProjectID:  projectID,
		DecisionTA: decision,
	}, nil
}
