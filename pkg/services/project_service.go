package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/repositories"
)

// ProjectService manages review projects and their protocol lifecycle.
type ProjectService interface {
	Create(ctx context.Context, name, description string) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)

	// UploadProtocol attaches a protocol configuration document to a
	// project. The document must be a JSON object; its sections are not
	// validated here, the guard layer reads them leniently.
	UploadProtocol(ctx context.Context, id uuid.UUID, config json.RawMessage, status models.ProtocolStatus) (*models.Project, error)
}

type projectService struct {
	projectRepo repositories.ProjectRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repositories.ProjectRepository, logger *zap.Logger) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		logger:      logger.Named("project-service"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, name, description string) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	project := &models.Project{
		Name:        name,
		Description: description,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("created project", zap.String("project_id", project.ID.String()), zap.String("name", name))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projectRepo.Get(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.projectRepo.List(ctx)
}

func (s *projectService) UploadProtocol(ctx context.Context, id uuid.UUID, config json.RawMessage, status models.ProtocolStatus) (*models.Project, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(config, &doc); err != nil {
		return nil, fmt.Errorf("%w: protocol configuration must be a JSON object", apperrors.ErrConflict)
	}
	if status == "" {
		status = models.ProtocolExtracted
	}
	if !models.ValidProtocolStatus(status) {
		return nil, fmt.Errorf("%w: unknown protocol status %q", apperrors.ErrConflict, status)
	}

	if err := s.projectRepo.UpdateProtocol(ctx, id, config, status); err != nil {
		return nil, err
	}

	s.logger.Info("protocol uploaded",
		zap.String("project_id", id.String()),
		zap.String("protocol_status", string(status)))
	return s.projectRepo.Get(ctx, id)
}
