package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/database"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)

	// List returns all projects, newest first.
	List(ctx context.Context) ([]*models.Project, error)

	// UpdateProtocol attaches a protocol configuration document and moves
	// the protocol status. The screening engine itself never calls this;
	// the protocol is read-only input to it.
	UpdateProtocol(ctx context.Context, id uuid.UUID, config json.RawMessage, status models.ProtocolStatus) error

	// ListByProtocolStatus returns all projects in the given protocol
	// state, oldest first. Used by the scheduled screening runner.
	ListByProtocolStatus(ctx context.Context, status models.ProtocolStatus) ([]*models.Project, error)
}

type projectRepository struct {
	db *database.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

var _ ProjectRepository = (*projectRepository)(nil)

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	project.CreatedAt = time.Now()
	if project.ProtocolStatus == "" {
		project.ProtocolStatus = models.ProtocolNotUploaded
	}

	query := `
		INSERT INTO projects (id, name, description, protocol_config, protocol_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		rawOrNil(project.ProtocolConfig),
		project.ProtocolStatus,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), protocol_config, protocol_status, created_at
		FROM projects
		WHERE id = $1`

	var project models.Project
	var config []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&config,
		&project.ProtocolStatus,
		&project.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	project.ProtocolConfig = config
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), protocol_config, protocol_status, created_at
		FROM projects
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

func (r *projectRepository) UpdateProtocol(ctx context.Context, id uuid.UUID, config json.RawMessage, status models.ProtocolStatus) error {
	query := `
		UPDATE projects
		SET protocol_config = $2, protocol_status = $3
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, rawOrNil(config), status)
	if err != nil {
		return fmt.Errorf("failed to update protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *projectRepository) ListByProtocolStatus(ctx context.Context, status models.ProtocolStatus) ([]*models.Project, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), protocol_config, protocol_status, created_at
		FROM projects
		WHERE protocol_status = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

func collectProjects(rows pgx.Rows) ([]*models.Project, error) {
	var projects []*models.Project
	for rows.Next() {
		var project models.Project
		var config []byte
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&config,
			&project.ProtocolStatus,
			&project.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		project.ProtocolConfig = config
		projects = append(projects, &project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// rawOrNil maps an empty JSON document to SQL NULL.
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
