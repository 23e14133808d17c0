package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/database"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// RecordRepository provides read access to bibliographic records for the
// screening engine, plus the import boundary that creates them. The engine
// itself never writes record fields.
type RecordRepository interface {
	// CreateImport creates one file row and its batch of records in a
	// single transaction.
	CreateImport(ctx context.Context, projectID uuid.UUID, fileName string, records []*models.Record) (*models.File, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Record, error)

	// ListByProject returns all records of a project, joined through
	// their owning files, in import order.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Record, error)

	// ProjectID resolves the project owning a record.
	ProjectID(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error)
}

type recordRepository struct {
	db *database.DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *database.DB) RecordRepository {
	return &recordRepository{db: db}
}

var _ RecordRepository = (*recordRepository)(nil)

func (r *recordRepository) CreateImport(ctx context.Context, projectID uuid.UUID, fileName string, records []*models.Record) (*models.File, error) {
	file := &models.File{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      fileName,
		Type:      models.FileTypeRIS,
		CreatedAt: time.Now(),
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	_, err = tx.Exec(ctx,
		`INSERT INTO files (id, project_id, name, type, path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		file.ID, file.ProjectID, file.Name, file.Type, file.Path, file.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	for i, record := range records {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		record.FileID = file.ID
		if record.OrderIndex == nil {
			idx := i
			record.OrderIndex = &idx
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO records (
				id, file_id, order_index, title, abstract, year, language,
				sample_size, doi, journal, authors, metadata_quality
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			record.ID, record.FileID, record.OrderIndex,
			record.Title, record.Abstract, record.Year, record.Language,
			record.SampleSize, record.DOI, record.Journal, record.Authors,
			record.MetadataQuality,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create record %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return file, nil
}

func (r *recordRepository) Get(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	query := recordSelect + ` WHERE r.id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return record, nil
}

func (r *recordRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Record, error) {
	query := recordSelect + `
		JOIN files f ON f.id = r.file_id
		WHERE f.project_id = $1
		ORDER BY f.created_at ASC, r.order_index ASC NULLS LAST`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

func (r *recordRepository) ProjectID(ctx context.Context, recordID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT f.project_id
		FROM records r
		JOIN files f ON f.id = r.file_id
		WHERE r.id = $1`

	var projectID uuid.UUID
	err := r.db.QueryRow(ctx, query, recordID).Scan(&projectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, apperrors.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve project for record: %w", err)
	}

	return projectID, nil
}

const recordSelect = `
	SELECT r.id, r.file_id, r.order_index,
	       COALESCE(r.title, ''), COALESCE(r.abstract, ''), r.year,
	       COALESCE(r.language, ''), r.sample_size, COALESCE(r.doi, ''),
	       COALESCE(r.journal, ''), COALESCE(r.authors, ''), r.metadata_quality
	FROM records r`

func scanRecord(row pgx.Row) (*models.Record, error) {
	var record models.Record
	err := row.Scan(
		&record.ID,
		&record.FileID,
		&record.OrderIndex,
		&record.Title,
		&record.Abstract,
		&record.Year,
		&record.Language,
		&record.SampleSize,
		&record.DOI,
		&record.Journal,
		&record.Authors,
		&record.MetadataQuality,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
