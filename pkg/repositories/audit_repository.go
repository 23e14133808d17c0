package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/database"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// AuditRepository provides read access to the audit trail. There is no
// Create here on purpose: audit events are only ever written through
// DecisionRepository.CreateWithAudit, which enforces the one-decision /
// one-event pairing invariant inside a single transaction.
type AuditRepository interface {
	// ListByRecord returns a record's audit trail in chronological order.
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.AuditEvent, error)

	// ListByProject returns a project's audit trail, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.AuditEvent, error)
}

type auditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *database.DB) AuditRepository {
	return &auditRepository{db: db}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.AuditEvent, error) {
	query := auditSelect + `
		WHERE record_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

func (r *auditRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	query := auditSelect + `
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	return collectAuditEvents(rows)
}

const auditSelect = `
	SELECT id, project_id, record_id, decision_id, actor_type,
	       COALESCE(actor_id, ''), action, COALESCE(model_name, ''),
	       COALESCE(prompt_version, ''), request_payload, response_payload, created_at
	FROM audit_events`

func collectAuditEvents(rows pgx.Rows) ([]*models.AuditEvent, error) {
	var events []*models.AuditEvent
	for rows.Next() {
		event, err := scanAuditEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}

	return events, nil
}

func scanAuditEvent(row pgx.Row) (*models.AuditEvent, error) {
	var event models.AuditEvent
	var requestJSON, responseJSON []byte

	err := row.Scan(
		&event.ID,
		&event.ProjectID,
		&event.RecordID,
		&event.DecisionID,
		&event.ActorType,
		&event.ActorID,
		&event.Action,
		&event.ModelName,
		&event.PromptVersion,
		&requestJSON,
		&responseJSON,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit event: %w", err)
	}

	if len(requestJSON) > 0 && string(requestJSON) != "null" {
		if err := json.Unmarshal(requestJSON, &event.RequestPayload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request payload: %w", err)
		}
	}
	if len(responseJSON) > 0 && string(responseJSON) != "null" {
		if err := json.Unmarshal(responseJSON, &event.ResponsePayload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response payload: %w", err)
		}
	}

	return &event, nil
}
