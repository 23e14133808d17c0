package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/database"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// DecisionRepository provides data access for screening decisions.
// Decision rows are append-only: there is no update or delete, and the
// current decision for a (record, stage) pair is the most recently created
// row.
type DecisionRepository interface {
	// CreateWithAudit atomically inserts one decision row and its paired
	// audit event in a single transaction. This is the only write path
	// for both tables: if either insert fails, neither row is persisted.
	CreateWithAudit(ctx context.Context, decision *models.Decision, event *models.AuditEvent) error

	// GetCurrent returns the latest decision for a record at a stage, or
	// nil when the record has not been decided at that stage.
	GetCurrent(ctx context.Context, recordID uuid.UUID, stage models.Stage) (*models.Decision, error)

	// ListByRecord returns a record's full decision history, newest first.
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.Decision, error)
}

type decisionRepository struct {
	db *database.DB
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *database.DB) DecisionRepository {
	return &decisionRepository{db: db}
}

var _ DecisionRepository = (*decisionRepository)(nil)

func (r *decisionRepository) CreateWithAudit(ctx context.Context, decision *models.Decision, event *models.AuditEvent) error {
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	now := time.Now()
	decision.CreatedAt = now
	event.CreatedAt = now
	event.DecisionID = &decision.ID

	reasonsJSON, err := json.Marshal(decision.Reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}

	var requestJSON, responseJSON []byte
	if event.RequestPayload != nil {
		if requestJSON, err = json.Marshal(event.RequestPayload); err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
	}
	if event.ResponsePayload != nil {
		if responseJSON, err = json.Marshal(event.ResponsePayload); err != nil {
			return fmt.Errorf("failed to marshal response payload: %w", err)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	_, err = tx.Exec(ctx,
		`INSERT INTO decisions (
			id, record_id, stage, decision, reasons, verbatim_quote,
			quote_location, qc_flag, created_by, created_at, model_name, prompt_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		decision.ID, decision.RecordID, decision.Stage, decision.Decision,
		reasonsJSON,
		nullIfEmpty(decision.VerbatimQuote),
		nullIfEmpty(string(decision.QuoteLocation)),
		decision.QCFlag, decision.CreatedBy, decision.CreatedAt,
		decision.ModelName, decision.PromptVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to create decision: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO audit_events (
			id, project_id, record_id, decision_id, actor_type, actor_id,
			action, model_name, prompt_version, request_payload, response_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.ProjectID, event.RecordID, event.DecisionID,
		event.ActorType, event.ActorID, event.Action,
		event.ModelName, event.PromptVersion,
		requestJSON, responseJSON, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *decisionRepository) GetCurrent(ctx context.Context, recordID uuid.UUID, stage models.Stage) (*models.Decision, error) {
	query := decisionSelect + `
		WHERE record_id = $1 AND stage = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	decision, err := scanDecision(r.db.QueryRow(ctx, query, recordID, stage))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Not yet decided at this stage
		}
		return nil, fmt.Errorf("failed to get current decision: %w", err)
	}

	return decision, nil
}

func (r *decisionRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.Decision, error) {
	query := decisionSelect + `
		WHERE record_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*models.Decision
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, decision)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return decisions, nil
}

const decisionSelect = `
	SELECT id, record_id, stage, decision, reasons,
	       COALESCE(verbatim_quote, ''), COALESCE(quote_location, ''),
	       qc_flag, created_by, created_at, model_name, prompt_version
	FROM decisions`

func scanDecision(row pgx.Row) (*models.Decision, error) {
	var decision models.Decision
	var reasonsJSON []byte

	err := row.Scan(
		&decision.ID,
		&decision.RecordID,
		&decision.Stage,
		&decision.Decision,
		&reasonsJSON,
		&decision.VerbatimQuote,
		&decision.QuoteLocation,
		&decision.QCFlag,
		&decision.CreatedBy,
		&decision.CreatedAt,
		&decision.ModelName,
		&decision.PromptVersion,
	)
	if err != nil {
		return nil, err
	}

	if len(reasonsJSON) > 0 && string(reasonsJSON) != "null" {
		if err := json.Unmarshal(reasonsJSON, &decision.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}
	}

	return &decision, nil
}

// nullIfEmpty maps an empty string to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
