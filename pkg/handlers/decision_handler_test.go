package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// mockDecisionService implements services.DecisionService for handler
// testing.
type mockDecisionService struct {
	history     []*models.Decision
	overrideErr error
	historyErr  error
	lastInput   services.OverrideInput
}

func (m *mockDecisionService) Override(_ context.Context, input services.OverrideInput) (*models.Decision, error) {
	m.lastInput = input
	if m.overrideErr != nil {
		return nil, m.overrideErr
	}
	stage, ok := models.ParseStage(input.Stage)
	if !ok {
		return nil, apperrors.ErrInvalidStage
	}
	outcome, ok := models.ParseOutcome(input.Decision)
	if !ok {
		return nil, apperrors.ErrInvalidOutcome
	}
	return &models.Decision{
		ID:        uuid.New(),
		RecordID:  input.RecordID,
		Stage:     stage,
		Decision:  outcome,
		Reasons:   input.Reasons,
		CreatedBy: input.CreatedBy,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockDecisionService) History(_ context.Context, recordID uuid.UUID) ([]*models.Decision, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func (m *mockDecisionService) Current(_ context.Context, recordID uuid.UUID, stage models.Stage) (*models.Decision, error) {
	return nil, nil
}

func newDecisionTestServer(svc *mockDecisionService) *http.ServeMux {
	mux := http.NewServeMux()
	NewDecisionHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func postOverride(t *testing.T, mux *http.ServeMux, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/decisions/override", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestOverride_Created(t *testing.T) {
	svc := &mockDecisionService{}
	mux := newDecisionTestServer(svc)
	recordID := uuid.New()

	rec := postOverride(t, mux, map[string]any{
		"record_id":  recordID.String(),
		"stage":      "title_abstract",
		"decision":   "include",
		"reasons":    []string{"Population matches"},
		"created_by": "reviewer-1",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, recordID, svc.lastInput.RecordID)
	assert.Equal(t, "reviewer-1", svc.lastInput.CreatedBy)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, recordID.String(), resp["record_id"])
	assert.Equal(t, "include", resp["decision"])
	assert.NotEmpty(t, resp["decision_id"])
}

func TestOverride_StageDefaultsToTitleAbstract(t *testing.T) {
	svc := &mockDecisionService{}
	mux := newDecisionTestServer(svc)

	rec := postOverride(t, mux, map[string]any{
		"record_id":  uuid.New().String(),
		"decision":   "exclude",
		"created_by": "reviewer-1",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "title_abstract", svc.lastInput.Stage)
}

func TestOverride_BadRequests(t *testing.T) {
	svc := &mockDecisionService{}
	mux := newDecisionTestServer(svc)

	rec := postOverride(t, mux, map[string]any{
		"record_id": "not-a-uuid", "decision": "include", "created_by": "r",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postOverride(t, mux, map[string]any{
		"record_id": uuid.New().String(), "decision": "maybe", "created_by": "r",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverride_UnknownRecord(t *testing.T) {
	svc := &mockDecisionService{overrideErr: fmt.Errorf("failed to resolve record: %w", apperrors.ErrNotFound)}
	mux := newDecisionTestServer(svc)

	rec := postOverride(t, mux, map[string]any{
		"record_id": uuid.New().String(), "decision": "include", "created_by": "r",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory_ReturnsDecisions(t *testing.T) {
	recordID := uuid.New()
	svc := &mockDecisionService{history: []*models.Decision{
		{ID: uuid.New(), RecordID: recordID, Stage: models.StageTitleAbstract, Decision: models.OutcomeInclude},
		{ID: uuid.New(), RecordID: recordID, Stage: models.StageTitleAbstract, Decision: models.OutcomeUnclear},
	}}
	mux := newDecisionTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/records/%s/decisions", recordID), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var decisions []*models.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decisions))
	assert.Len(t, decisions, 2)
}

func TestHistory_EmptyIsJSONArray(t *testing.T) {
	svc := &mockDecisionService{}
	mux := newDecisionTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/records/%s/decisions", uuid.New()), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
