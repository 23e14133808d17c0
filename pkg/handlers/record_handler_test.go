package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// mockRecordService implements services.RecordService for handler testing.
type mockRecordService struct {
	items     []*services.RecordListItem
	detail    *services.RecordDetail
	importErr error
	lastStage models.Stage
	imported  []*models.Record
}

func (m *mockRecordService) Import(_ context.Context, projectID uuid.UUID, fileName string, records []*models.Record) (*models.File, int, error) {
	if m.importErr != nil {
		return nil, 0, m.importErr
	}
	m.imported = records
	if fileName == "" {
		fileName = "import.ris"
	}
	return &models.File{ID: uuid.New(), ProjectID: projectID, Name: fileName, Type: models.FileTypeRIS}, len(records), nil
}

func (m *mockRecordService) ListWithDecisions(_ context.Context, projectID uuid.UUID, stage models.Stage) ([]*services.RecordListItem, error) {
	m.lastStage = stage
	return m.items, nil
}

func (m *mockRecordService) Detail(_ context.Context, recordID uuid.UUID) (*services.RecordDetail, error) {
	if m.detail == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.detail, nil
}

func newRecordTestServer(svc *mockRecordService) *http.ServeMux {
	mux := http.NewServeMux()
	NewRecordHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestImportRecords(t *testing.T) {
	svc := &mockRecordService{}
	mux := newRecordTestServer(svc)
	projectID := uuid.New()

	body := []byte(`{
		"file_name": "search.ris",
		"records": [
			{"title": "First trial", "year": 2020, "language": "en", "abstract": "An RCT."},
			{"title": "Second trial"}
		]
	}`)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%s/records", projectID), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.imported, 2)
	assert.Equal(t, "First trial", svc.imported[0].Title)
	require.NotNil(t, svc.imported[0].Year)
	assert.Equal(t, 2020, *svc.imported[0].Year)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["imported"])
	assert.Equal(t, "search.ris", resp["file_name"])
}

func TestImportRecords_EmptyBatch(t *testing.T) {
	mux := newRecordTestServer(&mockRecordService{})

	body := []byte(`{"records": []}`)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%s/records", uuid.New()), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecords_StageQuery(t *testing.T) {
	include := models.OutcomeInclude
	svc := &mockRecordService{items: []*services.RecordListItem{
		{ID: uuid.New(), Title: "Decided", Decision: &include, Reasons: []string{"ok"}},
	}}
	mux := newRecordTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%s/records", uuid.New()), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StageTitleAbstract, svc.lastStage)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%s/records?stage=full_text", uuid.New()), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StageFullText, svc.lastStage)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%s/records?stage=bogus", uuid.New()), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordDetail(t *testing.T) {
	recordID := uuid.New()
	projectID := uuid.New()
	svc := &mockRecordService{detail: &services.RecordDetail{
		Record:    &models.Record{ID: recordID, Title: "Trial"},
		ProjectID: projectID,
		DecisionTA: &models.Decision{
			ID: uuid.New(), RecordID: recordID,
			Stage: models.StageTitleAbstract, Decision: models.OutcomeUnclear, QCFlag: true,
		},
	}}
	mux := newRecordTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/records/%s", recordID), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var detail services.RecordDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, projectID, detail.ProjectID)
	require.NotNil(t, detail.DecisionTA)
	assert.Equal(t, models.OutcomeUnclear, detail.DecisionTA.Decision)
}

func TestRecordDetail_NotFound(t *testing.T) {
	mux := newRecordTestServer(&mockRecordService{})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/records/%s", uuid.New()), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
