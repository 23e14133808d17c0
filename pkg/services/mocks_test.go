package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// mockProjectRepo implements repositories.ProjectRepository for testing.
type mockProjectRepo struct {
	projects map[uuid.UUID]*models.Project
	getErr   error
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
}

func (m *mockProjectRepo) add(project *models.Project) *models.Project {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	m.projects[project.ID] = project
	return project
}

func (m *mockProjectRepo) Create(_ context.Context, project *models.Project) error {
	m.add(project)
	return nil
}

func (m *mockProjectRepo) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	project, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return project, nil
}

func (m *mockProjectRepo) List(_ context.Context) ([]*models.Project, error) {
	var result []*models.Project
	for _, p := range m.projects {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockProjectRepo) UpdateProtocol(_ context.Context, id uuid.UUID, config json.RawMessage, status models.ProtocolStatus) error {
	project, ok := m.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	project.ProtocolConfig = config
	project.ProtocolStatus = status
	return nil
}

func (m *mockProjectRepo) ListByProtocolStatus(_ context.Context, status models.ProtocolStatus) ([]*models.Project, error) {
	var result []*models.Project
	for _, p := range m.projects {
		if p.ProtocolStatus == status {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// mockRecordRepo implements repositories.RecordRepository for testing.
type mockRecordRepo struct {
	records   map[uuid.UUID]*models.Record
	byProject map[uuid.UUID][]*models.Record
	owners    map[uuid.UUID]uuid.UUID
	listErr   error
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{
		records:   make(map[uuid.UUID]*models.Record),
		byProject: make(map[uuid.UUID][]*models.Record),
		owners:    make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockRecordRepo) add(projectID uuid.UUID, record *models.Record) *models.Record {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.records[record.ID] = record
	m.byProject[projectID] = append(m.byProject[projectID], record)
	m.owners[record.ID] = projectID
	return record
}

func (m *mockRecordRepo) CreateImport(_ context.Context, projectID uuid.UUID, fileName string, records []*models.Record) (*models.File, error) {
	file := &models.File{ID: uuid.New(), ProjectID: projectID, Name: fileName, Type: models.FileTypeRIS}
	for _, record := range records {
		record.FileID = file.ID
		m.add(projectID, record)
	}
	return file, nil
}

func (m *mockRecordRepo) Get(_ context.Context, id uuid.UUID) (*models.Record, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func (m *mockRecordRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Record, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.byProject[projectID], nil
}

func (m *mockRecordRepo) ProjectID(_ context.Context, recordID uuid.UUID) (uuid.UUID, error) {
	owner, ok := m.owners[recordID]
	if !ok {
		return uuid.Nil, apperrors.ErrNotFound
	}
	return owner, nil
}

// mockDecisionRepo implements repositories.DecisionRepository for testing.
// It mirrors the real pairing behavior: CreateWithAudit stores the
// decision and its event together or, when createErr is set, neither.
type mockDecisionRepo struct {
	decisions []*models.Decision
	events    []*models.AuditEvent
	createErr error
	clock     time.Time
}

func newMockDecisionRepo() *mockDecisionRepo {
	return &mockDecisionRepo{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *mockDecisionRepo) CreateWithAudit(_ context.Context, decision *models.Decision, event *models.AuditEvent) error {
	if m.createErr != nil {
		return m.createErr
	}
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Second)
	decision.CreatedAt = m.clock
	event.CreatedAt = m.clock
	event.DecisionID = &decision.ID
	m.decisions = append(m.decisions, decision)
	m.events = append(m.events, event)
	return nil
}

func (m *mockDecisionRepo) GetCurrent(_ context.Context, recordID uuid.UUID, stage models.Stage) (*models.Decision, error) {
	var current *models.Decision
	for _, d := range m.decisions {
		if d.RecordID != recordID || d.Stage != stage {
			continue
		}
		if current == nil || d.CreatedAt.After(current.CreatedAt) {
			current = d
		}
	}
	return current, nil
}

func (m *mockDecisionRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*models.Decision, error) {
	var result []*models.Decision
	for _, d := range m.decisions {
		if d.RecordID == recordID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// mockAuditRepo implements repositories.AuditRepository for testing,
// reading from the event side of a mockDecisionRepo.
type mockAuditRepo struct {
	source *mockDecisionRepo
}

func (m *mockAuditRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*models.AuditEvent, error) {
	var result []*models.AuditEvent
	for _, ev := range m.source.events {
		if ev.RecordID == recordID {
			result = append(result, ev)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockAuditRepo) ListByProject(_ context.Context, projectID uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	var result []*models.AuditEvent
	for _, ev := range m.source.events {
		if ev.ProjectID == projectID {
			result = append(result, ev)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
