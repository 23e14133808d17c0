package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/apperrors"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/llm"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// screeningFixture wires a full orchestrator over in-memory repositories
// and a mock reasoning client.
type screeningFixture struct {
	projects  *mockProjectRepo
	records   *mockRecordRepo
	decisions *mockDecisionRepo
	client    *llm.MockLLMClient
	service   ScreeningService
	project   *models.Project
}

func includeResponse() *llm.GenerateResponseResult {
	return &llm.GenerateResponseResult{Content: `{
		"decision": "include",
		"reasons": ["Meets protocol criteria"],
		"verbatim_quote": "randomized controlled trial",
		"quote_location": "Abstract",
		"qc_flag": false,
		"human_action_required": false
	}`}
}

func newScreeningFixture(t *testing.T) *screeningFixture {
	t.Helper()

	f := &screeningFixture{
		projects:  newMockProjectRepo(),
		records:   newMockRecordRepo(),
		decisions: newMockDecisionRepo(),
		client:    llm.NewMockLLMClient(),
	}
	f.client.Model = "gpt-4o"
	f.client.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
		return includeResponse(), nil
	}

	f.project = f.projects.add(&models.Project{
		Name:           "Exercise and depression",
		ProtocolConfig: json.RawMessage(`{"year_window":{"enabled":true,"min":2010,"max":2024},"language":{"enabled":true,"allow":["en"]}}`),
		ProtocolStatus: models.ProtocolApproved,
	})

	logger := zap.NewNop()
	recorder := NewDecisionRecorder(f.decisions, logger)
	reasoner := NewScreeningReasoner(f.client, 0.1, time.Second, logger)
	f.service = NewScreeningService(f.projects, f.records, f.decisions, NewProtocolGuard(), reasoner, recorder, logger)
	return f
}

func (f *screeningFixture) addRecord(title string, year int, language string) *models.Record {
	return f.records.add(f.project.ID, &models.Record{Title: title, Year: &year, Language: language})
}

func TestRunTitleAbstract_MixedRecords(t *testing.T) {
	f := newScreeningFixture(t)

	guarded := f.addRecord("Old study", 1999, "en")
	reasoned := f.addRecord("Recent trial", 2020, "en")

	// A record decided in an earlier run is skipped.
	decided := f.addRecord("Already decided", 2020, "en")
	_, err := NewDecisionRecorder(f.decisions, zap.NewNop()).RecordHumanOverride(
		context.Background(), f.project.ID, decided.ID,
		models.StageTitleAbstract, models.OutcomeInclude, []string{"manual"}, "reviewer-1")
	require.NoError(t, err)

	summary, err := f.service.RunTitleAbstract(context.Background(), f.project.ID)
	require.NoError(t, err)

	assert.Equal(t, f.project.ID, summary.ProjectID)
	assert.Equal(t, 3, summary.TotalRecordsSeen)
	assert.Equal(t, 1, summary.SkippedAlreadyDecided)
	assert.Equal(t, 1, summary.ScreenedByRules)
	assert.Equal(t, 1, summary.ScreenedByLLM)

	// Guard exclusion short-circuits: only the reasoned record hit the model.
	assert.Equal(t, 1, f.client.GenerateResponseCalls)

	guardDecision, err := f.decisions.GetCurrent(context.Background(), guarded.ID, models.StageTitleAbstract)
	require.NoError(t, err)
	require.NotNil(t, guardDecision)
	assert.Equal(t, models.OutcomeExclude, guardDecision.Decision)
	assert.Equal(t, models.CreatedBySystemRules, guardDecision.CreatedBy)

	llmDecision, err := f.decisions.GetCurrent(context.Background(), reasoned.ID, models.StageTitleAbstract)
	require.NoError(t, err)
	require.NotNil(t, llmDecision)
	assert.Equal(t, models.OutcomeInclude, llmDecision.Decision)
	assert.Equal(t, models.CreatedByAI, llmDecision.CreatedBy)
}

func TestRunTitleAbstract_Idempotent(t *testing.T) {
	f := newScreeningFixture(t)
	f.addRecord("Trial A", 2015, "en")
	f.addRecord("Trial B", 2016, "en")

	first, err := f.service.RunTitleAbstract(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ScreenedByLLM)

	second, err := f.service.RunTitleAbstract(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalRecordsSeen)
	assert.Equal(t, 2, second.SkippedAlreadyDecided)
	assert.Equal(t, 0, second.ScreenedByRules)
	assert.Equal(t, 0, second.ScreenedByLLM)

	// No new decision rows on the second run.
	assert.Len(t, f.decisions.decisions, 2)
}

func TestRunTitleAbstract_UnknownProject(t *testing.T) {
	f := newScreeningFixture(t)

	_, err := f.service.RunTitleAbstract(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRunTitleAbstract_ProtocolMissing(t *testing.T) {
	f := newScreeningFixture(t)
	bare := f.projects.add(&models.Project{Name: "No protocol yet"})

	_, err := f.service.RunTitleAbstract(context.Background(), bare.ID)
	assert.ErrorIs(t, err, apperrors.ErrProtocolMissing)

	empty := f.projects.add(&models.Project{Name: "Empty protocol", ProtocolConfig: json.RawMessage(`{}`)})
	_, err = f.service.RunTitleAbstract(context.Background(), empty.ID)
	assert.ErrorIs(t, err, apperrors.ErrProtocolMissing)
}

func TestRunTitleAbstract_DegradedReasoningStillFinishes(t *testing.T) {
	f := newScreeningFixture(t)
	f.client.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (*llm.GenerateResponseResult, error) {
		return nil, errors.New("bad gateway")
	}
	record := f.addRecord("Unreachable model", 2020, "en")

	summary, err := f.service.RunTitleAbstract(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ScreenedByLLM)

	decision, err := f.decisions.GetCurrent(context.Background(), record.ID, models.StageTitleAbstract)
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, models.OutcomeUnclear, decision.Decision)
	assert.True(t, decision.QCFlag)
}

func TestRunTitleAbstract_PersistenceErrorAborts(t *testing.T) {
	f := newScreeningFixture(t)
	f.addRecord("Trial", 2020, "en")
	f.decisions.createErr = errors.New("disk full")

	_, err := f.service.RunTitleAbstract(context.Background(), f.project.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screening aborted")
	assert.Empty(t, f.decisions.decisions)
	assert.Empty(t, f.decisions.events)
}

func TestRunTitleAbstract_ConcurrentRunsSerialize(t *testing.T) {
	f := newScreeningFixture(t)
	for i := 0; i < 5; i++ {
		f.addRecord("Trial", 2015+i, "en")
	}

	var wg sync.WaitGroup
	summaries := make([]*models.ScreeningSummary, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summaries[i], errs[i] = f.service.RunTitleAbstract(context.Background(), f.project.ID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Each record was decided exactly once across both runs.
	assert.Len(t, f.decisions.decisions, 5)
	assert.Equal(t, 5, summaries[0].ScreenedByLLM+summaries[1].ScreenedByLLM)
	assert.Equal(t, 5, summaries[0].SkippedAlreadyDecided+summaries[1].SkippedAlreadyDecided)
}
