package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/jsonutil"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/llm"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/metrics"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/prompts"
)

const defaultReasoningTimeout = 60 * time.Second

// ScreeningReasoner performs the title/abstract reasoning call for one
// record. It never returns an error: any degradation of the reasoning
// service (no credential, transport failure, timeout, unparseable output)
// collapses into a deterministic unclear outcome flagged for human
// attention, so a screening run can always finish.
type ScreeningReasoner interface {
	ScreenTitleAbstract(ctx context.Context, protocolJSON string, record *models.Record) *models.ReasoningOutcome
}

type screeningReasoner struct {
	client      llm.LLMClient
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewScreeningReasoner creates a ScreeningReasoner. A nil client means no
// credential is configured; every call then degrades immediately.
func NewScreeningReasoner(client llm.LLMClient, temperature float64, timeout time.Duration, logger *zap.Logger) ScreeningReasoner {
	if timeout <= 0 {
		timeout = defaultReasoningTimeout
	}
	return &screeningReasoner{
		client:      client,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger.Named("screening-reasoner"),
	}
}

// reasoningResponse is the raw shape the model is asked to return.
// Reasons is kept raw so scalar or mixed-type values can be coerced
// instead of failing the whole response.
type reasoningResponse struct {
	Decision            string          `json:"decision"`
	Reasons             json.RawMessage `json:"reasons"`
	VerbatimQuote       string          `json:"verbatim_quote"`
	QuoteLocation       string          `json:"quote_location"`
	QCFlag              bool            `json:"qc_flag"`
	HumanActionRequired bool            `json:"human_action_required"`
}

func (s *screeningReasoner) ScreenTitleAbstract(ctx context.Context, protocolJSON string, record *models.Record) *models.ReasoningOutcome {
	if s.client == nil {
		return degradedOutcome("REASONING_API_KEY is not configured; model not called.", models.ModelNameNone)
	}

	prompt := prompts.BuildTitleAbstractPrompt(protocolJSON, record)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.GenerateResponse(callCtx, prompt, prompts.TitleAbstractSystemPrompt, s.temperature)
	if err != nil {
		classified := llm.ClassifyError(err)
		s.logger.Warn("reasoning call failed",
			zap.String("record_id", record.ID.String()),
			zap.String("error_type", string(classified.Type)),
			zap.Error(err))
		return degradedOutcome("Reasoning service call failed: "+classified.Message, s.client.GetModel())
	}

	parsed, err := llm.ParseJSONResponse[reasoningResponse](result.Content)
	if err != nil {
		s.logger.Warn("reasoning response is not valid JSON",
			zap.String("record_id", record.ID.String()),
			zap.Error(err))
		return degradedOutcome("Model did not return valid JSON.", s.client.GetModel())
	}

	return s.normalize(&parsed, record)
}

// normalize coerces a parsed response into a valid outcome. Out-of-enum
// values degrade field by field rather than discarding the response.
func (s *screeningReasoner) normalize(resp *reasoningResponse, record *models.Record) *models.ReasoningOutcome {
	outcome := &models.ReasoningOutcome{
		Reasons:             jsonutil.FlexibleStringList(resp.Reasons),
		VerbatimQuote:       resp.VerbatimQuote,
		QCFlag:              resp.QCFlag,
		HumanActionRequired: resp.HumanActionRequired,
		ModelName:           s.client.GetModel(),
	}

	decision, ok := models.ParseOutcome(resp.Decision)
	if !ok {
		s.logger.Warn("reasoning response carried an unknown decision",
			zap.String("record_id", record.ID.String()),
			zap.String("decision", resp.Decision))
		decision = models.OutcomeUnclear
	}
	outcome.Decision = decision

	switch resp.QuoteLocation {
	case string(models.QuoteLocationTitle):
		outcome.QuoteLocation = models.QuoteLocationTitle
	default:
		outcome.QuoteLocation = models.QuoteLocationAbstract
	}

	return outcome
}

// degradedOutcome is the fallback verdict when the reasoning exchange
// could not produce a usable answer. It is always unclear, always flagged
// for quality control, and always requires human action.
func degradedOutcome(reason string, modelName string) *models.ReasoningOutcome {
	metrics.ReasoningFallbacksTotal.Inc()
	return &models.ReasoningOutcome{
		Decision:            models.OutcomeUnclear,
		Reasons:             []string{reason},
		VerbatimQuote:       "",
		QuoteLocation:       models.QuoteLocationAbstract,
		QCFlag:              true,
		HumanActionRequired: true,
		ModelName:           modelName,
	}
}
