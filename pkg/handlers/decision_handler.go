package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// DecisionHandler handles the human override path and decision history
// reads.
type DecisionHandler struct {
	decisionService services.DecisionService
	logger          *zap.Logger
}

// NewDecisionHandler creates a new DecisionHandler.
func NewDecisionHandler(decisionService services.DecisionService, logger *zap.Logger) *DecisionHandler {
	return &DecisionHandler{
		decisionService: decisionService,
		logger:          logger.Named("decision-handler"),
	}
}

// RegisterRoutes registers the decision handler's routes on the given mux.
func (h *DecisionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/decisions/override", h.Override)
	mux.HandleFunc("GET /api/records/{rid}/decisions", h.History)
}

type overrideRequest struct {
	RecordID  string   `json:"record_id"`
	Stage     string   `json:"stage,omitempty"`
	Decision  string   `json:"decision"`
	Reasons   []string `json:"reasons"`
	CreatedBy string   `json:"created_by"`
}

type overrideResponse struct {
	DecisionID string   `json:"decision_id"`
	RecordID   string   `json:"record_id"`
	Stage      string   `json:"stage"`
	Decision   string   `json:"decision"`
	Reasons    []string `json:"reasons"`
}

// Override handles POST /api/decisions/override.
func (h *DecisionHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_record_id", "Invalid record ID format")
		return
	}
	if req.Stage == "" {
		req.Stage = string(models.StageTitleAbstract)
	}

	decision, err := h.decisionService.Override(r.Context(), services.OverrideInput{
		RecordID:  recordID,
		Stage:     req.Stage,
		Decision:  req.Decision,
		Reasons:   req.Reasons,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.serviceError(w, err)
		return
	}

	reasons := decision.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	h.writeJSON(w, http.StatusCreated, overrideResponse{
		DecisionID: decision.ID.String(),
		RecordID:   decision.RecordID.String(),
		Stage:      string(decision.Stage),
		Decision:   string(decision.Decision),
		Reasons:    reasons,
	})
}

// History handles GET /api/records/{rid}/decisions.
func (h *DecisionHandler) History(w http.ResponseWriter, r *http.Request) {
	recordID, ok := ParseRecordID(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.decisionService.History(r.Context(), recordID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if history == nil {
		history = []*models.Decision{}
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *DecisionHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DecisionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *DecisionHandler) serviceError(w http.ResponseWriter, err error) {
	if werr := ServiceError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
