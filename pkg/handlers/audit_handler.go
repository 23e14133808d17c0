package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

const defaultAuditLimit = 100

// AuditHandler exposes read-only audit trail endpoints.
type AuditHandler struct {
	auditService services.AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger.Named("audit-handler"),
	}
}

// RegisterRoutes registers the audit handler's routes on the given mux.
func (h *AuditHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/records/{rid}/audit", h.RecordTrail)
	mux.HandleFunc("GET /api/projects/{pid}/audit", h.ProjectTrail)
}

// RecordTrail handles GET /api/records/{rid}/audit.
func (h *AuditHandler) RecordTrail(w http.ResponseWriter, r *http.Request) {
	recordID, ok := ParseRecordID(w, r, h.logger)
	if !ok {
		return
	}

	trail, err := h.auditService.RecordTrail(r.Context(), recordID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if trail == nil {
		trail = []*services.AuditTrailEntry{}
	}
	h.writeJSON(w, http.StatusOK, trail)
}

// ProjectTrail handles GET /api/projects/{pid}/audit. The optional limit
// query parameter caps the number of events returned.
func (h *AuditHandler) ProjectTrail(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer"); werr != nil {
				h.logger.Error("Failed to write error response", zap.Error(werr))
			}
			return
		}
		limit = parsed
	}

	trail, err := h.auditService.ProjectTrail(r.Context(), projectID, limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if trail == nil {
		trail = []*models.AuditEvent{}
	}
	h.writeJSON(w, http.StatusOK, trail)
}

func (h *AuditHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *AuditHandler) serviceError(w http.ResponseWriter, err error) {
	if werr := ServiceError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
