package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// ScreeningHandler triggers title/abstract screening runs.
type ScreeningHandler struct {
	screeningService services.ScreeningService
	logger           *zap.Logger
}

// NewScreeningHandler creates a new ScreeningHandler.
func NewScreeningHandler(screeningService services.ScreeningService, logger *zap.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		screeningService: screeningService,
		logger:           logger.Named("screening-handler"),
	}
}

// RegisterRoutes registers the screening handler's routes on the given mux.
func (h *ScreeningHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/screening/title-abstract", h.RunTitleAbstract)
}

// RunTitleAbstract handles POST /api/projects/{pid}/screening/title-abstract.
// The run is synchronous; the response carries the run summary.
func (h *ScreeningHandler) RunTitleAbstract(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.screeningService.RunTitleAbstract(r.Context(), projectID)
	if err != nil {
		h.logger.Error("screening run failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		if werr := ServiceError(w, err); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
