package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// ProjectHandler handles project and protocol lifecycle endpoints.
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger.Named("project-handler"),
	}
}

// RegisterRoutes registers the project handler's routes on the given mux.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects", h.Create)
	mux.HandleFunc("GET /api/projects", h.List)
	mux.HandleFunc("GET /api/projects/{pid}", h.Get)
	mux.HandleFunc("PUT /api/projects/{pid}/protocol", h.UploadProtocol)
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Project name is required")
		return
	}

	project, err := h.projectService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, project)
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	h.writeJSON(w, http.StatusOK, projects)
}

// Get handles GET /api/projects/{pid}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, project)
}

type uploadProtocolRequest struct {
	ProtocolConfig json.RawMessage       `json:"protocol_config"`
	ProtocolStatus models.ProtocolStatus `json:"protocol_status,omitempty"`
}

// UploadProtocol handles PUT /api/projects/{pid}/protocol.
func (h *ProjectHandler) UploadProtocol(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req uploadProtocolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.ProtocolConfig) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "protocol_config is required")
		return
	}

	project, err := h.projectService.UploadProtocol(r.Context(), projectID, req.ProtocolConfig, req.ProtocolStatus)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ProjectHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *ProjectHandler) serviceError(w http.ResponseWriter, err error) {
	if werr := ServiceError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
