package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/services"
)

// RecordHandler handles record import and decision-aware record reads.
type RecordHandler struct {
	recordService services.RecordService
	logger        *zap.Logger
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(recordService services.RecordService, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		logger:        logger.Named("record-handler"),
	}
}

// RegisterRoutes registers the record handler's routes on the given mux.
func (h *RecordHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/records", h.Import)
	mux.HandleFunc("GET /api/projects/{pid}/records", h.List)
	mux.HandleFunc("GET /api/records/{rid}", h.Detail)
}

type importRecordInput struct {
	Title      string   `json:"title,omitempty"`
	Abstract   string   `json:"abstract,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Language   string   `json:"language,omitempty"`
	SampleSize *int     `json:"sample_size,omitempty"`
	DOI        string   `json:"doi,omitempty"`
	Journal    string   `json:"journal,omitempty"`
	Authors    string   `json:"authors,omitempty"`
	Quality    *float64 `json:"metadata_quality,omitempty"`
}

type importRecordsRequest struct {
	FileName string              `json:"file_name,omitempty"`
	Records  []importRecordInput `json:"records"`
}

type importRecordsResponse struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	Imported int    `json:"imported"`
}

// Import handles POST /api/projects/{pid}/records.
func (h *RecordHandler) Import(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req importRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.Records) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "records must not be empty")
		return
	}

	records := make([]*models.Record, 0, len(req.Records))
	for _, in := range req.Records {
		records = append(records, &models.Record{
			Title:           in.Title,
			Abstract:        in.Abstract,
			Year:            in.Year,
			Language:        in.Language,
			SampleSize:      in.SampleSize,
			DOI:             in.DOI,
			Journal:         in.Journal,
			Authors:         in.Authors,
			MetadataQuality: in.Quality,
		})
	}

	file, imported, err := h.recordService.Import(r.Context(), projectID, req.FileName, records)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, importRecordsResponse{
		FileID:   file.ID.String(),
		FileName: file.Name,
		Imported: imported,
	})
}

// List handles GET /api/projects/{pid}/records. The optional stage query
// parameter selects which stage's current decision is joined in.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	stageParam := r.URL.Query().Get("stage")
	if stageParam == "" {
		stageParam = string(models.StageTitleAbstract)
	}
	stage, ok := models.ParseStage(stageParam)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_stage", "Unknown screening stage")
		return
	}

	items, err := h.recordService.ListWithDecisions(r.Context(), projectID, stage)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// Detail handles GET /api/records/{rid}.
func (h *RecordHandler) Detail(w http.ResponseWriter, r *http.Request) {
	recordID, ok := ParseRecordID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.recordService.Detail(r.Context(), recordID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *RecordHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := WriteJSON(w, status, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *RecordHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *RecordHandler) serviceError(w http.ResponseWriter, err error) {
	if werr := ServiceError(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
