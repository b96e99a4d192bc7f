package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/services"
	"vfs/internal/httputil"
	"vfs/internal/metrics"
)

// FileHandler handles HTTP requests for file operations
type FileHandler struct {
	fileService services.FileService
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService services.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// ListFiles returns the files of one directory
// GET /api/files?directoryId=N
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	directoryID, err := strconv.ParseInt(r.URL.Query().Get("directoryId"), 10, 64)
	if err != nil || directoryID <= 0 {
		handleError(w, h.logger, &domain.ValidationError{Field: "directoryId", Message: "directoryId query parameter is required"})
		return
	}

	files, err := h.fileService.ListFiles(r.Context(), directoryID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if files == nil {
		files = []models.File{}
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}

// CreateFile creates a file in a directory
// POST /api/files
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var in models.FileInput
	if err := httputil.ParseJSON(w, r, &in); err != nil {
		handleError(w, h.logger, &domain.ValidationError{Message: err.Error()})
		return
	}

	file, err := h.fileService.CreateFile(r.Context(), in)
	metrics.RecordMutation("create file", err)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// UpdateFile renames a file
// PUT /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var in models.FileInput
	if err := httputil.ParseJSON(w, r, &in); err != nil {
		handleError(w, h.logger, &domain.ValidationError{Message: err.Error()})
		return
	}

	file, err := h.fileService.UpdateFile(r.Context(), id, in)
	metrics.RecordMutation("update file", err)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}
