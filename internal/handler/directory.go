package handler

import (
	"log/slog"
	"net/http"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/services"
	"vfs/internal/httputil"
	"vfs/internal/metrics"
)

// DirectoryHandler handles HTTP requests for directory operations
type DirectoryHandler struct {
	dirService services.DirectoryService
	logger     *slog.Logger
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(dirService services.DirectoryService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		dirService: dirService,
		logger:     logger,
	}
}

// ListDirectories returns every directory as a flat list
// GET /api/directories
func (h *DirectoryHandler) ListDirectories(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.dirService.ListDirectories(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if dirs == nil {
		dirs = []models.Directory{}
	}

	httputil.RespondJSON(w, http.StatusOK, dirs)
}

// GetDirectory returns one directory
// GET /api/directories/{id}
func (h *DirectoryHandler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	dir, err := h.dirService.GetDirectory(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, dir)
}

// CreateDirectory creates a directory
// POST /api/directories
func (h *DirectoryHandler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	var in models.DirectoryInput
	if err := httputil.ParseJSON(w, r, &in); err != nil {
		handleError(w, h.logger, &domain.ValidationError{Message: err.Error()})
		return
	}

	dir, err := h.dirService.CreateDirectory(r.Context(), in)
	metrics.RecordMutation("create directory", err)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, dir)
}

// UpdateDirectory renames and/or moves a directory
// PUT /api/directories/{id}
func (h *DirectoryHandler) UpdateDirectory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var in models.DirectoryInput
	if err := httputil.ParseJSON(w, r, &in); err != nil {
		handleError(w, h.logger, &domain.ValidationError{Message: err.Error()})
		return
	}

	dir, err := h.dirService.UpdateDirectory(r.Context(), id, in)
	metrics.RecordMutation("update directory", err)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, dir)
}

// DeleteDirectory deletes an empty directory
// DELETE /api/directories/{id}
func (h *DirectoryHandler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	err = h.dirService.DeleteDirectory(r.Context(), id)
	metrics.RecordMutation("delete directory", err)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
