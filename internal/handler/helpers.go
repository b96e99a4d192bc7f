package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"vfs/internal/domain"
	"vfs/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validationErr *domain.ValidationError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &validationErr):
		extras := map[string]interface{}{}
		if validationErr.Field != "" {
			extras["field"] = validationErr.Field
		}
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, validationErr.Message, extras)
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		if conflictErr.ResourceID != 0 {
			extras["resource_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Message: "id must be a positive integer"}
	}
	return id, nil
}
