package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrFetch marks a failed list/detail fetch from the remote service.
	ErrFetch = errors.New("fetch failed")
	// ErrMutation marks a failed remote create/update/delete.
	ErrMutation = errors.New("mutation failed")
)

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ValidationError indicates a local check failed before any remote call was made.
// Field names the offending input field when known ("nome", "parentId").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrValidation
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // directory or file
	ResourceID   int64  // ID of the existing/conflicting resource, 0 when unknown
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// FetchError reports that listing directories or files from the remote service failed.
// The cache is never partially replaced when one is returned.
type FetchError struct {
	Op  string // "list directories", "list files"
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match against ErrFetch
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// MutationError reports that a remote create, update or delete failed.
// ID is the target entity, 0 for creates.
type MutationError struct {
	Op  string // "create directory", "update file", ...
	ID  int64
	Err error
}

func (e *MutationError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match against ErrMutation
func (e *MutationError) Is(target error) bool { return target == ErrMutation }
