package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vfs/internal/domain"
)

// StatusError is a non-2xx response that maps to no domain error.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// problem is the subset of an RFC 7807 body the client reads.
type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Field  string `json:"field"`
}

// decodeProblem turns an error response into the matching domain error.
// Bodies that are not problem documents fall back to the status line.
func decodeProblem(resp *http.Response) error {
	var p problem
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &p); err != nil || p.Detail == "" {
		p.Detail = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &domain.ValidationError{Field: p.Field, Message: p.Detail}
	case http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: p.Detail}
	case http.StatusNotFound:
		return &domain.NotFoundError{Message: p.Detail}
	case http.StatusConflict:
		return &domain.ConflictError{Message: p.Detail}
	default:
		return &StatusError{Status: resp.StatusCode, Detail: p.Detail}
	}
}
