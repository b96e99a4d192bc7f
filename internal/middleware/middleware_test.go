package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/httputil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*models.Claims, error) {
	if token != "good" {
		return nil, &domain.UnauthorizedError{Message: "invalid token"}
	}
	c := &models.Claims{Role: "authenticated"}
	c.Subject = "user-1"
	return c, nil
}

func (stubVerifier) Close() error { return nil }

func TestAuth(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})
	h := Auth(stubVerifier{}, quietLogger())(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "good token", header: "Bearer good", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/api/directories", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "user-1", seen)
			}
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	h := Auth(nil, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(httputil.RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(httputil.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(httputil.RequestIDHeader))
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
