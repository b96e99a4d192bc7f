package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
)

type fakeDirService struct {
	dirs      []models.Directory
	createErr error
	updateErr error
	deleteErr error
	lastInput models.DirectoryInput
	lastID    int64
}

func (f *fakeDirService) ListDirectories(ctx context.Context) ([]models.Directory, error) {
	return f.dirs, nil
}

func (f *fakeDirService) GetDirectory(ctx context.Context, id int64) (*models.Directory, error) {
	for _, d := range f.dirs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, &domain.NotFoundError{Message: "directory not found"}
}

func (f *fakeDirService) CreateDirectory(ctx context.Context, in models.DirectoryInput) (*models.Directory, error) {
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Directory{ID: 9, Name: in.Name, ParentID: in.ParentID}, nil
}

func (f *fakeDirService) UpdateDirectory(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error) {
	f.lastID, f.lastInput = id, in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Directory{ID: id, Name: in.Name, ParentID: in.ParentID}, nil
}

func (f *fakeDirService) DeleteDirectory(ctx context.Context, id int64) error {
	f.lastID = id
	return f.deleteErr
}

type fakeFileService struct {
	files     map[int64][]models.File
	updateErr error
	lastInput models.FileInput
}

func (f *fakeFileService) ListFiles(ctx context.Context, directoryID int64) ([]models.File, error) {
	files, ok := f.files[directoryID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "directory not found"}
	}
	return files, nil
}

func (f *fakeFileService) CreateFile(ctx context.Context, in models.FileInput) (*models.File, error) {
	f.lastInput = in
	return &models.File{ID: 20, Name: in.Name, Directory: models.DirectoryRef{ID: in.DirectoryID, Name: "Docs"}}, nil
}

func (f *fakeFileService) UpdateFile(ctx context.Context, id int64, in models.FileInput) (*models.File, error) {
	f.lastInput = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.File{ID: id, Name: in.Name, Directory: models.DirectoryRef{ID: in.DirectoryID}}, nil
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(ctx context.Context) error { return p.err }

func newTestMux(dirs *fakeDirService, files *fakeFileService) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	Register(mux, NewDirectoryHandler(dirs, logger), NewFileHandler(files, logger), Health(nil), nil)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, reader))

	var decoded map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestListDirectories(t *testing.T) {
	dirs := &fakeDirService{dirs: []models.Directory{{ID: 1, Name: "Docs"}}}
	w, _ := do(t, newTestMux(dirs, &fakeFileService{}), http.MethodGet, "/api/directories", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"nome":"Docs","parentId":null}]`, w.Body.String())
}

func TestCreateDirectory(t *testing.T) {
	dirs := &fakeDirService{}
	mux := newTestMux(dirs, &fakeFileService{})

	t.Run("created", func(t *testing.T) {
		w, body := do(t, mux, http.MethodPost, "/api/directories", `{"nome":"Reports","parentId":1}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, float64(9), body["id"])
		require.NotNil(t, dirs.lastInput.ParentID)
		assert.Equal(t, int64(1), *dirs.lastInput.ParentID)
	})

	t.Run("malformed body", func(t *testing.T) {
		w, body := do(t, mux, http.MethodPost, "/api/directories", `{"nome":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["detail"], "invalid JSON")
	})

	t.Run("validation error carries field", func(t *testing.T) {
		dirs.createErr = &domain.ValidationError{Field: "nome", Message: "name is required"}
		defer func() { dirs.createErr = nil }()

		w, body := do(t, mux, http.MethodPost, "/api/directories", `{"nome":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "nome", body["field"])
		assert.Equal(t, "name is required", body["detail"])
	})

	t.Run("sibling conflict", func(t *testing.T) {
		dirs.createErr = &domain.ConflictError{Message: "directory \"Reports\" already exists", ResourceType: "directory", ResourceID: 3}
		defer func() { dirs.createErr = nil }()

		w, body := do(t, mux, http.MethodPost, "/api/directories", `{"nome":"Reports"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, float64(3), body["resource_id"])
	})
}

func TestUpdateDirectory(t *testing.T) {
	dirs := &fakeDirService{}
	mux := newTestMux(dirs, &fakeFileService{})

	w, body := do(t, mux, http.MethodPut, "/api/directories/4", `{"nome":"Renamed","parentId":null}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", body["nome"])
	assert.Equal(t, int64(4), dirs.lastID)
	assert.Nil(t, dirs.lastInput.ParentID)

	w, _ = do(t, mux, http.MethodPut, "/api/directories/abc", `{"nome":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	dirs.updateErr = &domain.NotFoundError{Message: "directory 4 not found"}
	w, _ = do(t, mux, http.MethodPut, "/api/directories/4", `{"nome":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDirectory(t *testing.T) {
	dirs := &fakeDirService{}
	mux := newTestMux(dirs, &fakeFileService{})

	w, _ := do(t, mux, http.MethodDelete, "/api/directories/4", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	dirs.deleteErr = &domain.ConflictError{Message: "directory 4 is not empty"}
	w, body := do(t, mux, http.MethodDelete, "/api/directories/4", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "directory 4 is not empty", body["detail"])

	dirs.deleteErr = errors.New("connection reset")
	w, body = do(t, mux, http.MethodDelete, "/api/directories/4", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body["detail"], "internal errors are not leaked")
}

func TestGetDirectory(t *testing.T) {
	dirs := &fakeDirService{dirs: []models.Directory{{ID: 1, Name: "Docs"}}}
	mux := newTestMux(dirs, &fakeFileService{})

	w, body := do(t, mux, http.MethodGet, "/api/directories/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Docs", body["nome"])

	w, _ = do(t, mux, http.MethodGet, "/api/directories/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFiles(t *testing.T) {
	files := &fakeFileService{files: map[int64][]models.File{
		1: {{ID: 10, Name: "a.txt", Directory: models.DirectoryRef{ID: 1, Name: "Docs"}}},
	}}
	mux := newTestMux(&fakeDirService{}, files)

	w, _ := do(t, mux, http.MethodGet, "/api/files?directoryId=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":10,"nome":"a.txt","directory":{"id":1,"nome":"Docs"}}]`, w.Body.String())

	w, body := do(t, mux, http.MethodGet, "/api/files", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "directoryId", body["field"])

	w, _ = do(t, mux, http.MethodGet, "/api/files?directoryId=2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFileMutations(t *testing.T) {
	files := &fakeFileService{}
	mux := newTestMux(&fakeDirService{}, files)

	w, body := do(t, mux, http.MethodPost, "/api/files", `{"nome":"a.txt","directoryId":1}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(20), body["id"])
	assert.Equal(t, int64(1), files.lastInput.DirectoryID)

	w, body = do(t, mux, http.MethodPut, "/api/files/20", `{"nome":"b.txt","directoryId":1}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b.txt", body["nome"])

	files.updateErr = &domain.ValidationError{Field: "directoryId", Message: "files cannot be moved"}
	w, body = do(t, mux, http.MethodPut, "/api/files/20", `{"nome":"b.txt","directoryId":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "directoryId", body["field"])
}

func TestHealth(t *testing.T) {
	w, body := do(t, Health(nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = do(t, Health(failingPinger{err: errors.New("down")}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProtectWrapsAPIRoutesOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	mux := http.NewServeMux()
	Register(mux, NewDirectoryHandler(&fakeDirService{}, logger), NewFileHandler(&fakeFileService{}, logger), Health(nil), deny)

	w, _ := do(t, mux, http.MethodGet, "/api/directories", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, mux, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
