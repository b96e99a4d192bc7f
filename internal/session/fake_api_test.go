package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
)

// fakeAPI is an in-memory remote service. Any of the on* hooks replaces the
// default behaviour of one operation.
type fakeAPI struct {
	mu     sync.Mutex
	nextID int64
	dirs   []models.Directory
	files  map[int64][]models.File
	calls  map[string]int

	onCreateDirectory func(ctx context.Context, in models.DirectoryInput) (*models.Directory, error)
	onUpdateDirectory func(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error)
	onDeleteDirectory func(ctx context.Context, id int64) error
	onUpdateFile      func(ctx context.Context, id int64, in models.FileInput) (*models.File, error)
	onListFiles       func(ctx context.Context, id int64) ([]models.File, error)
}

func newFakeAPI(dirs ...models.Directory) *fakeAPI {
	api := &fakeAPI{
		nextID: 100,
		dirs:   dirs,
		files:  make(map[int64][]models.File),
		calls:  make(map[string]int),
	}
	return api
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAPI) ListDirectories(ctx context.Context) ([]models.Directory, error) {
	f.record("list directories")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Directory, len(f.dirs))
	copy(out, f.dirs)
	return out, nil
}

func (f *fakeAPI) ListFiles(ctx context.Context, directoryID int64) ([]models.File, error) {
	f.record("list files")
	if f.onListFiles != nil {
		return f.onListFiles(ctx, directoryID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.File, len(f.files[directoryID]))
	copy(out, f.files[directoryID])
	return out, nil
}

func (f *fakeAPI) CreateDirectory(ctx context.Context, in models.DirectoryInput) (*models.Directory, error) {
	f.record("create directory")
	if f.onCreateDirectory != nil {
		return f.onCreateDirectory(ctx, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	dir := models.Directory{ID: f.nextID, Name: in.Name, ParentID: in.ParentID}
	f.dirs = append(f.dirs, dir)
	return &dir, nil
}

func (f *fakeAPI) UpdateDirectory(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error) {
	f.record("update directory")
	if f.onUpdateDirectory != nil {
		return f.onUpdateDirectory(ctx, id, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.dirs {
		if f.dirs[i].ID == id {
			f.dirs[i].Name = in.Name
			f.dirs[i].ParentID = in.ParentID
			dir := f.dirs[i]
			return &dir, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("directory %d", id)}
}

func (f *fakeAPI) DeleteDirectory(ctx context.Context, id int64) error {
	f.record("delete directory")
	if f.onDeleteDirectory != nil {
		return f.onDeleteDirectory(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.dirs {
		if f.dirs[i].ID == id {
			f.dirs = append(f.dirs[:i], f.dirs[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("directory %d", id)}
}

func (f *fakeAPI) CreateFile(ctx context.Context, in models.FileInput) (*models.File, error) {
	f.record("create file")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	file := models.File{ID: f.nextID, Name: in.Name, Directory: models.DirectoryRef{ID: in.DirectoryID}}
	f.files[in.DirectoryID] = append(f.files[in.DirectoryID], file)
	return &file, nil
}

func (f *fakeAPI) UpdateFile(ctx context.Context, id int64, in models.FileInput) (*models.File, error) {
	f.record("update file")
	if f.onUpdateFile != nil {
		return f.onUpdateFile(ctx, id, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, file := range f.files[in.DirectoryID] {
		if file.ID == id {
			f.files[in.DirectoryID][i].Name = in.Name
			out := f.files[in.DirectoryID][i]
			return &out, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %d", id)}
}

func ptr(v int64) *int64 { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
