package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/repositories"
)

type fakeTxManager struct{ calls int }

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.calls++
	return fn(ctx)
}

// fakeStore backs both fake repositories so directory emptiness can be checked.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	dirs   map[int64]models.Directory
	files  map[int64]models.File
}

func newFakeStore(dirs ...models.Directory) *fakeStore {
	s := &fakeStore{nextID: 100, dirs: map[int64]models.Directory{}, files: map[int64]models.File{}}
	for _, d := range dirs {
		s.dirs[d.ID] = d
	}
	return s
}

type fakeDirRepo struct{ s *fakeStore }

func (r fakeDirRepo) Create(ctx context.Context, dir *models.Directory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.dirs {
		if d.Name == dir.Name && models.SameParent(d.ParentID, dir.ParentID) {
			return &domain.ConflictError{Message: "exists", ResourceType: "directory", ResourceID: d.ID}
		}
	}
	r.s.nextID++
	dir.ID = r.s.nextID
	r.s.dirs[dir.ID] = dir.Clone()
	return nil
}

func (r fakeDirRepo) GetByID(ctx context.Context, id int64) (*models.Directory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.dirs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("directory %d not found", id)}
	}
	d = d.Clone()
	return &d, nil
}

func (r fakeDirRepo) Update(ctx context.Context, dir *models.Directory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.dirs[dir.ID]; !ok {
		return &domain.NotFoundError{Message: "gone"}
	}
	r.s.dirs[dir.ID] = dir.Clone()
	return nil
}

func (r fakeDirRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.dirs[id]; !ok {
		return &domain.NotFoundError{Message: "gone"}
	}
	for _, d := range r.s.dirs {
		if d.ParentID != nil && *d.ParentID == id {
			return &domain.ConflictError{Message: "not empty", ResourceType: "directory", ResourceID: id}
		}
	}
	for _, f := range r.s.files {
		if f.Directory.ID == id {
			return &domain.ConflictError{Message: "not empty", ResourceType: "directory", ResourceID: id}
		}
	}
	delete(r.s.dirs, id)
	return nil
}

func (r fakeDirRepo) ListAll(ctx context.Context) ([]models.Directory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Directory{}
	for _, d := range r.s.dirs {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b models.Directory) int { return int(a.ID - b.ID) })
	return out, nil
}

type fakeFileRepo struct{ s *fakeStore }

func (r fakeFileRepo) Create(ctx context.Context, file *models.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dir, ok := r.s.dirs[file.Directory.ID]
	if !ok {
		return &domain.NotFoundError{Message: "directory not found"}
	}
	r.s.nextID++
	file.ID = r.s.nextID
	file.Directory.Name = dir.Name
	r.s.files[file.ID] = *file
	return nil
}

func (r fakeFileRepo) GetByID(ctx context.Context, id int64) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %d not found", id)}
	}
	return &f, nil
}

func (r fakeFileRepo) Update(ctx context.Context, file *models.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.files[file.ID] = *file
	return nil
}

func (r fakeFileRepo) ListByDirectory(ctx context.Context, directoryID int64) ([]models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.File{}
	for _, f := range r.s.files {
		if f.Directory.ID == directoryID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b models.File) int { return int(a.ID - b.ID) })
	return out, nil
}

func ptr(v int64) *int64 { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHierarchy(dirs ...models.Directory) (*Hierarchy, *fakeStore, *fakeTxManager) {
	store := newFakeStore(dirs...)
	tx := &fakeTxManager{}
	dirRepo := fakeDirRepo{s: store}
	fileRepo := fakeFileRepo{s: store}
	h := NewHierarchy(
		NewDirectoryService(dirRepo, tx, quietLogger()),
		NewFileService(fileRepo, dirRepo, tx, quietLogger()),
	)
	return h, store, tx
}
