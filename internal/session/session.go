// Package session keeps one user's view of the remote hierarchy consistent:
// it issues mutations against the remote service, applies their results to
// the hierarchy cache, drives the list/detail/form view state and fans
// changes out between views.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/services"
	"vfs/internal/hierarchy"
)

// Config holds the collaborators of a session.
type Config struct {
	API services.HierarchyAPI
	// Cache is owned by this session for its whole life. When nil a new one
	// backed by API is created.
	Cache  *hierarchy.Cache
	Logger *slog.Logger
	// SerializeSaves makes a second save of the same entity id wait until
	// the first one resolved. Off by default: overlapping saves are issued
	// independently and the last response to arrive wins.
	SerializeSaves bool
}

// Session is one user's session against the remote service.
type Session struct {
	api    services.HierarchyAPI
	cache  *hierarchy.Cache
	view   *ViewState
	bridge *Bridge
	locks  *keyedLocker
	logger *slog.Logger

	loading atomic.Int32
}

// New creates a session in the Listing state with an empty cache.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := cfg.Cache
	if cache == nil {
		cache = hierarchy.New(cfg.API, logger)
	}

	s := &Session{
		api:    cfg.API,
		cache:  cache,
		view:   NewViewState(),
		bridge: NewBridge(cache, logger),
		logger: logger,
	}
	if cfg.SerializeSaves {
		s.locks = newKeyedLocker()
	}
	return s
}

// Cache returns the session's hierarchy cache.
func (s *Session) Cache() *hierarchy.Cache { return s.cache }

// Bridge returns the session's synchronization bridge.
func (s *Session) Bridge() *Bridge { return s.bridge }

// State returns a snapshot of the view state.
func (s *Session) State() State { return s.view.Snapshot() }

// Loading reports whether the list view must show its loading state: a
// directory load is in flight or none has succeeded yet.
func (s *Session) Loading() bool {
	return s.loading.Load() > 0 || !s.cache.Loaded()
}

// Load fetches every directory. On failure the previous cache stays, the
// cause is logged and returned; the user retries by loading again.
func (s *Session) Load(ctx context.Context) error {
	s.loading.Add(1)
	defer s.loading.Add(-1)

	if err := s.cache.LoadAll(ctx); err != nil {
		s.logger.Warn("directory fetch failed", "error", err)
		return err
	}
	s.bridge.Publish(Event{Kind: DirectoriesReloaded})
	return nil
}

// OpenDirectory selects a cached directory for the detail view and fetches its files.
// A file fetch failure leaves the view open with the files not loaded.
func (s *Session) OpenDirectory(ctx context.Context, id int64) error {
	if _, ok := s.cache.Get(id); !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("directory %d is not loaded", id)}
	}
	if err := s.view.Select(id); err != nil {
		return err
	}
	return s.RefreshFiles(ctx, id)
}

// RefreshFiles re-fetches the files of one directory.
func (s *Session) RefreshFiles(ctx context.Context, id int64) error {
	if _, err := s.cache.LoadFiles(ctx, id); err != nil {
		s.logger.Warn("file fetch failed", "directory_id", id, "error", err)
		return err
	}
	s.bridge.Publish(Event{Kind: FilesUpdated, DirectoryID: id, Origin: DetailView})
	return nil
}

// Back closes the detail view.
func (s *Session) Back() error { return s.view.Back() }

// InspectFile shows one file of the open directory.
func (s *Session) InspectFile(fileID int64) error {
	st := s.view.Snapshot()
	if st.Mode != Viewing {
		return fmt.Errorf("%w: inspect file while %s", ErrInvalidTransition, st.Mode)
	}
	if _, ok := s.cache.File(st.DirectoryID, fileID); !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %d is not loaded", fileID)}
	}
	return s.view.InspectFile(fileID)
}

// CloseInspector hides the inspected file.
func (s *Session) CloseInspector() { s.view.CloseInspector() }

// Directories returns the list view contents, re-read from the cache.
func (s *Session) Directories() []models.Directory { return s.cache.List() }

// CurrentDirectory returns the directory open in the detail view, re-read from the cache.
func (s *Session) CurrentDirectory() (models.Directory, bool) {
	st := s.view.Snapshot()
	if st.Mode != Viewing && st.Mode != EditingFile {
		return models.Directory{}, false
	}
	return s.cache.Get(st.DirectoryID)
}

// InspectedFile returns the file under inspection, re-read from the cache.
func (s *Session) InspectedFile() (models.File, bool) {
	st := s.view.Snapshot()
	if st.Mode != Viewing || st.InspectedFileID == nil {
		return models.File{}, false
	}
	return s.cache.File(st.DirectoryID, *st.InspectedFileID)
}

// OpenNewDirectoryForm opens an empty create-directory form.
func (s *Session) OpenNewDirectoryForm() uuid.UUID {
	return s.view.OpenDirectoryForm(DirectoryForm{})
}

// OpenEditDirectoryForm opens the edit form prefilled from the cache. A parent
// that is no longer cached is shown as root level.
func (s *Session) OpenEditDirectoryForm(id int64) (uuid.UUID, error) {
	dir, ok := s.cache.Get(id)
	if !ok {
		return uuid.Nil, &domain.NotFoundError{Message: fmt.Sprintf("directory %d is not loaded", id)}
	}

	form := DirectoryForm{EditingID: &id, Name: dir.Name}
	if parent := s.cache.ResolveParent(dir.ParentID); parent != nil {
		form.ParentID = &parent.ID
	}
	return s.view.OpenDirectoryForm(form), nil
}

// ParentCandidates lists what the open directory form may pick as parent.
func (s *Session) ParentCandidates() []models.Directory {
	st := s.view.Snapshot()
	var editingID *int64
	if st.DirectoryForm != nil {
		editingID = st.DirectoryForm.EditingID
	}
	return s.cache.ParentCandidates(editingID)
}

// OpenNewFileForm opens an empty create-file form for a persisted directory.
func (s *Session) OpenNewFileForm(directoryID int64) (uuid.UUID, error) {
	if _, ok := s.cache.Get(directoryID); !ok {
		return uuid.Nil, &domain.NotFoundError{Message: fmt.Sprintf("directory %d is not loaded", directoryID)}
	}
	return s.view.OpenFileForm(FileForm{DirectoryID: directoryID})
}

// OpenRenameFileForm opens the rename form for a cached file.
func (s *Session) OpenRenameFileForm(directoryID, fileID int64) (uuid.UUID, error) {
	f, ok := s.cache.File(directoryID, fileID)
	if !ok {
		return uuid.Nil, &domain.NotFoundError{Message: fmt.Sprintf("file %d is not loaded", fileID)}
	}
	return s.view.OpenFileForm(FileForm{DirectoryID: directoryID, EditingID: &fileID, Name: f.Name})
}

// SetDirectoryInput records the directory form's input. A parent outside
// ParentCandidates is refused and the form keeps its previous input.
func (s *Session) SetDirectoryInput(name string, parentID *int64) error {
	st := s.view.Snapshot()
	if st.Mode == EditingDirectory {
		if err := s.cachedParent(st.DirectoryForm.EditingID)(parentID); err != nil {
			return &domain.ValidationError{Field: "parentId", Message: err.Error()}
		}
	}
	return s.view.SetDirectoryInput(name, parentID)
}

// SetFileInput records the file form's input.
func (s *Session) SetFileInput(name string) error {
	return s.view.SetFileInput(name)
}

// Cancel closes the open form. A save already in flight still completes
// against the cache but no longer touches the view.
func (s *Session) Cancel() { s.view.Cancel() }
