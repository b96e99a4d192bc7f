package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/hierarchy"
)

// SaveDirectory creates a directory (editingID nil) or updates one, with
// exactly one remote call. On success the server's response is upserted into
// the cache and the form that issued the save, if still open, closes back to
// the view it was opened from. On failure the cache is untouched and the form
// keeps the user's input with the error attached.
//
// Overlapping saves are not cancelled; whichever response arrives last is
// what the cache holds, unless Config.SerializeSaves is set.
func (s *Session) SaveDirectory(ctx context.Context, in models.DirectoryInput, editingID *int64) (*models.Directory, error) {
	token := s.view.directoryFormToken(editingID)
	origin := s.view.originOf(token)

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateDirectoryInput(in, editingID); err != nil {
		s.logger.Debug("directory input rejected", "error", err)
		s.cache.Apply(func() { s.view.failForm(token, err) })
		return nil, err
	}

	op, id := "create directory", int64(0)
	if editingID != nil {
		op, id = "update directory", *editingID
		if s.locks != nil {
			defer s.locks.lock(directoryKey(id))()
		}
	}

	var saved *models.Directory
	var err error
	if editingID != nil {
		saved, err = s.api.UpdateDirectory(ctx, id, in)
	} else {
		saved, err = s.api.CreateDirectory(ctx, in)
	}
	if err == nil && (saved == nil || saved.ID == 0) {
		err = errors.New("response carries no directory id")
	}
	if err != nil {
		return nil, s.mutationFailed(token, &domain.MutationError{Op: op, ID: id, Err: err})
	}

	s.cache.Apply(func() {
		// saved.ID was checked above, Upsert cannot fail
		_ = s.cache.Upsert(*saved)
		s.view.completeForm(token)
		s.bridge.Publish(Event{Kind: DirectoryUpdated, DirectoryID: saved.ID, Origin: origin})
	})

	s.logger.Info("directory saved",
		"op", op,
		"id", saved.ID,
		"name", saved.Name,
		"parent_id", saved.ParentID,
	)

	out := saved.Clone()
	return &out, nil
}

// SubmitDirectoryForm saves the open directory form.
func (s *Session) SubmitDirectoryForm(ctx context.Context) (*models.Directory, error) {
	st := s.view.Snapshot()
	if st.Mode != EditingDirectory {
		return nil, fmt.Errorf("%w: no directory form open", ErrInvalidTransition)
	}
	f := st.DirectoryForm
	return s.SaveDirectory(ctx, models.DirectoryInput{Name: f.Name, ParentID: f.ParentID}, f.EditingID)
}

// DeleteDirectory deletes a directory remotely. Whether a directory that still
// has children or files may be deleted is the remote service's call. On
// success exactly one cache entry is removed and a view showing the directory
// falls back to Listing; on failure the entry stays. Never retried.
func (s *Session) DeleteDirectory(ctx context.Context, id int64) error {
	if s.locks != nil {
		defer s.locks.lock(directoryKey(id))()
	}

	if err := s.api.DeleteDirectory(ctx, id); err != nil {
		return s.mutationFailed(uuid.Nil, &domain.MutationError{Op: "delete directory", ID: id, Err: err})
	}

	s.cache.Apply(func() {
		s.cache.Remove(id)
		s.view.forgetDirectory(id)
		s.bridge.Publish(Event{Kind: DirectoryRemoved, DirectoryID: id, Origin: ListView})
	})

	s.logger.Info("directory deleted", "id", id)
	return nil
}

// SaveFile creates a file in directoryID (editingFileID nil) or renames one.
// On success the directory's cached file list gets the response by id-match
// replacement or append, and the updated directory is propagated to the list
// view. A file list that was never fetched stays unfetched.
func (s *Session) SaveFile(ctx context.Context, in models.FileInput, directoryID int64, editingFileID *int64) (*models.File, error) {
	token := s.view.fileFormToken(directoryID, editingFileID)

	in.Name = strings.TrimSpace(in.Name)
	in.DirectoryID = directoryID
	if err := validateFileInput(in); err != nil {
		s.logger.Debug("file input rejected", "error", err)
		s.cache.Apply(func() { s.view.failForm(token, err) })
		return nil, err
	}

	op, id := "create file", int64(0)
	if editingFileID != nil {
		op, id = "update file", *editingFileID
		if s.locks != nil {
			defer s.locks.lock(fileKey(id))()
		}
	}

	var saved *models.File
	var err error
	if editingFileID != nil {
		saved, err = s.api.UpdateFile(ctx, id, in)
	} else {
		saved, err = s.api.CreateFile(ctx, in)
	}
	if err == nil && (saved == nil || saved.ID == 0) {
		err = errors.New("response carries no file id")
	}
	if err != nil {
		return nil, s.mutationFailed(token, &domain.MutationError{Op: op, ID: id, Err: err})
	}

	s.cache.Apply(func() {
		if dir, ok := s.cache.Get(directoryID); ok && dir.FilesLoaded() {
			// saved.ID was checked above, WithFile cannot fail
			updated, _ := hierarchy.WithFile(dir, *saved)
			s.bridge.Propagate(updated, DetailView)
		}
		s.view.completeForm(token)
	})

	s.logger.Info("file saved",
		"op", op,
		"id", saved.ID,
		"name", saved.Name,
		"directory_id", directoryID,
	)

	out := *saved
	return &out, nil
}

// SubmitFileForm saves the open file form.
func (s *Session) SubmitFileForm(ctx context.Context) (*models.File, error) {
	st := s.view.Snapshot()
	if st.Mode != EditingFile {
		return nil, fmt.Errorf("%w: no file form open", ErrInvalidTransition)
	}
	f := st.FileForm
	return s.SaveFile(ctx, models.FileInput{Name: f.Name}, f.DirectoryID, f.EditingID)
}

// mutationFailed logs a failed remote mutation once and attaches it to the
// issuing form when that form is still open.
func (s *Session) mutationFailed(token uuid.UUID, err *domain.MutationError) error {
	s.logger.Error("mutation failed", "op", err.Op, "id", err.ID, "error", err.Err)
	s.cache.Apply(func() { s.view.failForm(token, err) })
	return err
}

// validateDirectoryInput is the only local check before a directory save:
// a non-blank name and no self-parenting.
func (s *Session) validateDirectoryInput(in models.DirectoryInput, editingID *int64) error {
	return domain.NewValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required")),
		validation.Field(&in.ParentID,
			validation.By(notOwnParent(editingID)),
			validation.By(s.cachedParent(editingID)),
		),
	))
}

func validateFileInput(in models.FileInput) error {
	return domain.NewValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required")),
		validation.Field(&in.DirectoryID, validation.Required.Error("file needs a saved directory")),
	))
}

// cachedParent accepts only a parent the cache offers as candidate for
// editingID, so a save can never close a cycle.
func (s *Session) cachedParent(editingID *int64) validation.RuleFunc {
	return func(value interface{}) error {
		parentID, _ := value.(*int64)
		if parentID == nil {
			return nil
		}
		for _, d := range s.cache.ParentCandidates(editingID) {
			if d.ID == *parentID {
				return nil
			}
		}
		if _, ok := s.cache.Get(*parentID); !ok {
			return fmt.Errorf("directory %d is not loaded", *parentID)
		}
		return errors.New("a directory cannot be moved under itself or its descendants")
	}
}

func notOwnParent(editingID *int64) validation.RuleFunc {
	return func(value interface{}) error {
		parentID, _ := value.(*int64)
		if parentID != nil && editingID != nil && *parentID == *editingID {
			return errors.New("a directory cannot be its own parent")
		}
		return nil
	}
}
