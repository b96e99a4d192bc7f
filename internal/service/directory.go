package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"vfs/internal/config"
	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/repositories"
	"vfs/internal/domain/services"
)

var noSlash = regexp.MustCompile(`^[^/]+$`)

type directoryService struct {
	dirRepo   repositories.DirectoryRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	dirRepo repositories.DirectoryRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.DirectoryService {
	return &directoryService{
		dirRepo:   dirRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// ListDirectories returns every directory
func (s *directoryService) ListDirectories(ctx context.Context) ([]models.Directory, error) {
	return s.dirRepo.ListAll(ctx)
}

// GetDirectory retrieves one directory
func (s *directoryService) GetDirectory(ctx context.Context, id int64) (*models.Directory, error) {
	return s.dirRepo.GetByID(ctx, id)
}

// CreateDirectory creates a directory at root level or under an existing parent
func (s *directoryService) CreateDirectory(ctx context.Context, in models.DirectoryInput) (*models.Directory, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateDirectoryInput(&in); err != nil {
		return nil, err
	}

	dir := &models.Directory{Name: in.Name, ParentID: in.ParentID}
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if in.ParentID != nil {
			if _, err := s.dirRepo.GetByID(ctx, *in.ParentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
		}
		return s.dirRepo.Create(ctx, dir)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("directory created",
		"id", dir.ID,
		"name", dir.Name,
		"parent_id", dir.ParentID,
	)

	return dir, nil
}

// UpdateDirectory renames and/or moves a directory. Moving a directory under
// itself or one of its descendants is rejected.
func (s *directoryService) UpdateDirectory(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateDirectoryInput(&in); err != nil {
		return nil, err
	}

	var dir *models.Directory
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		dir, err = s.dirRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.ParentID != nil && !models.SameParent(dir.ParentID, in.ParentID) {
			if err := s.validateNoCircularReference(ctx, id, *in.ParentID); err != nil {
				return err
			}
			s.logger.Debug("moving directory", "id", id, "new_parent_id", *in.ParentID)
		}

		dir.Name = in.Name
		dir.ParentID = in.ParentID
		return s.dirRepo.Update(ctx, dir)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("directory updated",
		"id", dir.ID,
		"name", dir.Name,
		"parent_id", dir.ParentID,
	)

	return dir, nil
}

// DeleteDirectory deletes an empty directory
func (s *directoryService) DeleteDirectory(ctx context.Context, id int64) error {
	if err := s.dirRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("directory deleted", "id", id)
	return nil
}

// validateNoCircularReference walks up from newParentID; reaching dirID
// means the move would create a cycle. Also fails when newParentID does not exist.
func (s *directoryService) validateNoCircularReference(ctx context.Context, dirID, newParentID int64) error {
	if dirID == newParentID {
		return &domain.ValidationError{Field: "parentId", Message: "a directory cannot be its own parent"}
	}

	seen := map[int64]bool{}
	for currentID := newParentID; !seen[currentID]; {
		seen[currentID] = true

		parent, err := s.dirRepo.GetByID(ctx, currentID)
		if err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == dirID {
			return &domain.ValidationError{Field: "parentId", Message: "cannot move a directory under its own descendant"}
		}
		currentID = *parent.ParentID
	}

	s.logger.Warn("existing parent chain has a cycle", "directory_id", newParentID)
	return nil
}

func validateDirectoryInput(in *models.DirectoryInput) error {
	return domain.NewValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, config.MaxDirectoryNameLength),
			validation.Match(noSlash).Error("name cannot contain slashes"),
		),
	))
}
