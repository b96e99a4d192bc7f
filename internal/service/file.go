package service

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"vfs/internal/config"
	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/repositories"
	"vfs/internal/domain/services"
)

type fileService struct {
	fileRepo  repositories.FileRepository
	dirRepo   repositories.DirectoryRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	fileRepo repositories.FileRepository,
	dirRepo repositories.DirectoryRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.FileService {
	return &fileService{
		fileRepo:  fileRepo,
		dirRepo:   dirRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// ListFiles lists the files of an existing directory
func (s *fileService) ListFiles(ctx context.Context, directoryID int64) ([]models.File, error) {
	if _, err := s.dirRepo.GetByID(ctx, directoryID); err != nil {
		return nil, err
	}
	return s.fileRepo.ListByDirectory(ctx, directoryID)
}

// CreateFile creates a file in an existing directory
func (s *fileService) CreateFile(ctx context.Context, in models.FileInput) (*models.File, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateFileInput(&in); err != nil {
		return nil, err
	}

	file := &models.File{Name: in.Name, Directory: models.DirectoryRef{ID: in.DirectoryID}}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("file created",
		"id", file.ID,
		"name", file.Name,
		"directory_id", file.Directory.ID,
	)

	return file, nil
}

// UpdateFile renames a file. Files never change directory; a request naming
// another directory is rejected.
func (s *fileService) UpdateFile(ctx context.Context, id int64, in models.FileInput) (*models.File, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateFileInput(&in); err != nil {
		return nil, err
	}

	var file *models.File
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if file.Directory.ID != in.DirectoryID {
			return &domain.ValidationError{Field: "directoryId", Message: "files cannot move between directories"}
		}

		file.Name = in.Name
		return s.fileRepo.Update(ctx, file)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file renamed", "id", file.ID, "name", file.Name)
	return file, nil
}

func validateFileInput(in *models.FileInput) error {
	return domain.NewValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, config.MaxFileNameLength),
			validation.Match(noSlash).Error("name cannot contain slashes"),
		),
		validation.Field(&in.DirectoryID, validation.Required.Error("directoryId is required")),
	))
}
