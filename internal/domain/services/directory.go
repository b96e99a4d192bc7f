package services

import (
	"context"

	"vfs/internal/domain/models"
)

// DirectoryService handles directory business logic on the server side
type DirectoryService interface {
	// ListDirectories returns every directory, ordered by id
	ListDirectories(ctx context.Context) ([]models.Directory, error)

	// GetDirectory retrieves one directory
	GetDirectory(ctx context.Context, id int64) (*models.Directory, error)

	// CreateDirectory creates a directory under an optional parent
	CreateDirectory(ctx context.Context, in models.DirectoryInput) (*models.Directory, error)

	// UpdateDirectory renames and/or moves a directory
	UpdateDirectory(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error)

	// DeleteDirectory deletes an empty directory. Non-empty directories are a conflict.
	DeleteDirectory(ctx context.Context, id int64) error
}

// FileService handles file business logic on the server side
type FileService interface {
	ListFiles(ctx context.Context, directoryID int64) ([]models.File, error)
	CreateFile(ctx context.Context, in models.FileInput) (*models.File, error)
	UpdateFile(ctx context.Context, id int64, in models.FileInput) (*models.File, error)
}
