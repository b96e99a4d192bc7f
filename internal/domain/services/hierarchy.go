package services

import (
	"context"

	"vfs/internal/domain/models"
)

// HierarchyAPI is the request/response contract of the remote directory/file service.
// The session core consumes it; internal/client implements it over HTTP and the
// reference server's services implement it directly.
type HierarchyAPI interface {
	ListDirectories(ctx context.Context) ([]models.Directory, error)
	ListFiles(ctx context.Context, directoryID int64) ([]models.File, error)

	CreateDirectory(ctx context.Context, in models.DirectoryInput) (*models.Directory, error)
	UpdateDirectory(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error)
	DeleteDirectory(ctx context.Context, id int64) error

	CreateFile(ctx context.Context, in models.FileInput) (*models.File, error)
	UpdateFile(ctx context.Context, id int64, in models.FileInput) (*models.File, error)
}
