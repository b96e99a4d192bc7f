package repositories

import (
	"context"

	"vfs/internal/domain/models"
)

// DirectoryRepository defines data access operations for directories
type DirectoryRepository interface {
	// Create inserts a directory and fills in its ID
	Create(ctx context.Context, dir *models.Directory) error

	// GetByID retrieves a directory by ID
	GetByID(ctx context.Context, id int64) (*models.Directory, error)

	// Update writes name and parent
	Update(ctx context.Context, dir *models.Directory) error

	// Delete deletes a directory. Returns domain.ErrConflict when it still has children or files.
	Delete(ctx context.Context, id int64) error

	// ListAll retrieves all directories (flat list, ordered by id)
	ListAll(ctx context.Context) ([]models.Directory, error)
}

// FileRepository defines data access operations for files
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id int64) (*models.File, error)
	Update(ctx context.Context, file *models.File) error
	ListByDirectory(ctx context.Context, directoryID int64) ([]models.File, error)
}
