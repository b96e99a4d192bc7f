package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/domain/repositories"
)

// PostgresDirectoryRepository implements the DirectoryRepository interface
type PostgresDirectoryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	// outside runs queries that must not join the transaction in ctx
	outside repositories.DBTX
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(config *RepositoryConfig) repositories.DirectoryRepository {
	return &PostgresDirectoryRepository{
		pool:    config.Pool,
		tables:  config.Tables,
		outside: config.Pool,
	}
}

// Create creates a new directory
func (r *PostgresDirectoryRepository) Create(ctx context.Context, dir *models.Directory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (parent_id, name)
		VALUES ($1, $2)
		RETURNING id
	`, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, dir.ParentID, dir.Name).Scan(&dir.ID)
	if err != nil {
		return r.writeError(ctx, "create directory", dir, err)
	}

	return nil
}

// GetByID retrieves a directory by ID
func (r *PostgresDirectoryRepository) GetByID(ctx context.Context, id int64) (*models.Directory, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name
		FROM %s
		WHERE id = $1
	`, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	dir, err := scanDirectory(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("directory %d not found", id)}
		}
		return nil, fmt.Errorf("get directory: %w", err)
	}

	return dir, nil
}

// Update updates a directory's name and parent
func (r *PostgresDirectoryRepository) Update(ctx context.Context, dir *models.Directory) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, updated_at = NOW()
		WHERE id = $3
	`, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, dir.ParentID, dir.Name, dir.ID)
	if err != nil {
		return r.writeError(ctx, "update directory", dir, err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("directory %d not found", dir.ID)}
	}

	return nil
}

// Delete deletes a directory. Children and files reference it without
// ON DELETE, so a non-empty directory fails with a foreign key violation.
func (r *PostgresDirectoryRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("directory %d is not empty", id),
				ResourceType: "directory",
				ResourceID:   id,
			}
		}
		return fmt.Errorf("delete directory: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("directory %d not found", id)}
	}

	return nil
}

// ListAll retrieves all directories ordered by id
func (r *PostgresDirectoryRepository) ListAll(ctx context.Context) ([]models.Directory, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name
		FROM %s
		ORDER BY id ASC
	`, r.tables.Directories)

	return r.list(ctx, query)
}

func (r *PostgresDirectoryRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Directory, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	defer rows.Close()

	dirs := []models.Directory{}
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan directory: %w", err)
		}
		dirs = append(dirs, *dir)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directories: %w", err)
	}

	return dirs, nil
}

// writeError maps insert/update failures: a sibling with the same name is a
// conflict carrying the existing id, a missing parent is not found.
func (r *PostgresDirectoryRepository) writeError(ctx context.Context, op string, dir *models.Directory, err error) error {
	switch {
	case IsPgDuplicateError(err):
		conflict := &domain.ConflictError{
			Message:      fmt.Sprintf("directory '%s' already exists", dir.Name),
			ResourceType: "directory",
		}
		if existingID, qErr := r.getIDByNameAndParent(ctx, dir.Name, dir.ParentID); qErr == nil {
			conflict.ResourceID = existingID
		}
		return conflict
	case IsPgForeignKeyError(err) && dir.ParentID != nil:
		return &domain.NotFoundError{Message: fmt.Sprintf("parent directory %d not found", *dir.ParentID)}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// getIDByNameAndParent looks up the sibling that caused a unique violation.
// The failed statement aborted any transaction in ctx, so the lookup runs
// outside it; the conflicting row is committed and visible there.
func (r *PostgresDirectoryRepository) getIDByNameAndParent(ctx context.Context, name string, parentID *int64) (int64, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE name = $1 AND COALESCE(parent_id, 0) = COALESCE($2::BIGINT, 0)
	`, r.tables.Directories)

	var id int64
	err := r.outside.QueryRow(ctx, query, name, parentID).Scan(&id)
	return id, err
}

func scanDirectory(row pgx.Row) (*models.Directory, error) {
	var dir models.Directory
	if err := row.Scan(&dir.ID, &dir.ParentID, &dir.Name); err != nil {
		return nil, err
	}
	return &dir, nil
}
