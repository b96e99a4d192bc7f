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

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a file and fills in its ID and owner name
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		WITH inserted AS (
			INSERT INTO %s (directory_id, name)
			VALUES ($1, $2)
			RETURNING id, directory_id
		)
		SELECT i.id, d.name
		FROM inserted i
		JOIN %s d ON d.id = i.directory_id
	`, r.tables.Files, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, file.Directory.ID, file.Name).Scan(&file.ID, &file.Directory.Name)
	if err != nil {
		return r.writeError("create file", file, err)
	}

	return nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT f.id, f.name, d.id, d.name
		FROM %s f
		JOIN %s d ON d.id = f.directory_id
		WHERE f.id = $1
	`, r.tables.Files, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %d not found", id)}
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// Update renames a file. The owning directory is not changed.
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, file.Name, file.ID)
	if err != nil {
		return r.writeError("update file", file, err)
	}

	if result.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("file %d not found", file.ID)}
	}

	return nil
}

// ListByDirectory lists the files of one directory ordered by id
func (r *PostgresFileRepository) ListByDirectory(ctx context.Context, directoryID int64) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT f.id, f.name, d.id, d.name
		FROM %s f
		JOIN %s d ON d.id = f.directory_id
		WHERE f.directory_id = $1
		ORDER BY f.id ASC
	`, r.tables.Files, r.tables.Directories)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, directoryID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

func (r *PostgresFileRepository) writeError(op string, file *models.File, err error) error {
	switch {
	case IsPgDuplicateError(err):
		return &domain.ConflictError{
			Message:      fmt.Sprintf("file '%s' already exists in directory %d", file.Name, file.Directory.ID),
			ResourceType: "file",
		}
	case IsPgForeignKeyError(err):
		return &domain.NotFoundError{Message: fmt.Sprintf("directory %d not found", file.Directory.ID)}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	if err := row.Scan(&f.ID, &f.Name, &f.Directory.ID, &f.Directory.Name); err != nil {
		return nil, err
	}
	return &f, nil
}
