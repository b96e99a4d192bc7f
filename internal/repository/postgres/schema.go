package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the directory and file tables if they don't exist.
// Parent and owner references have no ON DELETE action, so deleting a
// directory that still has children or files fails with a foreign key
// violation.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id BIGSERIAL PRIMARY KEY,
				parent_id BIGINT REFERENCES %[1]s(id),
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Directories),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				directory_id BIGINT NOT NULL REFERENCES %s(id),
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(directory_id, name)
			)
		`, tables.Files, tables.Directories),
		// root-level directories have parent_id NULL, which UNIQUE would not compare
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %sdirectories_sibling_name ON %s (COALESCE(parent_id, 0), name)`,
			tables.Prefix, tables.Directories),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %sdirectories_parent ON %s (parent_id)`,
			tables.Prefix, tables.Directories),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropAll drops the tables in reverse dependency order.
func DropAll(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Files, tables.Directories} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData deletes every file and directory but keeps the schema.
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s, %s RESTART IDENTITY", tables.Files, tables.Directories))
	if err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	return nil
}
