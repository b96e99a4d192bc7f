package config

const (
	// MaxDirectoryNameLength is the maximum length for directory names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDirectoryNameLength = 255

	// MaxFileNameLength is the maximum length for file names.
	// Same as directory names for consistency.
	MaxFileNameLength = 255
)
