package models

// File belongs to exactly one Directory. Files never move between directories.
type File struct {
	ID        int64        `json:"id,omitempty"`
	Name      string       `json:"nome"`
	Directory DirectoryRef `json:"directory"`
}

// DirectoryRef carries enough of the owning directory to display its name.
type DirectoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"nome,omitempty"`
}

// FileInput is the body of a create or update file request.
type FileInput struct {
	Name        string `json:"nome"`
	DirectoryID int64  `json:"directoryId"`
}
