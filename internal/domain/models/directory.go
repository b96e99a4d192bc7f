package models

import "slices"

// Directory is a node of the virtual hierarchy.
// ID is assigned by the remote service; zero means the directory was never saved.
type Directory struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"nome"`
	ParentID *int64 `json:"parentId"`        // nil = root level
	Files    []File `json:"files,omitempty"` // nil until fetched
}

// FilesLoaded reports whether the file list was fetched.
func (d *Directory) FilesLoaded() bool {
	return d.Files != nil
}

// Clone returns a copy that shares no mutable state with d.
func (d Directory) Clone() Directory {
	if d.ParentID != nil {
		p := *d.ParentID
		d.ParentID = &p
	}
	if d.Files != nil {
		d.Files = slices.Clone(d.Files)
	}
	return d
}

// Ref returns the reference a File carries to its owner.
func (d *Directory) Ref() DirectoryRef {
	return DirectoryRef{ID: d.ID, Name: d.Name}
}

// DirectoryInput is the body of a create or update directory request.
type DirectoryInput struct {
	Name     string `json:"nome"`
	ParentID *int64 `json:"parentId"`
}

// SameParent reports whether two nullable parent references point at the same directory.
func SameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
