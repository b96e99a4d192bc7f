package service

import (
	"vfs/internal/domain/services"
)

// Hierarchy serves the remote contract in-process, straight from the
// directory and file services. cmd/seed uses it to drive a session against
// the database without a running server.
type Hierarchy struct {
	services.DirectoryService
	services.FileService
}

var _ services.HierarchyAPI = (*Hierarchy)(nil)

// NewHierarchy combines the two services.
func NewHierarchy(dirs services.DirectoryService, files services.FileService) *Hierarchy {
	return &Hierarchy{DirectoryService: dirs, FileService: files}
}
