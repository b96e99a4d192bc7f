package handler

import "net/http"

// Register wires the directory and file routes onto mux. protect wraps every
// /api route (authentication); /health stays open.
func Register(mux *http.ServeMux, dirs *DirectoryHandler, files *FileHandler, health http.Handler, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protect(fn))
	}

	mux.Handle("GET /health", health)

	// Directory routes
	api("GET /api/directories", dirs.ListDirectories)
	api("POST /api/directories", dirs.CreateDirectory)
	api("GET /api/directories/{id}", dirs.GetDirectory)
	api("PUT /api/directories/{id}", dirs.UpdateDirectory)
	api("DELETE /api/directories/{id}", dirs.DeleteDirectory)

	// File routes
	api("GET /api/files", files.ListFiles)
	api("POST /api/files", files.CreateFile)
	api("PUT /api/files/{id}", files.UpdateFile)
}
