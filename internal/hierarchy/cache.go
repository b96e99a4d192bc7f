// Package hierarchy holds the session's in-memory copy of the remote directory tree.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
)

// Source is the read side of the remote service the cache refreshes from.
type Source interface {
	ListDirectories(ctx context.Context) ([]models.Directory, error)
	ListFiles(ctx context.Context, directoryID int64) ([]models.File, error)
}

// Cache maps directory id to Directory and is the single owner of every
// Directory and File record shown to the user. Readers always get copies.
//
// File lists are stored apart from the directory records: a nil entry means
// the list was never fetched. Upserting a directory record from a server
// response does not drop a fetched file list; Replace does.
type Cache struct {
	source Source
	logger *slog.Logger

	// applyMu serializes completion handlers (see Apply).
	applyMu sync.Mutex

	mu      sync.RWMutex
	order   []int64
	entries map[int64]models.Directory
	files   map[int64][]models.File
	loaded  bool
}

// New creates an empty cache backed by source.
func New(source Source, logger *slog.Logger) *Cache {
	return &Cache{
		source:  source,
		logger:  logger,
		entries: make(map[int64]models.Directory),
		files:   make(map[int64][]models.File),
	}
}

// Apply runs fn as one completion handler. Completion handlers never
// interleave with each other or with the replace step of LoadAll and
// LoadFiles, so fn may read, compute and write without losing updates.
// fn must not call LoadAll, LoadFiles or Apply.
func (c *Cache) Apply(fn func()) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	fn()
}

// LoadAll fetches the full directory collection and replaces the cache wholesale.
// On failure the cache is left exactly as it was.
func (c *Cache) LoadAll(ctx context.Context) error {
	dirs, err := c.source.ListDirectories(ctx)
	if err != nil {
		return &domain.FetchError{Op: "list directories", Err: err}
	}

	c.Apply(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.order = make([]int64, 0, len(dirs))
		c.entries = make(map[int64]models.Directory, len(dirs))
		c.files = make(map[int64][]models.File)
		for _, d := range dirs {
			if d.ID == 0 {
				c.logger.Warn("skipping directory without id", "name", d.Name)
				continue
			}
			c.putLocked(d.Clone(), true)
		}
		c.loaded = true
	})

	c.logger.Debug("directories loaded", "count", len(dirs))
	return nil
}

// LoadFiles fetches the files of one directory and stores them under it.
// A failure here never touches the directory records.
func (c *Cache) LoadFiles(ctx context.Context, directoryID int64) ([]models.File, error) {
	files, err := c.source.ListFiles(ctx, directoryID)
	if err != nil {
		return nil, &domain.FetchError{Op: "list files", Err: err}
	}
	if files == nil {
		files = []models.File{}
	}

	c.Apply(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.entries[directoryID]; ok {
			c.files[directoryID] = slices.Clone(files)
		}
	})

	c.logger.Debug("files loaded", "directory_id", directoryID, "count", len(files))
	return files, nil
}

// Loaded reports whether LoadAll succeeded at least once.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Upsert replaces the entry matching dir.ID if present, else appends it.
// A non-nil dir.Files replaces the stored file list; nil keeps it.
func (c *Cache) Upsert(dir models.Directory) error {
	if dir.ID == 0 {
		return errors.New("upsert: directory has no id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(dir.Clone(), dir.Files != nil)
	return nil
}

// Replace swaps the entry matching dir.ID for dir, file list included, and
// reports whether an entry was replaced. It never inserts, so an entity
// removed in the meantime is not resurrected.
func (c *Cache) Replace(dir models.Directory) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[dir.ID]; !ok {
		return false
	}
	c.putLocked(dir.Clone(), true)
	return true
}

// putLocked stores dir, keeping the position of an existing entry. With
// withFiles set, dir.Files becomes the stored file list (nil = not fetched).
// Caller holds mu.
func (c *Cache) putLocked(dir models.Directory, withFiles bool) {
	if _, ok := c.entries[dir.ID]; !ok {
		c.order = append(c.order, dir.ID)
	}
	if withFiles {
		if dir.Files == nil {
			delete(c.files, dir.ID)
		} else {
			c.files[dir.ID] = dir.Files
		}
	}
	dir.Files = nil
	c.entries[dir.ID] = dir
}

// Remove deletes the entry and its file list. Reports whether it existed.
func (c *Cache) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	delete(c.files, id)
	c.order = slices.DeleteFunc(c.order, func(v int64) bool { return v == id })
	return true
}

// Get returns a copy of one directory, with its files when they were fetched.
func (c *Cache) Get(id int64) (models.Directory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.entries[id]; !ok {
		return models.Directory{}, false
	}
	return c.assembleLocked(id), true
}

// List returns copies of all directories in list order.
func (c *Cache) List() []models.Directory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Directory, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.assembleLocked(id))
	}
	return out
}

// Len returns the number of cached directories.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// assembleLocked builds the read copy of a directory. File references are
// normalized to the owner's current name. Caller holds mu.
func (c *Cache) assembleLocked(id int64) models.Directory {
	dir := c.entries[id].Clone()
	if files, ok := c.files[id]; ok {
		dir.Files = make([]models.File, len(files))
		for i, f := range files {
			f.Directory = dir.Ref()
			dir.Files[i] = f
		}
	}
	return dir
}

// ResolveParent returns the cached directory matching parentID, or nil when
// parentID is nil or not cached. It never fetches.
func (c *Cache) ResolveParent(parentID *int64) *models.Directory {
	if parentID == nil {
		return nil
	}
	dir, ok := c.Get(*parentID)
	if !ok {
		return nil
	}
	return &dir
}

// Children lists the cached directories directly under parentID (nil = root level).
func (c *Cache) Children(parentID *int64) []models.Directory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Directory
	for _, id := range c.order {
		if models.SameParent(c.entries[id].ParentID, parentID) {
			out = append(out, c.assembleLocked(id))
		}
	}
	return out
}

// ParentCandidates lists the directories that may be chosen as parent of the
// directory being edited: every cached directory except editingID itself and
// its descendants. A nil editingID (create) offers every cached directory.
func (c *Cache) ParentCandidates(editingID *int64) []models.Directory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Directory, 0, len(c.order))
	for _, id := range c.order {
		if editingID != nil && c.descendsFromLocked(id, *editingID) {
			continue
		}
		dir := c.entries[id].Clone()
		out = append(out, dir)
	}
	return out
}

// descendsFromLocked reports whether id equals ancestor or has it in its
// cached parent chain. Stops at missing parents and at cycles. Caller holds mu.
func (c *Cache) descendsFromLocked(id, ancestor int64) bool {
	seen := make(map[int64]bool)
	for cur := id; ; {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true

		dir, ok := c.entries[cur]
		if !ok || dir.ParentID == nil {
			return false
		}
		cur = *dir.ParentID
	}
}

// Path renders the display path of a directory ("Docs/Reports") from cached
// parents. Missing parents end the walk; so does a cycle.
func (c *Cache) Path(id int64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var parts []string
	seen := make(map[int64]bool)
	for cur := id; !seen[cur]; {
		seen[cur] = true
		dir, ok := c.entries[cur]
		if !ok {
			break
		}
		parts = append(parts, dir.Name)
		if dir.ParentID == nil {
			break
		}
		cur = *dir.ParentID
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// File returns one cached file of a directory.
func (c *Cache) File(directoryID, fileID int64) (models.File, bool) {
	dir, ok := c.Get(directoryID)
	if !ok {
		return models.File{}, false
	}
	for _, f := range dir.Files {
		if f.ID == fileID {
			return f, true
		}
	}
	return models.File{}, false
}

// WithFile returns a copy of dir whose file list has f replaced by id match,
// or appended when no entry matches. Untouched entries keep their order.
func WithFile(dir models.Directory, f models.File) (models.Directory, error) {
	if f.ID == 0 {
		return dir, fmt.Errorf("file %q has no id", f.Name)
	}
	dir = dir.Clone()
	f.Directory = dir.Ref()
	if i := slices.IndexFunc(dir.Files, func(x models.File) bool { return x.ID == f.ID }); i >= 0 {
		dir.Files[i] = f
		return dir, nil
	}
	dir.Files = append(dir.Files, f)
	return dir, nil
}
