package session

import (
	"log/slog"
	"sync"

	"vfs/internal/domain/models"
	"vfs/internal/hierarchy"
)

// ViewKind names a view that can originate or receive updates.
type ViewKind int

const (
	// NoView originates updates not tied to a view (reloads, calls outside a form).
	NoView ViewKind = iota
	// ListView is the list of all directories.
	ListView
	// DetailView is the open directory with its files.
	DetailView
)

func (k ViewKind) String() string {
	switch k {
	case ListView:
		return "list"
	case DetailView:
		return "detail"
	default:
		return "none"
	}
}

// EventKind is what changed in the cache.
type EventKind int

const (
	// DirectoriesReloaded means the whole directory list was replaced.
	DirectoriesReloaded EventKind = iota
	// DirectoryUpdated means one directory was created, renamed or moved.
	DirectoryUpdated
	// DirectoryRemoved means one directory was deleted.
	DirectoryRemoved
	// FilesUpdated means the file list of one directory changed.
	FilesUpdated
)

// Event tells a view that cached data it may display changed.
type Event struct {
	Kind        EventKind
	DirectoryID int64
	Origin      ViewKind
}

type subscriber struct {
	view ViewKind
	fn   func(Event)
}

// Bridge keeps the list view and the detail view on the same data. Both read
// from the one cache; the bridge writes detail-view mutations into it by id and
// tells the view that did not originate a change to re-read.
type Bridge struct {
	cache  *hierarchy.Cache
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

// NewBridge creates a bridge over cache.
func NewBridge(cache *hierarchy.Cache, logger *slog.Logger) *Bridge {
	return &Bridge{
		cache:  cache,
		logger: logger,
		subs:   make(map[int]subscriber),
	}
}

// Propagate replaces the cached copy of updated (matched by id) with updated
// itself. It is a pure replace, never a merge, and never inserts: a directory
// deleted in the meantime stays deleted. Applying the same value twice leaves
// the cache as applying it once. Reports whether an entry was replaced.
func (b *Bridge) Propagate(updated models.Directory, origin ViewKind) bool {
	if !b.cache.Replace(updated) {
		b.logger.Debug("propagate skipped, directory not cached", "directory_id", updated.ID)
		return false
	}
	b.Publish(Event{Kind: DirectoryUpdated, DirectoryID: updated.ID, Origin: origin})
	return true
}

// Subscribe registers fn to receive events for view. Events that view
// originated are not delivered back to it. fn runs synchronously inside the
// completion that caused the event, so it must not block or call back into
// the session; hand longer work to another goroutine. The returned func
// unsubscribes.
func (b *Bridge) Subscribe(view ViewKind, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = subscriber{view: view, fn: fn}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish fans ev out to every subscriber except those of the originating view.
func (b *Bridge) Publish(ev Event) {
	b.mu.Lock()
	targets := make([]func(Event), 0, len(b.subs))
	for _, s := range b.subs {
		if ev.Origin != NoView && s.view == ev.Origin {
			continue
		}
		targets = append(targets, s.fn)
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
}
