package session

import "sync"

type entityKind uint8

const (
	directoryEntity entityKind = iota
	fileEntity
)

type entityKey struct {
	kind entityKind
	id   int64
}

func directoryKey(id int64) entityKey { return entityKey{kind: directoryEntity, id: id} }
func fileKey(id int64) entityKey      { return entityKey{kind: fileEntity, id: id} }

// keyedLocker is a per-entity mutex. Entries are dropped once no caller holds
// or waits for them.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[entityKey]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[entityKey]*keyedEntry)}
}

// lock blocks until key is free and returns the matching unlock.
func (k *keyedLocker) lock(key entityKey) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
