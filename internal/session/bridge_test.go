package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vfs/internal/domain/models"
	"vfs/internal/hierarchy"
)

func bridgeWith(t *testing.T, dirs ...models.Directory) (*Bridge, *hierarchy.Cache) {
	t.Helper()
	cache := hierarchy.New(newFakeAPI(dirs...), quietLogger())
	require.NoError(t, cache.LoadAll(context.Background()))
	return NewBridge(cache, quietLogger()), cache
}

func TestBridge_PropagateReplacesByID(t *testing.T) {
	b, cache := bridgeWith(t,
		models.Directory{ID: 1, Name: "Docs"},
		models.Directory{ID: 2, Name: "Music"},
	)
	updated := models.Directory{
		ID:   1,
		Name: "Docs",
		Files: []models.File{
			{ID: 10, Name: "a.txt", Directory: models.DirectoryRef{ID: 1, Name: "Docs"}},
		},
	}

	require.True(t, b.Propagate(updated, DetailView))

	got, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, updated, got)

	other, _ := cache.Get(2)
	assert.Equal(t, models.Directory{ID: 2, Name: "Music"}, other)
}

func TestBridge_PropagateIsIdempotent(t *testing.T) {
	b, cache := bridgeWith(t, models.Directory{ID: 1, Name: "Docs"})
	updated := models.Directory{ID: 1, Name: "Renamed", Files: []models.File{}}

	require.True(t, b.Propagate(updated, DetailView))
	once := cache.List()
	require.True(t, b.Propagate(updated, DetailView))

	assert.Equal(t, once, cache.List())
}

func TestBridge_PropagateNeverInserts(t *testing.T) {
	b, cache := bridgeWith(t, models.Directory{ID: 1, Name: "Docs"})

	var got []Event
	defer b.Subscribe(ListView, func(ev Event) { got = append(got, ev) })()

	assert.False(t, b.Propagate(models.Directory{ID: 9, Name: "Gone"}, DetailView))
	assert.Equal(t, 1, cache.Len())
	assert.Empty(t, got)
}

func TestBridge_PropagateDoesNotMerge(t *testing.T) {
	b, cache := bridgeWith(t, models.Directory{ID: 1, Name: "Docs", ParentID: ptr(7)})

	require.True(t, b.Propagate(models.Directory{ID: 1, Name: "Docs"}, DetailView))

	got, _ := cache.Get(1)
	assert.Nil(t, got.ParentID)
}

func TestBridge_PublishSkipsOrigin(t *testing.T) {
	b, _ := bridgeWith(t)

	var list, detail int
	unsubList := b.Subscribe(ListView, func(Event) { list++ })
	defer b.Subscribe(DetailView, func(Event) { detail++ })()

	b.Publish(Event{Kind: DirectoryUpdated, Origin: ListView})
	b.Publish(Event{Kind: DirectoryUpdated, Origin: DetailView})
	b.Publish(Event{Kind: DirectoriesReloaded, Origin: NoView})
	assert.Equal(t, 2, list)
	assert.Equal(t, 2, detail)

	unsubList()
	b.Publish(Event{Kind: DirectoryRemoved, Origin: DetailView})
	assert.Equal(t, 2, list)
}

func TestViewKind_String(t *testing.T) {
	assert.Equal(t, "list", ListView.String())
	assert.Equal(t, "detail", DetailView.String())
	assert.Equal(t, "none", NoView.String())
}
