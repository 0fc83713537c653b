// Package history persists resume positions of played items.
package history

import (
	"sync"

	"github.com/metafates/gache"
	"github.com/podtube-cli/podtube/filesystem"
	"github.com/podtube-cli/podtube/media"
	"github.com/podtube-cli/podtube/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

var cacher = gache.New[map[string]*SavedItem](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// mu serializes read-modify-write cycles on the registry.
var mu sync.Mutex

// Get returns every saved record keyed by source id.
func Get() (map[string]*SavedItem, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedItem), nil
	}
	return cached, nil
}

// Save stores the position reached in item. An unknown duration is saved as 0.
func Save(item *media.Item, position, duration float64) error {
	record, err := newSavedItem(item, max(position, 0), max(duration, 0))
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	saved, err := Get()
	if err != nil {
		return err
	}

	if record.Duration == 0 {
		if existing, ok := saved[record.SourceID]; ok {
			record.Duration = existing.Duration
		}
	}
	saved[record.SourceID] = record

	return cacher.Set(saved)
}

// Find returns the record of a source id.
func Find(sourceID string) mo.Option[*SavedItem] {
	saved, err := Get()
	if err != nil {
		return mo.None[*SavedItem]()
	}
	if record, ok := saved[sourceID]; ok {
		return mo.Some(record)
	}
	return mo.None[*SavedItem]()
}

// Recent returns all records, most recently updated first.
func Recent() ([]*SavedItem, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := lo.Values(saved)
	slices.SortFunc(records, func(a, b *SavedItem) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return records, nil
}

// Last returns the most recently updated record.
func Last() mo.Option[*SavedItem] {
	records, err := Recent()
	if err != nil || len(records) == 0 {
		return mo.None[*SavedItem]()
	}
	return mo.Some(records[0])
}

// Remove deletes the record of a source id.
func Remove(sourceID string) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, sourceID)
	return cacher.Set(saved)
}
