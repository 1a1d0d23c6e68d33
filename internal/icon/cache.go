// Package icon maps stored icon references to displayable sources: a
// capped local cache of fetched icons, a resolver producing a primary
// source plus an ordered fallback chain, and favicon candidate
// discovery for new links.
package icon

import (
	"encoding/json"
	"fmt"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/storage"
)

// DefaultMaxEntryBytes caps a single cached icon. Oversized entries are
// refused rather than truncated; the source URL still works as a
// fallback.
const DefaultMaxEntryBytes = 48 * 1024

// Cache maps an icon source URL to its cached data-URL representation.
// It is held in memory and persisted as one blob in the local store.
type Cache struct {
	maxEntry int
	entries  map[string]string
}

// NewCache creates a cache. maxEntry <= 0 applies the default cap.
func NewCache(maxEntry int) *Cache {
	if maxEntry <= 0 {
		maxEntry = DefaultMaxEntryBytes
	}
	return &Cache{maxEntry: maxEntry, entries: map[string]string{}}
}

// Get returns the cached data URL for a source URL.
func (c *Cache) Get(sourceURL string) (string, bool) {
	v, ok := c.entries[sourceURL]
	return v, ok
}

// Put stores a fetched icon. Entries over the per-entry cap are
// refused; the return reports whether the entry was stored.
func (c *Cache) Put(sourceURL, dataURL string) bool {
	if len(dataURL) > c.maxEntry {
		return false
	}
	c.entries[sourceURL] = dataURL
	return true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Purge drops every entry whose source URL is not in referenced and
// returns how many were removed. Run after load, against the icon URLs
// the current bookmarks actually use.
func (c *Cache) Purge(referenced map[string]bool) int {
	removed := 0
	for key := range c.entries {
		if !referenced[key] {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Load reads the cache blob from the local store. A missing or corrupt
// blob leaves the cache empty.
func (c *Cache) Load(store storage.Store) error {
	raw, ok, err := store.LoadBlob(storage.BlobIconCache)
	if err != nil {
		return fmt.Errorf("load icon cache: %w", err)
	}
	if !ok {
		return nil
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A broken cache is just rebuilt over time.
		return nil
	}
	for key, value := range entries {
		if len(value) <= c.maxEntry {
			c.entries[key] = value
		}
	}
	return nil
}

// SweepCache loads the persisted cache and drops entries no current
// bookmark references, writing the shrunk blob back. Startup runs this
// so deleted links do not pin their icons forever.
func SweepCache(store storage.Store, data *model.AppData) (*Cache, error) {
	c := NewCache(0)
	if err := c.Load(store); err != nil {
		return nil, err
	}
	if c.Purge(ReferencedURLs(data)) > 0 {
		if err := c.Save(store); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Save writes the cache blob to the local store.
func (c *Cache) Save(store storage.Store) error {
	raw, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("marshal icon cache: %w", err)
	}
	if err := store.SaveBlob(storage.BlobIconCache, raw); err != nil {
		return fmt.Errorf("save icon cache: %w", err)
	}
	return nil
}
