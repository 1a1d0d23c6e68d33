package icon

import "github.com/nikbrunner/tabdeck/internal/model"

// DefaultAsset is the bundled icon shown when every candidate fails.
const DefaultAsset = "assets/default-icon.svg"

// Resolved is what the display layer consumes: the primary source to
// try first, then the fallbacks in order. The last fallback is always
// the bundled default.
type Resolved struct {
	Primary   string
	Fallbacks []string
}

// Resolver maps a node's stored icon reference through the cache.
type Resolver struct {
	cache *Cache
}

// NewResolver creates a resolver over cache, which may be nil.
func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// Resolve produces the display sources for a stored icon reference.
// The primary is cache-resolved when a cached copy exists; the fallback
// list is deduplicated, keeps its order, never repeats the primary
// source, and ends in the bundled default.
func (r *Resolver) Resolve(iconRef string, fallbacks []string) Resolved {
	primary := iconRef
	if primary == "" && len(fallbacks) > 0 {
		primary = fallbacks[0]
	}

	source := primary
	if r.cache != nil && primary != "" {
		if cached, ok := r.cache.Get(primary); ok {
			source = cached
		}
	}
	if source == "" {
		source = DefaultAsset
	}

	seen := map[string]bool{primary: true, source: true, "": true}
	out := Resolved{Primary: source}
	for _, fb := range fallbacks {
		if seen[fb] {
			continue
		}
		seen[fb] = true
		out.Fallbacks = append(out.Fallbacks, fb)
	}
	if source != DefaultAsset && !seen[DefaultAsset] {
		out.Fallbacks = append(out.Fallbacks, DefaultAsset)
	}
	return out
}

// ResolveNode resolves a bookmark node's icon fields.
func (r *Resolver) ResolveNode(n *model.Node) Resolved {
	return r.Resolve(n.Icon, n.IconFallbacks)
}

// ReferencedURLs collects every icon URL the document still uses, for
// Cache.Purge after load.
func ReferencedURLs(data *model.AppData) map[string]bool {
	refs := map[string]bool{}
	var walk func(nodes []model.Node)
	walk = func(nodes []model.Node) {
		for i := range nodes {
			if nodes[i].Icon != "" {
				refs[nodes[i].Icon] = true
			}
			for _, fb := range nodes[i].IconFallbacks {
				refs[fb] = true
			}
			walk(nodes[i].Children)
		}
	}
	for i := range data.Categories {
		walk(data.Categories[i].Bookmarks)
	}
	return refs
}
