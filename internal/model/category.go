package model

// Category is a top-level grouping of bookmark nodes. Exactly one
// category is active (displayed) at a time.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Bookmarks []Node `json:"bookmarks"`
}

// NewCategory creates a category with a generated UUID.
func NewCategory(name string) Category {
	return Category{
		ID:        GenerateUUID(),
		Name:      name,
		Bookmarks: []Node{},
	}
}

// BackgroundMode selects where the background image comes from.
type BackgroundMode string

const (
	BackgroundLocal BackgroundMode = "local"
	BackgroundCloud BackgroundMode = "cloud"
)

// CloudBackground holds metadata for a cloud-hosted background image.
type CloudBackground struct {
	FileName     string `json:"fileName,omitempty"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// Background holds the page background configuration.
type Background struct {
	Mode    BackgroundMode  `json:"mode"`
	Image   string          `json:"image,omitempty"`
	Opacity float64         `json:"opacity"`
	Cloud   CloudBackground `json:"cloud,omitempty"`
}

// AppData is the root document: all categories plus page-level settings
// that travel with the bookmark data. It is held as a single mutable
// instance and serialized whole on every save.
type AppData struct {
	Categories     []Category `json:"categories"`
	ActiveCategory string     `json:"activeCategory"`
	Background     Background `json:"background"`
	UIOpacity      float64    `json:"uiOpacity"`
}

// DefaultData returns the hardcoded starter document used when no local
// or remote snapshot exists.
func DefaultData() *AppData {
	home := NewCategory("Home")
	home.Bookmarks = []Node{
		NewLink(NewLinkParams{Title: "GitHub", URL: "https://github.com"}),
		NewLink(NewLinkParams{Title: "Hacker News", URL: "https://news.ycombinator.com"}),
		NewLink(NewLinkParams{Title: "Go Docs", URL: "https://go.dev"}),
	}
	return &AppData{
		Categories:     []Category{home},
		ActiveCategory: home.ID,
		Background:     Background{Mode: BackgroundLocal, Opacity: 1},
		UIOpacity:      1,
	}
}

// Normalize repairs structural defects after deserialization: nil
// slices, a missing category list, and a dangling active category
// reference.
func (d *AppData) Normalize() {
	if len(d.Categories) == 0 {
		d.Categories = []Category{NewCategory("Home")}
	}
	for i := range d.Categories {
		if d.Categories[i].Bookmarks == nil {
			d.Categories[i].Bookmarks = []Node{}
		}
	}
	d.EnsureActiveCategory()
}

// EnsureActiveCategory resets ActiveCategory to the first category when
// it no longer references an existing one.
func (d *AppData) EnsureActiveCategory() {
	for i := range d.Categories {
		if d.Categories[i].ID == d.ActiveCategory {
			return
		}
	}
	if len(d.Categories) > 0 {
		d.ActiveCategory = d.Categories[0].ID
	}
}

// CategoryByID finds a category by ID, returns nil if not found.
func (d *AppData) CategoryByID(id string) *Category {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return &d.Categories[i]
		}
	}
	return nil
}

// Active returns the active category. A valid document always has one.
func (d *AppData) Active() *Category {
	if c := d.CategoryByID(d.ActiveCategory); c != nil {
		return c
	}
	return &d.Categories[0]
}

// AllLinks collects every link node across all categories and nesting
// levels, in display order.
func (d *AppData) AllLinks() []*Node {
	var links []*Node
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for i := range nodes {
			if nodes[i].IsFolder() {
				walk(nodes[i].Children)
			} else {
				links = append(links, &nodes[i])
			}
		}
	}
	for i := range d.Categories {
		walk(d.Categories[i].Bookmarks)
	}
	return links
}
