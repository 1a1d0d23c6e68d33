package tui

import "github.com/nikbrunner/tabdeck/internal/model"

// Item wraps a node of the currently displayed list.
type Item struct {
	Node *model.Node
}

// ID returns the node's ID.
func (i Item) ID() string {
	return i.Node.ID
}

// Title returns the display title.
func (i Item) Title() string {
	return i.Node.Title
}

// IsFolder returns true if this item is a folder.
func (i Item) IsFolder() bool {
	return i.Node.IsFolder()
}
