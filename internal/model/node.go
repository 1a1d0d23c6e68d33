package model

import "strings"

// NodeType discriminates the two bookmark node variants.
type NodeType string

const (
	NodeLink   NodeType = "link"
	NodeFolder NodeType = "folder"
)

// IconType describes where a link's icon comes from.
type IconType string

const (
	IconFavicon IconType = "favicon"
	IconCustom  IconType = "custom"
)

// MaxFolderDepth is the maximum folder nesting depth. A folder directly
// inside the category root has depth 1.
const MaxFolderDepth = 3

// Node is a bookmark tree node: either a link or a folder containing
// further nodes. The Type field discriminates; URL and IconType are only
// meaningful for links, Children only for folders.
type Node struct {
	ID            string   `json:"id"`
	Type          NodeType `json:"type"`
	Title         string   `json:"title"`
	URL           string   `json:"url,omitempty"`
	IconType      IconType `json:"iconType,omitempty"`
	Icon          string   `json:"icon,omitempty"`
	IconFallbacks []string `json:"iconFallbacks,omitempty"`
	Children      []Node   `json:"children,omitempty"`
}

// NewLinkParams holds parameters for creating a new link node.
type NewLinkParams struct {
	Title         string
	URL           string
	Icon          string
	IconFallbacks []string
}

// NewLink creates a link node with a generated UUID.
// IconType defaults to favicon unless a custom icon is given.
func NewLink(params NewLinkParams) Node {
	iconType := IconFavicon
	if params.Icon != "" {
		iconType = IconCustom
	}
	return Node{
		ID:            GenerateUUID(),
		Type:          NodeLink,
		Title:         params.Title,
		URL:           params.URL,
		IconType:      iconType,
		Icon:          params.Icon,
		IconFallbacks: params.IconFallbacks,
	}
}

// NewFolder creates a folder node with a generated UUID.
func NewFolder(title string, children []Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{
		ID:       GenerateUUID(),
		Type:     NodeFolder,
		Title:    title,
		Children: children,
	}
}

// IsFolder returns true if the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Type == NodeFolder
}

// ContainsID reports whether id is the node itself or any descendant.
func (n *Node) ContainsID(id string) bool {
	if n.ID == id {
		return true
	}
	for i := range n.Children {
		if n.Children[i].ContainsID(id) {
			return true
		}
	}
	return false
}

// FolderHeight returns the number of folder levels this node adds when
// placed somewhere: 0 for links, 1 + deepest nested folder for folders.
func (n *Node) FolderHeight() int {
	if !n.IsFolder() {
		return 0
	}
	max := 0
	for i := range n.Children {
		if h := n.Children[i].FolderHeight(); h > max {
			max = h
		}
	}
	return 1 + max
}

// StripTitlePrefix removes any leading "<folderTitle> / " prefixes from
// title. Repeated prefixes are stripped until none remain, so the result
// is stable under re-application.
func StripTitlePrefix(folderTitle, title string) string {
	prefix := folderTitle + " / "
	for strings.HasPrefix(title, prefix) {
		title = strings.TrimPrefix(title, prefix)
	}
	return title
}
