package importer

import (
	"io"
	"strings"

	"github.com/nikbrunner/tabdeck/internal/model"
	"golang.org/x/net/html"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML into a nested node
// tree ready to be placed into a category. Folder nesting deeper than
// the depth limit is flattened: the too-deep folder's children are
// hoisted into it.
func ParseHTMLBookmarks(r io.Reader) ([]model.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := parseList(doc)
	for i := range root {
		clampDepth(&root[i], 1)
	}
	return root, nil
}

// parseList walks siblings of a DL (or the document root) and collects
// nodes in document order. An H3 names a folder whose contents are the
// next DL; an A is a link.
func parseList(n *html.Node) []model.Node {
	var nodes []model.Node
	var pendingFolder string
	haveFolder := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				pendingFolder = textContent(n)
				haveFolder = true
				return

			case "a":
				href := attr(n, "href")
				if href == "" {
					return
				}
				title := textContent(n)
				if title == "" {
					title = href
				}
				link := model.NewLink(model.NewLinkParams{
					Title: title,
					URL:   href,
					// Netscape exports embed the favicon as a data URL.
					Icon: attr(n, "icon"),
				})
				nodes = append(nodes, link)
				return

			case "dl":
				children := parseList(n)
				if haveFolder {
					name := pendingFolder
					if name == "" {
						name = "Imported"
					}
					nodes = append(nodes, model.NewFolder(name, children))
					haveFolder = false
				} else {
					nodes = append(nodes, children...)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return nodes
}

// clampDepth hoists grandchildren of folders at the depth limit so the
// imported tree never exceeds model.MaxFolderDepth.
func clampDepth(n *model.Node, depth int) {
	if !n.IsFolder() {
		return
	}
	if depth >= model.MaxFolderDepth {
		n.Children = flatten(n.Children)
		return
	}
	for i := range n.Children {
		clampDepth(&n.Children[i], depth+1)
	}
}

// flatten replaces folders with their (recursively flattened) children.
func flatten(nodes []model.Node) []model.Node {
	var out []model.Node
	for _, n := range nodes {
		if n.IsFolder() {
			out = append(out, flatten(n.Children)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// textContent returns the text content of a node.
func textContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// attr returns the value of an attribute, case-insensitive.
func attr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) == key {
			return a.Val
		}
	}
	return ""
}
