package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/tabdeck/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/tabdeck-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("tabdeck-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders the document as Netscape bookmark HTML. Each
// category becomes a top-level folder so a later re-import keeps the
// grouping.
func ExportHTML(data *model.AppData) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	for i := range data.Categories {
		cat := &data.Categories[i]
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(cat.Name))
		b.WriteString("    <DL><p>\n")
		writeNodes(&b, cat.Bookmarks, 2)
		b.WriteString("    </DL><p>\n")
	}

	b.WriteString("</DL><p>\n")
	return b.String()
}

// writeNodes recursively writes folders and links in display order.
func writeNodes(b *strings.Builder, nodes []model.Node, indent int) {
	prefix := strings.Repeat("    ", indent)

	for i := range nodes {
		n := &nodes[i]
		if n.IsFolder() {
			fmt.Fprintf(b, "%s<DT><H3>%s</H3>\n", prefix, html.EscapeString(n.Title))
			fmt.Fprintf(b, "%s<DL><p>\n", prefix)
			writeNodes(b, n.Children, indent+1)
			fmt.Fprintf(b, "%s</DL><p>\n", prefix)
			continue
		}

		icon := ""
		if n.IconType == model.IconCustom && n.Icon != "" {
			icon = fmt.Sprintf(" ICON=\"%s\"", html.EscapeString(n.Icon))
		}
		fmt.Fprintf(b,
			"%s<DT><A HREF=\"%s\"%s>%s</A>\n",
			prefix,
			html.EscapeString(n.URL),
			icon,
			html.EscapeString(n.Title),
		)
	}
}
