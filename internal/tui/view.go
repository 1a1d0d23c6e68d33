package tui

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// renderView draws the whole screen: category tabs, breadcrumb, item
// list, then whichever overlay is active.
func (a App) renderView() string {
	var b strings.Builder

	b.WriteString(a.renderTabs())
	b.WriteString("\n")

	if crumb := a.renderBreadcrumb(); crumb != "" {
		b.WriteString(crumb)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(a.renderList())

	switch a.mode {
	case modeSearch:
		b.WriteString("\n")
		b.WriteString(a.renderSearch())
	case modeAddURL:
		b.WriteString("\n")
		b.WriteString(a.styles.SearchPrompt.Render("add: ") + a.input.View())
	case modeRename:
		b.WriteString("\n")
		b.WriteString(a.styles.SearchPrompt.Render("rename: ") + a.input.View())
	}

	if a.status != "" {
		b.WriteString("\n")
		b.WriteString(a.styles.Status.Render(a.status))
	}

	b.WriteString("\n")
	b.WriteString(a.renderHelp())

	return a.styles.App.Render(b.String())
}

// renderTabs draws one tab per category, the active one highlighted.
func (a App) renderTabs() string {
	var tabs []string
	for i := range a.data.Categories {
		cat := &a.data.Categories[i]
		style := a.styles.Tab
		if cat.ID == a.data.ActiveCategory {
			style = a.styles.TabActive
		}
		tabs = append(tabs, style.Render(cat.Name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderBreadcrumb draws the entered-folder trail.
func (a App) renderBreadcrumb() string {
	if len(a.folderStack) == 0 {
		return ""
	}
	parts := []string{a.data.Active().Name}
	for _, id := range a.folderStack {
		if loc, ok := a.data.FindLocation(id); ok {
			parts = append(parts, loc.Node.Title)
		}
	}
	return a.styles.Breadcrumb.Render(strings.Join(parts, " > "))
}

// renderList draws the current node list with the cursor row
// highlighted.
func (a App) renderList() string {
	if len(a.items) == 0 {
		return a.styles.Empty.Render("  (empty — press a to add a link)")
	}

	maxWidth := a.width - 6
	if maxWidth < 20 {
		maxWidth = 20
	}

	var b strings.Builder
	for i, item := range a.items {
		line := a.renderItem(item, maxWidth)
		if i == a.cursor {
			b.WriteString(a.styles.ItemSelected.Render(line))
		} else {
			b.WriteString(a.styles.Item.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderItem formats one row: folders show a child count, links their
// URL dimmed.
func (a App) renderItem(item Item, maxWidth int) string {
	if item.IsFolder() {
		title := truncate(item.Title(), maxWidth-10)
		count := strconv.Itoa(len(item.Node.Children))
		return title + a.styles.URL.Render("  ("+count+")")
	}

	title := truncate(item.Title(), maxWidth/2)
	url := truncate(item.Node.URL, maxWidth-utf8.RuneCountInString(title)-3)
	return title + "  " + a.styles.URL.Render(url)
}

// renderSearch draws the search overlay with its result list.
func (a App) renderSearch() string {
	var b strings.Builder
	b.WriteString(a.styles.SearchPrompt.Render("/ ") + a.input.View())
	b.WriteString("\n")

	limit := len(a.results)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		line := truncate(a.results[i].Link.Title, a.width-8)
		if i == a.resCur {
			b.WriteString(a.styles.SearchSelected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(a.results) == 0 && a.input.Value() != "" {
		b.WriteString(a.styles.Empty.Render("  no matches"))
	}
	return b.String()
}

// renderHelp draws the key hint footer, expanded when toggled.
func (a App) renderHelp() string {
	if !a.showHelp {
		return a.styles.Help.Render("j/k move · l enter · h back · tab category · / search · ? help · q quit")
	}

	hints := []string{
		"j/k        move cursor",
		"l/enter    enter folder",
		"h          leave folder",
		"tab        next category",
		"J/K        reorder item",
		"f          fold into next item",
		"d          delete",
		"a          add link",
		"e          rename",
		"y          yank URL",
		"/          search all links",
		"s          sync now",
		"q          quit",
	}
	return a.styles.Help.Render(strings.Join(hints, "\n"))
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 1 {
		return "…"
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
