// Package picker is the minimal selection list behind the CLI quick
// search: a handful of hits, each shown with the place it lives in the
// deck, one of which gets opened.
package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/search"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)
)

// entry pairs a search hit with the trail to its place in the deck.
type entry struct {
	link *model.Node
	path string // "Category > Folder > Folder"
}

// Picker lets the user choose one link out of the search results.
type Picker struct {
	entries   []entry
	query     string
	cursor    int
	selected  bool
	cancelled bool
	width     int
	height    int
}

// New builds a picker over the results; data supplies each link's
// location trail.
func New(results []search.Result, query string, data *model.AppData) Picker {
	entries := make([]entry, len(results))
	for i, r := range results {
		entries[i] = entry{link: r.Link, path: locationPath(data, r.Link.ID)}
	}
	return Picker{
		entries: entries,
		query:   query,
		width:   80,
		height:  24,
	}
}

// locationPath renders the category and folder trail of a link, in the
// same form as the main TUI breadcrumb.
func locationPath(data *model.AppData, id string) string {
	loc, ok := data.FindLocation(id)
	if !ok {
		return ""
	}
	var parts []string
	if cat := data.CategoryByID(loc.CategoryID); cat != nil {
		parts = append(parts, cat.Name)
	}
	for _, ancestorID := range loc.Ancestors {
		if folder, ok := data.FindLocation(ancestorID); ok {
			parts = append(parts, folder.Node.Title)
		}
	}
	return strings.Join(parts, " > ")
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c", "q":
			p.cancelled = true
			return p, tea.Quit

		case "enter":
			p.selected = true
			return p, tea.Quit

		case "down", "j":
			if p.cursor < len(p.entries)-1 {
				p.cursor++
			}

		case "up", "k":
			if p.cursor > 0 {
				p.cursor--
			}
		}
	}

	return p, nil
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%d hits for %q", len(p.entries), p.query)))
	b.WriteString("\n\n")

	for i, en := range p.entries {
		marker := "  "
		style := normalStyle
		if i == p.cursor {
			marker = "> "
			style = selectedStyle
		}

		b.WriteString(marker)
		b.WriteString(style.Render(en.link.Title))
		if en.path != "" {
			b.WriteString("  ")
			b.WriteString(pathStyle.Render(en.path))
		}
		b.WriteString("\n   ")
		b.WriteString(urlStyle.Render(en.link.URL))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pathStyle.Render("j/k: move  Enter: open  q/Esc: cancel"))

	return b.String()
}

// SelectedLink returns the chosen link, or nil if the picker was
// cancelled.
func (p Picker) SelectedLink() *model.Node {
	if p.cancelled || !p.selected || p.cursor >= len(p.entries) {
		return nil
	}
	return p.entries[p.cursor].link
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
