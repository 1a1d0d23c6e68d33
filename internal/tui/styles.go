package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App            lipgloss.Style
	Tab            lipgloss.Style
	TabActive      lipgloss.Style
	Breadcrumb     lipgloss.Style
	Item           lipgloss.Style
	ItemSelected   lipgloss.Style
	Folder         lipgloss.Style
	URL            lipgloss.Style
	Status         lipgloss.Style
	Help           lipgloss.Style
	Empty          lipgloss.Style
	SearchPrompt   lipgloss.Style
	SearchSelected lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Industrial design: grayscale with single desaturated teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"} // main text
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}  // secondary text
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}  // desaturated teal

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Tab: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(0, 1),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1),

		Breadcrumb: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(1),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		Folder: lipgloss.NewStyle().
			Foreground(primary),

		URL: lipgloss.NewStyle().
			Foreground(subtle),

		Status: lipgloss.NewStyle().
			Foreground(accent).
			PaddingLeft(1),

		Help: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(1, 0),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		SearchPrompt: lipgloss.NewStyle().
			Foreground(accent),

		SearchSelected: lipgloss.NewStyle().
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),
	}
}
