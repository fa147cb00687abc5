package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App          lipgloss.Style
	Header       lipgloss.Style
	Pane         lipgloss.Style
	PaneActive   lipgloss.Style
	Modal        lipgloss.Style
	Title        lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemGrabbed  lipgloss.Style
	URL          lipgloss.Style
	Tag          lipgloss.Style
	Chip         lipgloss.Style
	ChipActive   lipgloss.Style
	Date         lipgloss.Style
	Empty        lipgloss.Style
	Busy         lipgloss.Style
	HintKey      lipgloss.Style // Key portion of hints (e.g., "Enter", "j/k")
	HintDesc     lipgloss.Style // Description portion of hints (e.g., "confirm", "move")
	HintLabel    lipgloss.Style
}

// Industrial design: grayscale with single desaturated teal accent.
var (
	primary = lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"} // main text
	subtle  = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"} // secondary text
	accent  = lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"} // desaturated teal
	border  = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#505050"} // inactive borders
	ink     = lipgloss.Color("#1A1A1A")
)

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			PaddingLeft(1),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(border).
			Padding(0, 1),

		PaneActive: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(0, 1),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(ink),

		ItemGrabbed: lipgloss.NewStyle().
			PaddingLeft(1).
			Bold(true).
			Foreground(accent).
			Reverse(true),

		URL: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(1),

		Tag: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(1),

		Chip: lipgloss.NewStyle().
			Foreground(subtle),

		ChipActive: lipgloss.NewStyle().
			Bold(true).
			Background(accent).
			Foreground(ink),

		Date: lipgloss.NewStyle().
			Foreground(subtle),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		Busy: lipgloss.NewStyle().
			Foreground(accent),

		HintKey: lipgloss.NewStyle().
			Foreground(subtle),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),

		HintLabel: lipgloss.NewStyle().
			Foreground(subtle).
			Bold(true),
	}
}
