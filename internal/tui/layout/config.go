package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	Pane  PaneConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// PaneConfig holds pane dimension configuration.
type PaneConfig struct {
	// HeightReduction is subtracted from terminal height for pane content.
	// Accounts for: app padding (1) + header (1) + tag chips (1) + search (1) +
	// pane borders (2) + status bar (3) = 9
	HeightReduction int

	// MinHeight is the minimum pane height.
	MinHeight int

	// ListWidthPercent is the share of the width given to the card list when
	// the detail pane is shown.
	ListWidthPercent int

	// MinListWidth is the narrowest the card list gets.
	MinListWidth int

	// MinDetailWidth is the narrowest detail pane worth showing. Below it the
	// list takes the full width.
	MinDetailWidth int

	// PaneGap accounts for borders and spacing between the two panes.
	PaneGap int

	// ContentPadding is subtracted from pane width for card rendering.
	// Accounts for pane border/padding on each side.
	ContentPadding int

	// CardHeight is the number of lines one bookmark card takes:
	// title, URL and tags.
	CardHeight int
}

// ModalConfig holds modal dialog configuration.
type ModalConfig struct {
	// DefaultWidthPercent is the standard modal width as percentage of terminal width.
	DefaultWidthPercent int

	// MinWidth is the minimum modal width in characters.
	MinWidth int

	// MaxWidth is the maximum modal width in characters.
	MaxWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	// Character limits
	URLCharLimit      int
	TagsCharLimit     int
	SearchCharLimit   int
	EmailCharLimit    int
	PasswordCharLimit int

	// Display widths
	StandardWidth int // Used for URL, tags, email, password
	SearchWidth   int // Used for the search bar (narrower)
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		Pane: PaneConfig{
			HeightReduction:  9,
			MinHeight:        6,
			ListWidthPercent: 55,
			MinListWidth:     30,
			MinDetailWidth:   28,
			PaneGap:          4,
			ContentPadding:   4,
			CardHeight:       3,
		},
		Modal: ModalConfig{
			DefaultWidthPercent: 40,
			MinWidth:            50,
			MaxWidth:            80,
		},
		Input: InputConfig{
			URLCharLimit:      2048,
			TagsCharLimit:     200,
			SearchCharLimit:   100,
			EmailCharLimit:    254,
			PasswordCharLimit: 128,
			StandardWidth:     40,
			SearchWidth:       30,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
