package layout

// PaneLayout holds calculated pane dimensions.
type PaneLayout struct {
	ListWidth   int
	DetailWidth int // 0 when the detail pane is hidden
}

// ShowDetail reports whether the detail pane fits next to the list.
func (p PaneLayout) ShowDetail() bool {
	return p.DetailWidth > 0
}

// CalculatePaneHeight computes the content height for panes.
// Returns at least MinHeight.
func CalculatePaneHeight(terminalHeight int, cfg PaneConfig) int {
	return max(terminalHeight-cfg.HeightReduction, cfg.MinHeight)
}

// CalculatePaneWidths splits the terminal width between the card list and
// the detail pane. The detail pane is dropped when it would be narrower than
// MinDetailWidth.
func CalculatePaneWidths(terminalWidth int, cfg PaneConfig) PaneLayout {
	usable := terminalWidth - cfg.PaneGap
	list := max(usable*cfg.ListWidthPercent/100, cfg.MinListWidth)
	detail := usable - list

	if detail < cfg.MinDetailWidth {
		return PaneLayout{ListWidth: max(usable, cfg.MinListWidth)}
	}
	return PaneLayout{ListWidth: list, DetailWidth: detail}
}

// CalculateItemWidth computes the width available for card content.
func CalculateItemWidth(paneWidth int, cfg PaneConfig) int {
	return max(paneWidth-cfg.ContentPadding, 1)
}

// CalculateVisibleCards computes how many cards fit in a pane.
func CalculateVisibleCards(paneHeight int, cfg PaneConfig) int {
	if cfg.CardHeight <= 0 {
		return max(paneHeight, 1)
	}
	return max(paneHeight/cfg.CardHeight, 1)
}

// CalculateViewportOffset calculates the scroll offset needed to keep the
// selected item visible within the viewport.
func CalculateViewportOffset(selected, total, viewportHeight int) int {
	if total <= viewportHeight {
		return 0
	}

	// Keep selection roughly centered, but clamp to valid range
	offset := max(selected-viewportHeight/2, 0)
	return min(offset, total-viewportHeight)
}
