package layout

// CalculateModalWidth computes responsive modal width based on percentage of terminal width.
// Uses widthPercent of terminal width, clamped between MinWidth and MaxWidth.
func CalculateModalWidth(terminalWidth, widthPercent int, cfg ModalConfig) int {
	width := terminalWidth * widthPercent / 100
	width = min(max(width, cfg.MinWidth), cfg.MaxWidth)

	// Don't exceed terminal width
	width = min(width, terminalWidth-4)
	return max(width, 1)
}

// ChipWindow picks the run of chips, by rendered width, that fits in
// maxWidth and contains the selected chip. gap is the spacing between two
// chips. Returns (start, end) where chips[start:end] should be displayed.
func ChipWindow(widths []int, selected, gap, maxWidth int) (start, end int) {
	if len(widths) == 0 {
		return 0, 0
	}
	selected = min(max(selected, 0), len(widths)-1)

	// Grow to the right from the first chip, then slide until the
	// selection is inside.
	used := 0
	for end < len(widths) {
		w := widths[end]
		if end > start {
			w += gap
		}
		if used+w > maxWidth && end > start {
			break
		}
		used += w
		end++
	}

	for selected >= end {
		used += gap + widths[end]
		end++
		for used > maxWidth && start < selected {
			used -= widths[start] + gap
			start++
		}
	}
	return start, end
}
