package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/state"
	"github.com/nikbrunner/shelf/internal/tui/layout"
)

// appPadding is the horizontal padding of the App style (left 2 + right 2).
const appPadding = 4

// View implements tea.Model.
func (a App) View() string {
	switch a.mode {
	case ModeLogin:
		return a.renderLogin()
	case ModeHelp:
		return a.renderHelpOverlay()
	case ModeAdd, ModeConfirmDelete:
		return a.renderModal()
	default:
		return a.renderMain()
	}
}

// renderMain renders header, tag chips, search bar, card list with detail
// pane and the status bar.
func (a App) renderMain() string {
	contentWidth := a.width - appPadding
	paneHeight := layout.CalculatePaneHeight(a.height, a.layoutConfig.Pane)
	panes := layout.CalculatePaneWidths(contentWidth, a.layoutConfig.Pane)

	columns := a.renderListPane(panes.ListWidth, paneHeight)
	if panes.ShowDetail() {
		columns = lipgloss.JoinHorizontal(
			lipgloss.Top,
			columns,
			a.renderDetailPane(panes.DetailWidth, paneHeight),
		)
	}

	content := a.styles.App.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderHeader(),
		a.renderChips(contentWidth),
		a.renderSearchBar(),
		columns,
		a.renderStatusBar(),
	))

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderHeader renders the app name and the signed-in account.
func (a App) renderHeader() string {
	header := "shelf"
	if sess := a.list.Session(); sess != nil && sess.Email != "" {
		header += " · " + sess.Email
	}
	return a.styles.Header.Render(header)
}

// renderChips renders the tag filter row, scrolled to keep the active chip
// in view.
func (a App) renderChips(width int) string {
	chips := a.chips()
	rendered := make([]string, len(chips))
	widths := make([]int, len(chips))
	selected := 0
	for i, tag := range chips {
		style := a.styles.Chip
		if tag == a.search.Tag {
			style = a.styles.ChipActive
			selected = i
		}
		rendered[i] = style.Render(" " + tag + " ")
		widths[i] = lipgloss.Width(rendered[i])
	}

	start, end := layout.ChipWindow(widths, selected, 1, width)
	return " " + strings.Join(rendered[start:end], " ")
}

// renderSearchBar shows the search input while searching or when a query
// is applied.
func (a App) renderSearchBar() string {
	if a.mode == ModeSearch || a.search.Query() != "" {
		return " " + a.search.Input.View()
	}
	return " " + a.styles.HintKey.Render("/ search")
}

// renderListPane renders the visible bookmarks as cards.
func (a App) renderListPane(width, height int) string {
	var content strings.Builder

	items := a.visibleItems()
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	if len(items) == 0 {
		content.WriteString(a.styles.Empty.Render(a.emptyText()))
	} else {
		visible := layout.CalculateVisibleCards(height, a.layoutConfig.Pane)
		offset := layout.CalculateViewportOffset(a.cursor, len(items), visible)
		end := min(offset+visible, len(items))
		for i := offset; i < end; i++ {
			content.WriteString(a.renderCard(items[i], i == a.cursor, itemWidth))
		}
	}

	style := a.styles.Pane
	if a.mode == ModeGrab {
		style = a.styles.PaneActive
	}
	return style.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) emptyText() string {
	switch {
	case a.snap.Status.Loading && len(a.snap.Items) == 0:
		return "Loading bookmarks..."
	case len(a.snap.Items) == 0:
		return "No bookmarks yet. Press a to add one."
	default:
		return "No bookmarks match."
	}
}

// renderCard renders one bookmark as three lines: title, URL and tags.
func (a App) renderCard(b model.Bookmark, isCursor bool, maxWidth int) string {
	grabbed := a.grab.Active() && b.ID == a.grab.ID

	prefix := ""
	if grabbed {
		prefix = "≡ "
	}
	title, _ := layout.TruncateWithPrefixSuffix(b.DisplayTitle(), maxWidth, prefix, "", a.layoutConfig.Text)

	switch {
	case grabbed:
		title = a.styles.ItemGrabbed.Render(layout.PadRight(title, maxWidth))
	case isCursor:
		title = a.styles.ItemSelected.Render(layout.PadRight(title, maxWidth))
	default:
		title = a.styles.Item.Render(title)
	}

	url, _ := layout.TruncateText(b.URL, maxWidth, a.layoutConfig.Text)
	tags := ""
	if len(b.Tags) > 0 {
		tags, _ = layout.TruncateText(formatTags(b.Tags), maxWidth, a.layoutConfig.Text)
	}

	return title + "\n" + a.styles.URL.Render(url) + "\n" + a.styles.Tag.Render(tags) + "\n"
}

// renderStatusBar renders the message line, the status line and the hints.
func (a App) renderStatusBar() string {
	lines := []string{
		a.renderMessageLine(),
		a.renderStatusLine(),
		a.renderHints(a.getContextualHints()),
	}
	return strings.Join(lines, "\n")
}

// renderMessageLine renders the styled message with prefix icon based on
// type. Without a message the list's last error is shown.
func (a App) renderMessageLine() string {
	text, typ := a.messageText, a.messageType
	if text == "" && a.snap.Status.Err != nil {
		text, typ = state.Describe(a.snap.Status.Err), MessageError
	}
	if text == "" {
		return ""
	}

	var msgStyle lipgloss.Style
	var prefix string

	switch typ {
	case MessageError:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF6666"}).
			Bold(true)
		prefix = "✗ "
	case MessageWarning:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"}).
			Bold(true)
		prefix = "⚠ "
	case MessageSuccess:
		msgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#338833", Dark: "#66CC66"}).
			Bold(true)
		prefix = "✓ "
	default: // MessageInfo
		msgStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)
	}

	return msgStyle.Render(prefix + text)
}

// renderStatusLine renders what the list is busy with, the item count and
// the confirm toggle.
func (a App) renderStatusLine() string {
	var busy []string
	if a.snap.Status.Loading {
		busy = append(busy, "loading")
	}
	if a.snap.Status.Adding {
		busy = append(busy, "adding")
	}
	if a.snap.Status.Saving {
		busy = append(busy, "saving order")
	}

	var status strings.Builder
	if len(busy) > 0 {
		status.WriteString(a.styles.Busy.Render(a.spinner.View()+" "+strings.Join(busy, ", ")+"...") + "  ")
	}

	status.WriteString(a.styles.HintLabel.Render(
		fmt.Sprintf("%d/%d", len(a.visibleItems()), len(a.snap.Items)),
	))

	if a.confirmDelete {
		status.WriteString(" [cfm:on]")
	} else {
		status.WriteString(" [cfm:off]")
	}
	return status.String()
}

// renderModal renders the add and delete dialogs centered on screen.
func (a App) renderModal() string {
	var title, content strings.Builder

	modalWidth := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.DefaultWidthPercent, a.layoutConfig.Modal)

	switch a.mode {
	case ModeAdd:
		title.WriteString("Add Bookmark\n\n")
		content.WriteString("URL:\n")
		content.WriteString(a.add.URLInput.View())
		content.WriteString("\n\n")
		content.WriteString("Tags (comma-separated):\n")
		content.WriteString(a.add.TagsInput.View())
		content.WriteString("\n\n")
		content.WriteString(a.styles.Date.Render("Summary: "+a.policy.String()) + "\n")
		if line := a.renderMessageLine(); line != "" && a.messageType == MessageError {
			content.WriteString(line + "\n")
		}
		content.WriteString("\n")
		content.WriteString(a.renderHintsInline([]Hint{
			{Key: "Tab", Desc: "next"},
			{Key: "Enter", Desc: "save"},
			{Key: "Esc", Desc: "cancel"},
		}))

	case ModeConfirmDelete:
		b := a.deleteTarget
		title.WriteString("Delete Bookmark?\n\n")
		name, _ := layout.TruncateText(b.DisplayTitle(), modalWidth-6, a.layoutConfig.Text)
		url, _ := layout.TruncateText(b.URL, modalWidth-6, a.layoutConfig.Text)
		content.WriteString(name + "\n")
		content.WriteString(a.styles.Date.Render(url) + "\n\n")
		content.WriteString(a.styles.Empty.Render("This action cannot be undone.") + "\n\n")
		content.WriteString(a.renderHintsInline([]Hint{
			{Key: "y/Enter", Desc: "confirm"},
			{Key: "n/Esc", Desc: "cancel"},
		}))
	}

	modal := a.styles.Modal.
		Width(modalWidth).
		Render(a.styles.Title.Render(title.String()) + content.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}

// renderLogin renders the sign-in screen shown without a session.
func (a App) renderLogin() string {
	var content strings.Builder

	heading := "Sign in to shelf"
	action := "sign in"
	if a.login.Register {
		heading = "Create a shelf account"
		action = "register"
	}

	content.WriteString(a.styles.Title.Render(heading) + "\n\n")
	content.WriteString("Email:\n")
	content.WriteString(a.login.EmailInput.View())
	content.WriteString("\n\n")
	content.WriteString("Password:\n")
	content.WriteString(a.login.PasswordInput.View())
	content.WriteString("\n\n")
	if line := a.renderMessageLine(); line != "" {
		content.WriteString(line + "\n\n")
	}

	toggle := "create account"
	if a.login.Register {
		toggle = "have an account"
	}
	content.WriteString(a.renderHintsInline([]Hint{
		{Key: "Tab", Desc: "next"},
		{Key: "Enter", Desc: action},
		{Key: "ctrl+r", Desc: toggle},
		{Key: "Esc", Desc: "quit"},
	}))

	modalWidth := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.DefaultWidthPercent, a.layoutConfig.Modal)
	modal := a.styles.Modal.Width(modalWidth).Render(content.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}

// renderHelpOverlay renders every key binding.
func (a App) renderHelpOverlay() string {
	var content strings.Builder
	content.WriteString(a.styles.Title.Render("shelf keys") + "\n\n")
	content.WriteString(a.help.FullHelpView(a.keys.FullHelp()))
	content.WriteString("\n\n")
	content.WriteString(a.renderHints(a.getContextualHints()))

	return a.styles.App.Render(content.String())
}
