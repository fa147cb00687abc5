package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/tui/layout"
)

// summaryRenderer renders bookmark summaries as Markdown, caching the
// result per bookmark for the current width.
type summaryRenderer struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newSummaryRenderer() *summaryRenderer {
	return &summaryRenderer{cache: map[string]string{}}
}

// Render returns the summary of b wrapped to width. Summaries that fail to
// render as Markdown are shown as plain text.
func (r *summaryRenderer) Render(b model.Bookmark, width int) string {
	summary := strings.TrimSpace(b.Summary)
	if summary == "" {
		return ""
	}

	if width != r.width || r.renderer == nil {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return summary
		}
		r.width = width
		r.renderer = tr
		clear(r.cache)
	}

	if out, ok := r.cache[b.ID]; ok {
		return out
	}
	out, err := r.renderer.Render(summary)
	if err != nil {
		return summary
	}
	out = strings.Trim(out, "\n")
	r.cache[b.ID] = out
	return out
}

// renderDetailPane shows the bookmark under the cursor with its summary.
func (a App) renderDetailPane(width, height int) string {
	var content strings.Builder
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	b, ok := a.selected()
	if !ok {
		content.WriteString(a.styles.Empty.Render("Nothing selected"))
	} else {
		title, _ := layout.TruncateText(b.DisplayTitle(), itemWidth, a.layoutConfig.Text)
		content.WriteString(a.styles.Title.Render(title) + "\n")

		link, _ := layout.TruncateText(b.LinkURL(), itemWidth, a.layoutConfig.Text)
		content.WriteString(a.styles.Date.Render(link) + "\n")

		if len(b.Tags) > 0 {
			tags, _ := layout.TruncateText(formatTags(b.Tags), itemWidth, a.layoutConfig.Text)
			content.WriteString(a.styles.Date.Render(tags) + "\n")
		}
		if added := formatAdded(b.CreatedAt); added != "" {
			content.WriteString(a.styles.Date.Render("Added "+added) + "\n")
		}
		content.WriteString("\n")

		if summary := a.summaries.Render(b, itemWidth); summary != "" {
			content.WriteString(summary)
		} else {
			content.WriteString(a.styles.Empty.Render("(no summary)"))
		}
	}

	lines := strings.Split(strings.TrimRight(content.String(), "\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// formatTags renders tags as "#a #b".
func formatTags(tags []string) string {
	return "#" + strings.Join(tags, " #")
}

// formatAdded shortens an RFC 3339 creation time to its date. Other values
// are shown as they are.
func formatAdded(createdAt string) string {
	if createdAt == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		return t.Format("2006-01-02")
	}
	return createdAt
}
