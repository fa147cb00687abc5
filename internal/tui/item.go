package tui

import (
	"slices"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/search"
)

// baseItems is the snapshot filtered by the active tag chip and query.
func (a App) baseItems() []model.Bookmark {
	return search.Project(a.snap.Items, a.search.Tag, a.search.Query())
}

// visibleItems is what the card list shows. While a bookmark is grabbed it
// is drawn at its drop slot.
func (a App) visibleItems() []model.Bookmark {
	items := a.baseItems()
	if a.grab.Active() {
		return a.grab.Preview(items)
	}
	return items
}

// selected returns the bookmark under the cursor.
func (a App) selected() (model.Bookmark, bool) {
	items := a.visibleItems()
	if a.cursor < 0 || a.cursor >= len(items) {
		return model.Bookmark{}, false
	}
	return items[a.cursor], true
}

// chips returns the tag chips in display order, "All" first.
func (a App) chips() []string {
	return search.FilterTags(a.snap.Items)
}

// clampCursor keeps the cursor on a visible item and drops a tag filter
// whose last bookmark went away.
func (a *App) clampCursor() {
	if a.search.Tag != search.AllTag && !slices.Contains(a.chips(), a.search.Tag) {
		a.search.Tag = search.AllTag
	}
	n := len(a.visibleItems())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}
