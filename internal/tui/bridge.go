package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/shelf/internal/state"
)

// changedMsg tells the App to re-read the list snapshot.
type changedMsg struct{}

// watch subscribes to list. The returned channel holds at most one pending
// signal, so a burst of changes is read as a single refresh.
func watch(list *state.List) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	unsubscribe := list.Subscribe(func(state.Snapshot) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	return ch, unsubscribe
}

// waitForChange blocks until the list reports a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}
