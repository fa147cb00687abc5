package tui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/session"
	"github.com/nikbrunner/shelf/internal/state"
)

// clipboardWriteAll is replaced in tests.
var clipboardWriteAll = clipboard.WriteAll

// Authenticator signs a user in against the remote store.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Register(ctx context.Context, email, password string) error
}

type loadDoneMsg struct{ err error }

type addDoneMsg struct {
	bookmark *model.Bookmark
	err      error
}

type deleteDoneMsg struct {
	title string
	err   error
}

type reorderDoneMsg struct{ err error }

type loginDoneMsg struct {
	list *state.List
	err  error
}

type logoutDoneMsg struct{ err error }

type openDoneMsg struct {
	title string
	err   error
}

func loadCmd(ctx context.Context, list *state.List) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: list.Load(ctx)}
	}
}

func addCmd(ctx context.Context, list *state.List, rawURL, tags string, policy state.SummaryPolicy) tea.Cmd {
	return func() tea.Msg {
		b, err := list.Add(ctx, rawURL, tags, policy)
		return addDoneMsg{bookmark: b, err: err}
	}
}

func deleteCmd(ctx context.Context, list *state.List, b model.Bookmark) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{title: b.DisplayTitle(), err: list.Delete(ctx, b.ID)}
	}
}

func reorderCmd(ctx context.Context, list *state.List, sourceID, targetID string) tea.Cmd {
	return func() tea.Msg {
		return reorderDoneMsg{err: list.Reorder(ctx, sourceID, targetID)}
	}
}

func loginCmd(ctx context.Context, auth Authenticator, onLogin func(*session.Session) (*state.List, error), email, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		if register {
			if err := auth.Register(ctx, email, password); err != nil {
				return loginDoneMsg{err: err}
			}
		}
		sess, err := auth.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		list, err := onLogin(sess)
		if err != nil {
			return loginDoneMsg{err: fmt.Errorf("start session: %w", err)}
		}
		return loginDoneMsg{list: list}
	}
}

func logoutCmd(onLogout func() error) tea.Cmd {
	return func() tea.Msg {
		if onLogout == nil {
			return logoutDoneMsg{}
		}
		return logoutDoneMsg{err: onLogout()}
	}
}

func openCmd(open func(string) error, b model.Bookmark) tea.Cmd {
	return func() tea.Msg {
		return openDoneMsg{title: b.DisplayTitle(), err: open(b.LinkURL())}
	}
}
