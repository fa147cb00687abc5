// Package tui is the interactive bookmark list: tag chips, live search,
// add and delete, and grab-and-drop reordering on top of a state.List.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nikbrunner/shelf/internal/api"
	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/session"
	"github.com/nikbrunner/shelf/internal/state"
	"github.com/nikbrunner/shelf/internal/tui/layout"
)

// App is the main bubbletea model for the bookmark list.
type App struct {
	ctx      context.Context
	list     *state.List
	auth     Authenticator
	onLogin  func(*session.Session) (*state.List, error)
	onLogout func() error
	openURL  func(string) error
	policy   state.SummaryPolicy
	logger   zerolog.Logger

	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig
	help         help.Model
	spinner      spinner.Model
	summaries    *summaryRenderer

	// Subscription to the list. snap is re-read on every change.
	changes     <-chan struct{}
	unsubscribe func()
	snap        state.Snapshot

	mode          Mode
	cursor        int  // index into visibleItems
	lastKeyWasG   bool // for gg command
	confirmDelete bool
	search        SearchState
	add           AddState
	login         LoginState
	grab          GrabState
	deleteTarget  model.Bookmark

	messageText string
	messageType MessageType

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Context      context.Context                             // optional, cancels in-flight requests
	List         *state.List                                 // nil starts on the login screen
	Auth         Authenticator                               // used by the login screen
	OnLogin      func(*session.Session) (*state.List, error) // builds the list for a fresh session
	OnLogout     func() error                                // optional, forgets the saved session
	OpenURL      func(string) error                          // optional
	Policy       state.SummaryPolicy
	Confirm      bool // ask before deleting
	Keys         *KeyMap
	Styles       *Styles
	LayoutConfig *layout.LayoutConfig
	Logger       *zerolog.Logger
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	layoutCfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		layoutCfg = *params.LayoutConfig
	}

	logger := zerolog.Nop()
	if params.Logger != nil {
		logger = params.Logger.With().Str("component", "tui").Logger()
	}

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = styles.Busy

	app := App{
		ctx:           ctx,
		auth:          params.Auth,
		onLogin:       params.OnLogin,
		onLogout:      params.OnLogout,
		openURL:       params.OpenURL,
		policy:        params.Policy,
		logger:        logger,
		keys:          keys,
		styles:        styles,
		layoutConfig:  layoutCfg,
		help:          help.New(),
		spinner:       spin,
		summaries:     newSummaryRenderer(),
		mode:          ModeLogin,
		confirmDelete: params.Confirm,
		search:        NewSearchState(layoutCfg),
		add:           NewAddState(layoutCfg),
		login:         NewLoginState(layoutCfg),
		width:         80,
		height:        24,
	}

	if params.List != nil {
		app.attach(params.List)
	}
	return app
}

// attach makes list the collection the App shows and subscribes to it.
func (a *App) attach(list *state.List) {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.list = list
	a.changes, a.unsubscribe = watch(list)
	a.snap = list.Snapshot()
	a.mode = ModeNormal
	a.cursor = 0
}

// detach drops the list and returns to the login screen.
func (a *App) detach() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.list = nil
	a.changes, a.unsubscribe = nil, nil
	a.snap = state.Snapshot{}
	a.search = NewSearchState(a.layoutConfig)
	a.grab = GrabState{}
	a.login = NewLoginState(a.layoutConfig)
	a.mode = ModeLogin
	a.cursor = 0
}

// Close drops the subscription to the list.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// WithDimensions returns a copy of the App sized to width x height.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	a.help.Width = width
	return a
}

// List returns the list the App is attached to, or nil before login.
func (a App) List() *state.List {
	return a.list
}

// Mode returns the current input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the bookmarks currently shown, in display order.
func (a App) Items() []model.Bookmark {
	return a.visibleItems()
}

// Tag returns the active tag chip.
func (a App) Tag() string {
	return a.search.Tag
}

// Query returns the live search text.
func (a App) Query() string {
	return a.search.Query()
}

// Message returns the text of the message line.
func (a App) Message() string {
	return a.messageText
}

// ConfirmDelete reports whether deletes ask for confirmation.
func (a App) ConfirmDelete() bool {
	return a.confirmDelete
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if a.list == nil {
		return textinput.Blink
	}
	return tea.Batch(loadCmd(a.ctx, a.list), waitForChange(a.changes), a.spinner.Tick)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case changedMsg:
		a.refresh()
		return a, waitForChange(a.changes)

	case loadDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.setError(msg.err)
		}
		return a, nil

	case addDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.setMessage(MessageSuccess, "Added "+msg.bookmark.DisplayTitle())
		if i := model.IndexOf(a.visibleItems(), msg.bookmark.ID); i >= 0 {
			a.cursor = i
		}
		return a, nil

	case deleteDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.setMessage(MessageSuccess, "Deleted "+msg.title)
		return a, nil

	case reorderDoneMsg:
		a.refresh()
		if msg.err != nil {
			a.setMessage(MessageError, "Order not saved, reloaded from server. "+state.Describe(msg.err))
			return a, nil
		}
		a.setMessage(MessageSuccess, "Order updated")
		return a, nil

	case loginDoneMsg:
		a.login.Pending = false
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.login.PasswordInput.Reset()
		a.clearMessage()
		a.attach(msg.list)
		return a, tea.Batch(loadCmd(a.ctx, a.list), waitForChange(a.changes), a.spinner.Tick)

	case logoutDoneMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.logger.Info().Msg("logged out")
		a.detach()
		a.setMessage(MessageInfo, "Logged out")
		return a, textinput.Blink

	case openDoneMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		a.setMessage(MessageInfo, "Opened "+msg.title)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		switch a.mode {
		case ModeLogin:
			return a.handleLoginKey(msg)
		case ModeSearch:
			return a.handleSearchKey(msg)
		case ModeAdd:
			return a.handleAddKey(msg)
		case ModeConfirmDelete:
			return a.handleConfirmDeleteKey(msg)
		case ModeGrab:
			return a.handleGrabKey(msg)
		case ModeHelp:
			if key.Matches(msg, a.keys.Help, a.keys.Quit, a.keys.Dismiss) {
				a.mode = ModeNormal
			}
			return a, nil
		default:
			return a.handleNormalKey(msg)
		}
	}

	return a, nil
}

// refresh re-reads the list snapshot and keeps the cursor and any grab
// consistent with it.
func (a *App) refresh() {
	if a.list == nil {
		return
	}
	a.snap = a.list.Snapshot()

	if a.grab.Active() {
		base := a.baseItems()
		from := model.IndexOf(base, a.grab.ID)
		if from < 0 {
			a.grab = GrabState{}
			a.mode = ModeNormal
		} else {
			a.grab.From = from
			a.grab.To = min(a.grab.To, len(base)-1)
			a.cursor = a.grab.To
		}
	}
	a.clampCursor()
}

func (a App) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	items := a.visibleItems()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(items)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(items) > 0 {
			a.cursor = len(items) - 1
		}

	case key.Matches(msg, a.keys.NextTag):
		a.cycleTag(1)

	case key.Matches(msg, a.keys.PrevTag):
		a.cycleTag(-1)

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		cmd := a.search.Input.Focus()
		return a, cmd

	case key.Matches(msg, a.keys.Add):
		a.add.Reset()
		a.mode = ModeAdd
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Delete):
		b, ok := a.selected()
		if !ok {
			return a, nil
		}
		if a.confirmDelete {
			a.deleteTarget = b
			a.mode = ModeConfirmDelete
			return a, nil
		}
		return a, deleteCmd(a.ctx, a.list, b)

	case key.Matches(msg, a.keys.Grab):
		b, ok := a.selected()
		if !ok {
			return a, nil
		}
		a.grab = GrabState{ID: b.ID, From: a.cursor, To: a.cursor}
		a.mode = ModeGrab

	case key.Matches(msg, a.keys.Open):
		b, ok := a.selected()
		if !ok {
			return a, nil
		}
		if a.openURL == nil {
			a.setMessage(MessageWarning, "No browser available, press y to copy the URL")
			return a, nil
		}
		return a, openCmd(a.openURL, b)

	case key.Matches(msg, a.keys.YankURL):
		b, ok := a.selected()
		if !ok {
			return a, nil
		}
		if err := clipboardWriteAll(b.LinkURL()); err != nil {
			a.setError(fmt.Errorf("copy to clipboard: %w", err))
			return a, nil
		}
		a.setMessage(MessageSuccess, "Copied "+b.LinkURL())

	case key.Matches(msg, a.keys.Reload):
		return a, loadCmd(a.ctx, a.list)

	case key.Matches(msg, a.keys.ToggleConfirm):
		a.confirmDelete = !a.confirmDelete
		if a.confirmDelete {
			a.setMessage(MessageInfo, "Delete confirmation on")
		} else {
			a.setMessage(MessageInfo, "Delete confirmation off")
		}

	case key.Matches(msg, a.keys.Dismiss):
		if a.search.Query() != "" {
			a.search.Reset()
			a.cursor = 0
		}
		a.clearMessage()
		a.list.ClearError()
		a.refresh()

	case key.Matches(msg, a.keys.Logout):
		return a, logoutCmd(a.onLogout)

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp
	}

	return a, nil
}

// cycleTag moves the active tag chip by delta, wrapping around.
func (a *App) cycleTag(delta int) {
	chips := a.chips()
	i := max(slices.Index(chips, a.search.Tag), 0)
	i = (i + delta + len(chips)) % len(chips)
	a.search.Tag = chips[i]
	a.cursor = 0
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.search.Input.Blur()
		a.mode = ModeNormal
		return a, nil
	case tea.KeyEsc:
		a.search.Reset()
		a.mode = ModeNormal
		a.cursor = 0
		return a, nil
	}

	before := a.search.Query()
	var cmd tea.Cmd
	a.search.Input, cmd = a.search.Input.Update(msg)
	if a.search.Query() != before {
		a.cursor = 0
	}
	return a, cmd
}

func (a App) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = ModeNormal
		return a, nil

	case tea.KeyTab, tea.KeyShiftTab:
		a.add.ToggleFocus()
		return a, nil

	case tea.KeyEnter:
		rawURL := strings.TrimSpace(a.add.URLInput.Value())
		if rawURL == "" {
			a.setError(&api.ValidationError{Field: "url"})
			return a, nil
		}
		a.mode = ModeNormal
		a.setMessage(MessageInfo, "Adding "+rawURL+"...")
		return a, addCmd(a.ctx, a.list, rawURL, a.add.TagsInput.Value(), a.policy)
	}

	var cmd tea.Cmd
	if a.add.Focus == 0 {
		a.add.URLInput, cmd = a.add.URLInput.Update(msg)
	} else {
		a.add.TagsInput, cmd = a.add.TagsInput.Update(msg)
	}
	return a, cmd
}

func (a App) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		a.mode = ModeNormal
		return a, deleteCmd(a.ctx, a.list, a.deleteTarget)
	case "n", "esc", "q":
		a.mode = ModeNormal
		a.deleteTarget = model.Bookmark{}
	}
	return a, nil
}

func (a App) handleGrabKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(a.baseItems()) - 1

	switch {
	case msg.Type == tea.KeyEsc:
		a.cursor = a.grab.From
		a.grab = GrabState{}
		a.mode = ModeNormal
		return a, nil

	case msg.Type == tea.KeyEnter, key.Matches(msg, a.keys.Grab):
		return a.drop()

	case key.Matches(msg, a.keys.Down):
		a.grab.To = min(a.grab.To+1, last)

	case key.Matches(msg, a.keys.Up):
		a.grab.To = max(a.grab.To-1, 0)

	case key.Matches(msg, a.keys.Top):
		a.grab.To = 0

	case key.Matches(msg, a.keys.Bottom):
		a.grab.To = last
	}

	a.cursor = a.grab.To
	return a, nil
}

// drop ends a grab. Dropping on another bookmark shows the new order at
// once and hands the move to the list; dropping in place does nothing.
func (a App) drop() (tea.Model, tea.Cmd) {
	g := a.grab
	target := g.TargetID(a.baseItems())
	a.grab = GrabState{}
	a.mode = ModeNormal

	if target == "" || target == g.ID {
		a.cursor = g.From
		return a, nil
	}

	if moved, ok := state.Move(a.snap.Items, g.ID, target); ok {
		a.snap.Items = moved
		a.snap.Status.Saving = true
	}
	a.cursor = max(model.IndexOf(a.visibleItems(), g.ID), 0)
	a.logger.Debug().Str("id", g.ID).Str("target", target).Msg("drop")
	return a, reorderCmd(a.ctx, a.list, g.ID, target)
}

func (a App) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.login.Pending {
		return a, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return a, tea.Quit

	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		a.login.ToggleFocus()
		return a, nil

	case tea.KeyCtrlR:
		a.login.Register = !a.login.Register
		return a, nil

	case tea.KeyEnter:
		if a.login.Focus == 0 {
			a.login.ToggleFocus()
			return a, nil
		}
		if a.auth == nil || a.onLogin == nil {
			a.setError(errors.New("login is not available"))
			return a, nil
		}
		a.login.Pending = true
		if a.login.Register {
			a.setMessage(MessageInfo, "Creating account...")
		} else {
			a.setMessage(MessageInfo, "Signing in...")
		}
		return a, loginCmd(a.ctx, a.auth, a.onLogin,
			strings.TrimSpace(a.login.EmailInput.Value()), a.login.PasswordInput.Value(), a.login.Register)
	}

	var cmd tea.Cmd
	if a.login.Focus == 0 {
		a.login.EmailInput, cmd = a.login.EmailInput.Update(msg)
	} else {
		a.login.PasswordInput, cmd = a.login.PasswordInput.Update(msg)
	}
	return a, cmd
}

func (a *App) setMessage(t MessageType, text string) {
	a.messageType = t
	a.messageText = text
}

func (a *App) setError(err error) {
	a.logger.Debug().Err(err).Msg("shown to user")
	a.setMessage(MessageError, state.Describe(err))
}

func (a *App) clearMessage() {
	a.messageText = ""
	a.messageType = MessageInfo
}
