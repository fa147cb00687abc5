package tui

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/nikbrunner/shelf/internal/model"
	"github.com/nikbrunner/shelf/internal/search"
	"github.com/nikbrunner/shelf/internal/state"
	"github.com/nikbrunner/shelf/internal/tui/layout"
)

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeAdd
	ModeConfirmDelete
	ModeGrab
	ModeLogin
	ModeHelp
)

// MessageType decides how the message line is styled.
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// SearchState holds the live search query and the selected tag chip.
type SearchState struct {
	Input textinput.Model
	Tag   string // active chip; search.AllTag disables the tag filter
}

// NewSearchState creates a new SearchState with initialized input.
func NewSearchState(cfg layout.LayoutConfig) SearchState {
	input := textinput.New()
	input.Placeholder = "Search titles, URLs, summaries..."
	input.Prompt = "/ "
	input.CharLimit = cfg.Input.SearchCharLimit
	input.Width = cfg.Input.SearchWidth

	return SearchState{
		Input: input,
		Tag:   search.AllTag,
	}
}

// Query returns the current search text.
func (s *SearchState) Query() string {
	return s.Input.Value()
}

// Reset clears the query. The tag chip is kept.
func (s *SearchState) Reset() {
	s.Input.Reset()
	s.Input.Blur()
}

// AddState holds the inputs of the add modal.
type AddState struct {
	URLInput  textinput.Model
	TagsInput textinput.Model
	Focus     int // 0 = URL, 1 = tags
}

// NewAddState creates a new AddState with initialized inputs.
func NewAddState(cfg layout.LayoutConfig) AddState {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://..."
	urlInput.CharLimit = cfg.Input.URLCharLimit
	urlInput.Width = cfg.Input.StandardWidth

	tagsInput := textinput.New()
	tagsInput.Placeholder = "tag1, tag2, tag3"
	tagsInput.CharLimit = cfg.Input.TagsCharLimit
	tagsInput.Width = cfg.Input.StandardWidth

	return AddState{
		URLInput:  urlInput,
		TagsInput: tagsInput,
	}
}

// Reset clears both inputs and focuses the URL.
func (s *AddState) Reset() {
	s.URLInput.Reset()
	s.TagsInput.Reset()
	s.Focus = 0
	s.URLInput.Focus()
	s.TagsInput.Blur()
}

// ToggleFocus moves focus between the URL and tags inputs.
func (s *AddState) ToggleFocus() {
	s.Focus = 1 - s.Focus
	if s.Focus == 0 {
		s.URLInput.Focus()
		s.TagsInput.Blur()
	} else {
		s.TagsInput.Focus()
		s.URLInput.Blur()
	}
}

// LoginState holds the inputs of the login screen.
type LoginState struct {
	EmailInput    textinput.Model
	PasswordInput textinput.Model
	Focus         int  // 0 = email, 1 = password
	Register      bool // create the account before logging in
	Pending       bool // a login request is running
}

// NewLoginState creates a new LoginState with the email input focused.
func NewLoginState(cfg layout.LayoutConfig) LoginState {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = cfg.Input.EmailCharLimit
	email.Width = cfg.Input.StandardWidth
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = cfg.Input.PasswordCharLimit
	password.Width = cfg.Input.StandardWidth

	return LoginState{
		EmailInput:    email,
		PasswordInput: password,
	}
}

// ToggleFocus moves focus between the email and password inputs.
func (s *LoginState) ToggleFocus() {
	s.Focus = 1 - s.Focus
	if s.Focus == 0 {
		s.EmailInput.Focus()
		s.PasswordInput.Blur()
	} else {
		s.PasswordInput.Focus()
		s.EmailInput.Blur()
	}
}

// GrabState tracks a bookmark picked up for reordering. From and To are
// indexes into the visible list as it was when the bookmark was grabbed.
type GrabState struct {
	ID   string
	From int
	To   int
}

// Active reports whether a bookmark is grabbed.
func (g GrabState) Active() bool {
	return g.ID != ""
}

// TargetID returns the bookmark the grabbed one would be dropped on.
func (g GrabState) TargetID(visible []model.Bookmark) string {
	if g.To < 0 || g.To >= len(visible) {
		return ""
	}
	return visible[g.To].ID
}

// Preview returns visible with the grabbed bookmark moved to its drop slot.
func (g GrabState) Preview(visible []model.Bookmark) []model.Bookmark {
	moved, ok := state.Move(visible, g.ID, g.TargetID(visible))
	if !ok {
		return visible
	}
	return moved
}
