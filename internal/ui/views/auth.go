package views

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planpilot/internal/api"
	"planpilot/internal/models"
	"planpilot/internal/session"
	"planpilot/internal/ui/keys"
	"planpilot/internal/ui/styles"
)

// requestTimeout bounds every network call issued from the UI.
const requestTimeout = 30 * time.Second

// Authenticated signals a completed login or registration.
type Authenticated struct {
	User models.User
}

// SessionExpired signals that the backend rejected the stored token; the
// app clears the session and returns to the login screen.
type SessionExpired struct{}

// expiredSession converts a rejected-token error into a SessionExpired
// command. It returns nil for every other error, which callers surface in
// their own status line.
func expiredSession(err error) tea.Cmd {
	if !api.IsAuthError(err) {
		return nil
	}
	return func() tea.Msg { return SessionExpired{} }
}

type authResultMsg struct {
	user models.User
	err  error
}

// Auth field order (login mode skips email/name fields).
const (
	authFieldUsername = iota
	authFieldEmail
	authFieldPassword
	authFieldFirstName
	authFieldLastName
	authFieldSubmit
	authFieldSwitch
	authFieldCount
)

// AuthView is the login/register screen.
type AuthView struct {
	sess   *session.Store
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	registering bool
	username    textinput.Model
	email       textinput.Model
	password    textinput.Model
	firstName   textinput.Model
	lastName    textinput.Model
	focusIdx    int

	inFlight bool
	spin     spinner.Model
	errMsg   string
	notice   string
}

// NewAuthView creates the login screen.
func NewAuthView(sess *session.Store) *AuthView {
	s := styles.NewStyles()

	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 150

	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	firstName := textinput.New()
	firstName.Placeholder = "First name (optional)"
	firstName.CharLimit = 150

	lastName := textinput.New()
	lastName.Placeholder = "Last name (optional)"
	lastName.CharLimit = 150

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &AuthView{
		sess:      sess,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		username:  username,
		email:     email,
		password:  password,
		firstName: firstName,
		lastName:  lastName,
		spin:      spin,
	}
}

// Init focuses the username field.
func (v *AuthView) Init() tea.Cmd {
	v.registering = false
	v.inFlight = false
	v.errMsg = ""
	v.notice = ""
	v.password.Reset()
	v.focusIdx = authFieldUsername
	v.updateFocus()
	return textinput.Blink
}

// SetNotice shows an informational line under the form, e.g. why the user
// is back at the login screen.
func (v *AuthView) SetNotice(text string) { v.notice = text }

// InputActive reports whether a text input currently has focus.
func (v *AuthView) InputActive() bool { return true }

// fields returns the focusable field ids for the current mode, in order.
func (v *AuthView) fields() []int {
	if v.registering {
		return []int{authFieldUsername, authFieldEmail, authFieldPassword, authFieldFirstName, authFieldLastName, authFieldSubmit, authFieldSwitch}
	}
	return []int{authFieldUsername, authFieldPassword, authFieldSubmit, authFieldSwitch}
}

func (v *AuthView) cycleFocus(dir int) {
	fields := v.fields()
	current := 0
	for i, f := range fields {
		if f == v.focusIdx {
			current = i
			break
		}
	}
	v.focusIdx = fields[(current+dir+len(fields))%len(fields)]
	v.updateFocus()
}

func (v *AuthView) updateFocus() {
	v.username.Blur()
	v.email.Blur()
	v.password.Blur()
	v.firstName.Blur()
	v.lastName.Blur()

	switch v.focusIdx {
	case authFieldUsername:
		v.username.Focus()
	case authFieldEmail:
		v.email.Focus()
	case authFieldPassword:
		v.password.Focus()
	case authFieldFirstName:
		v.firstName.Focus()
	case authFieldLastName:
		v.lastName.Focus()
	}
}

// Update handles messages
func (v *AuthView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.inFlight {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd

	case authResultMsg:
		v.inFlight = false
		if msg.err != nil {
			v.errMsg = msg.err.Error()
			return v, nil
		}
		user := msg.user
		return v, func() tea.Msg { return Authenticated{User: user} }

	case tea.KeyMsg:
		// One submission at a time; ignore everything but quit while the
		// request is in flight.
		if v.inFlight {
			if msg.String() == "ctrl+c" {
				return v, tea.Quit
			}
			return v, nil
		}
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *AuthView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case msg.String() == "down":
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "up":
		v.cycleFocus(-1)
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.submit()

	case key.Matches(msg, v.keys.Enter):
		switch v.focusIdx {
		case authFieldSubmit:
			return v, v.submit()
		case authFieldSwitch:
			v.registering = !v.registering
			v.errMsg = ""
			v.focusIdx = authFieldUsername
			v.updateFocus()
			return v, textinput.Blink
		default:
			v.cycleFocus(1)
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case authFieldUsername:
		v.username, cmd = v.username.Update(msg)
	case authFieldEmail:
		v.email, cmd = v.email.Update(msg)
	case authFieldPassword:
		v.password, cmd = v.password.Update(msg)
	case authFieldFirstName:
		v.firstName, cmd = v.firstName.Update(msg)
	case authFieldLastName:
		v.lastName, cmd = v.lastName.Update(msg)
	}
	return v, cmd
}

func (v *AuthView) submit() tea.Cmd {
	username := strings.TrimSpace(v.username.Value())
	password := v.password.Value()
	if username == "" || password == "" {
		v.errMsg = "username and password are required"
		return nil
	}

	v.inFlight = true
	v.errMsg = ""

	registering := v.registering
	reg := api.Registration{
		Username:  username,
		Email:     strings.TrimSpace(v.email.Value()),
		Password:  password,
		FirstName: strings.TrimSpace(v.firstName.Value()),
		LastName:  strings.TrimSpace(v.lastName.Value()),
	}

	request := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var user models.User
		var err error
		if registering {
			user, err = v.sess.Register(ctx, reg)
		} else {
			user, err = v.sess.Login(ctx, username, password)
		}
		return authResultMsg{user: user, err: err}
	}
	return tea.Batch(v.spin.Tick, request)
}

// View renders the view
func (v *AuthView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 44)

	style := func(field int) lipgloss.Style {
		if v.focusIdx == field {
			return s.InputFocused
		}
		return s.Input
	}

	heading := "Sign In"
	switchLabel := " Need an account? Register "
	if v.registering {
		heading = "Create Account"
		switchLabel = " Have an account? Sign in "
	}

	rows := []string{
		s.Title.Render("planpilot"),
		s.TitleMuted.Render(heading),
		"",
		style(authFieldUsername).Width(inputWidth).Render(v.username.View()),
	}
	if v.registering {
		rows = append(rows, style(authFieldEmail).Width(inputWidth).Render(v.email.View()))
	}
	rows = append(rows, style(authFieldPassword).Width(inputWidth).Render(v.password.View()))
	if v.registering {
		rows = append(rows,
			style(authFieldFirstName).Width(inputWidth).Render(v.firstName.View()),
			style(authFieldLastName).Width(inputWidth).Render(v.lastName.View()),
		)
	}

	submitStyle := s.Button
	if v.focusIdx == authFieldSubmit {
		submitStyle = s.ButtonFocused
	}
	switchStyle := s.Button
	if v.focusIdx == authFieldSwitch {
		switchStyle = s.ButtonFocused
	}

	rows = append(rows,
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			submitStyle.Render(" Submit "),
			"  ",
			switchStyle.Render(switchLabel),
		),
	)

	if v.inFlight {
		rows = append(rows, "", v.spin.View()+s.TitleMuted.Render(" contacting server..."))
	} else if v.errMsg != "" {
		rows = append(rows, "", s.ErrorText.Render(v.errMsg))
	} else if v.notice != "" {
		rows = append(rows, "", s.Notice.Render(v.notice))
	}

	rows = append(rows, "", s.TitleMuted.Render("Tab: next • ↵: select • Ctrl+S: submit"))

	form := lipgloss.JoinVertical(lipgloss.Center, rows...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
