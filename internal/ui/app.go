package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planpilot/internal/api"
	"planpilot/internal/session"
	"planpilot/internal/ui/styles"
	"planpilot/internal/ui/views"
)

// Currently active tab
type Tab int

const (
	TabAssistant Tab = iota
	TabTasks
	TabSchedule
)

var tabTitles = []string{"Assistant", "Tasks", "Schedule"}

type App struct {
	client *api.Client
	sess   *session.Store
	styles *styles.Styles

	authed   bool
	tab      Tab
	auth     *views.AuthView
	chat     *views.ChatView
	tasks    *views.TasksView
	schedule *views.ScheduleView

	width  int
	height int
}

// NewApp creates the application. authed says whether a persisted session
// was restored before the program started.
func NewApp(client *api.Client, sess *session.Store, authed bool) *App {
	return &App{
		client:   client,
		sess:     sess,
		styles:   styles.NewStyles(),
		authed:   authed,
		auth:     views.NewAuthView(sess),
		chat:     views.NewChatView(client),
		tasks:    views.NewTasksView(client),
		schedule: views.NewScheduleView(client),
	}
}

func (a *App) Init() tea.Cmd {
	if a.authed {
		a.tab = TabAssistant
		return a.chat.Init()
	}
	return a.auth.Init()
}

// switchTab activates a tab, refreshing its data.
func (a *App) switchTab(tab Tab) tea.Cmd {
	a.tab = tab
	switch tab {
	case TabTasks:
		return a.tasks.Init()
	case TabSchedule:
		return a.schedule.Init()
	default:
		return a.chat.Init()
	}
}

// logout returns to the login screen immediately; the server notification
// runs in the background and its outcome is ignored.
func (a *App) logout() tea.Cmd {
	a.authed = false
	sess := a.sess
	return tea.Batch(a.auth.Init(), func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sess.Logout(ctx)
		return nil
	})
}

// inputActive reports whether the active view has a focused text input, in
// which case global hotkeys must not fire.
func (a *App) inputActive() bool {
	if !a.authed {
		return a.auth.InputActive()
	}
	switch a.tab {
	case TabTasks:
		return a.tasks.InputActive()
	case TabSchedule:
		return a.schedule.InputActive()
	default:
		return a.chat.InputActive()
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Reserve the header line for the tab bar.
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-2, 1)}
		a.auth.Update(inner)
		a.chat.Update(inner)
		a.tasks.Update(inner)
		a.schedule.Update(inner)
		return a, nil

	case views.Authenticated:
		a.authed = true
		return a, a.switchTab(TabAssistant)

	case views.SessionExpired:
		cmd := a.logout()
		a.auth.SetNotice("Session expired — sign in again.")
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.authed {
			if msg.String() == "ctrl+l" {
				return a, a.logout()
			}
			if !a.inputActive() {
				switch msg.String() {
				case "1":
					return a, a.switchTab(TabAssistant)
				case "2":
					return a, a.switchTab(TabTasks)
				case "3":
					return a, a.switchTab(TabSchedule)
				case "q":
					return a, tea.Quit
				}
			}
		}
	}

	var cmd tea.Cmd
	if !a.authed {
		_, cmd = a.auth.Update(msg)
		return a, cmd
	}
	switch a.tab {
	case TabTasks:
		_, cmd = a.tasks.Update(msg)
	case TabSchedule:
		_, cmd = a.schedule.Update(msg)
	default:
		_, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	if !a.authed {
		return a.auth.View()
	}

	var body string
	switch a.tab {
	case TabTasks:
		body = a.tasks.View()
	case TabSchedule:
		body = a.schedule.View()
	default:
		body = a.chat.View()
	}
	return a.renderHeader() + "\n" + body
}

func (a *App) renderHeader() string {
	s := a.styles

	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		label := fmt.Sprintf("%d %s", i+1, title)
		if Tab(i) == a.tab {
			tabs[i] = s.TabActive.Render(label)
		} else {
			tabs[i] = s.Tab.Render(label)
		}
	}

	who := ""
	if user := a.sess.User(); user != nil {
		who = s.TitleMuted.Render(user.Username + " · ctrl+l logout")
	}

	left := s.Title.Render("planpilot") + lipgloss.JoinHorizontal(lipgloss.Center, tabs...)
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(who)-1, 1)
	return left + lipgloss.NewStyle().Width(gap).Render("") + who
}
