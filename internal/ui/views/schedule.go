package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planpilot/internal/api"
	"planpilot/internal/models"
	"planpilot/internal/ui/keys"
	"planpilot/internal/ui/styles"
)

type previewLoadedMsg struct {
	preview models.SchedulePreview
	err     error
}

// ScheduleView renders the backend's 7-day preview for the current
// not-done tasks, plus the quick wins it could not place.
type ScheduleView struct {
	client *api.Client
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	loading bool
	spin    spinner.Model
	loaded  bool
	preview models.SchedulePreview
	errMsg  string
}

// NewScheduleView creates the schedule screen.
func NewScheduleView(client *api.Client) *ScheduleView {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return &ScheduleView{
		client: client,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		spin:   spin,
	}
}

// Init fetches a fresh preview.
func (v *ScheduleView) Init() tea.Cmd {
	v.loading = true
	v.errMsg = ""
	return tea.Batch(v.spin.Tick, v.load)
}

// InputActive reports whether a text input currently has focus.
func (v *ScheduleView) InputActive() bool { return false }

// load builds the candidate list from the current tasks and asks the
// backend to lay it out.
func (v *ScheduleView) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	tasks, err := v.client.ListTasks(ctx)
	if err != nil {
		return previewLoadedMsg{err: err}
	}

	var candidates []api.ScheduleCandidate
	for _, t := range tasks {
		if t.Done() {
			continue
		}
		candidates = append(candidates, api.ScheduleCandidate{
			Title:            t.Title,
			EstimatedMinutes: t.EstimatedMinutes,
			Priority:         t.Priority,
			DueAt:            t.DueAt,
		})
	}

	preview, err := v.client.SchedulePreview(ctx, candidates)
	return previewLoadedMsg{preview: preview, err: err}
}

// Update handles messages
func (v *ScheduleView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd

	case previewLoadedMsg:
		v.loading = false
		if msg.err != nil {
			if cmd := expiredSession(msg.err); cmd != nil {
				return v, cmd
			}
			v.errMsg = msg.err.Error()
			return v, nil
		}
		v.errMsg = ""
		v.loaded = true
		v.preview = msg.preview
		return v, nil

	case tea.KeyMsg:
		if key.Matches(msg, v.keys.Refresh) && !v.loading {
			return v, v.Init()
		}
	}
	return v, nil
}

// itemTime turns the backend's naive ISO timestamps into HH:MM labels.
func itemTime(iso string) string {
	if t, err := time.Parse("2006-01-02T15:04:05", iso); err == nil {
		return t.Format("15:04")
	}
	return iso
}

func dayLabel(date string) string {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("Mon Jan 2")
	}
	return date
}

// View renders the view
func (v *ScheduleView) View() string {
	s := v.styles

	if v.loading {
		return styles.CenterView(v.spin.View()+s.TitleMuted.Render(" computing schedule..."), v.width, v.height)
	}
	if v.errMsg != "" {
		content := s.ErrorText.Render(v.errMsg) + "\n" + v.renderHelp()
		return styles.CenterView(content, v.width, v.height)
	}
	if !v.loaded {
		return styles.CenterView(s.TitleMuted.Render("No schedule yet."), v.width, v.height)
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("Next 7 Days") + "\n\n")

	for _, day := range v.preview.Week {
		b.WriteString(s.TitleMuted.Render(dayLabel(day.Date)) + "\n")
		if len(day.Items) == 0 {
			b.WriteString(s.ListItem.Render("—") + "\n")
			continue
		}
		for _, item := range day.Items {
			line := fmt.Sprintf("%s–%s  %s (%dm) %s",
				itemTime(item.Start),
				itemTime(item.End),
				item.Title,
				item.EstimatedMinutes,
				s.PriorityStyle(item.Priority).Render("["+item.Priority+"]"),
			)
			b.WriteString(s.ListItem.Render(line) + "\n")
		}
	}

	if len(v.preview.QuickWins) > 0 {
		b.WriteString("\n" + s.Title.Render("Quick Wins") + "\n")
		b.WriteString(s.TitleMuted.Render("Didn't fit the week — grab one in a spare moment.") + "\n")
		for _, win := range v.preview.QuickWins {
			line := fmt.Sprintf("• %s (%dm) %s",
				win.Title,
				win.EstimatedMinutes,
				v.styles.PriorityStyle(win.Priority).Render("["+win.Priority+"]"),
			)
			b.WriteString(s.ListItem.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + v.renderHelp())
	return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(b.String()), v.width, v.height)
}

func (v *ScheduleView) renderHelp() string {
	s := v.styles
	return s.Help.Render(fmt.Sprintf("%s refresh", s.HelpKey.Render("r")))
}
