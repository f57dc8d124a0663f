package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planpilot/internal/api"
	"planpilot/internal/dates"
	"planpilot/internal/models"
	"planpilot/internal/ui/keys"
	"planpilot/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

var priorities = []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}

func nextPriority(current string, dir int) string {
	for i, p := range priorities {
		if p == current {
			return priorities[(i+dir+len(priorities))%len(priorities)]
		}
	}
	return models.PriorityMedium
}

// Form field order
const (
	formFieldTitle = iota
	formFieldNotes
	formFieldDue
	formFieldPriority
	formFieldMinutes
	formFieldSave
	formFieldCount
)

type formAction int

const (
	formNone formAction = iota
	formSave
	formCancel
)

// taskForm is the shared edit form for suggestions and tasks: title, notes,
// free-text due date, priority selector, estimated minutes. The due field is
// resolved on every keystroke; when the text stops parsing, the last
// successfully resolved timestamp is kept rather than cleared, since the
// user is usually mid-edit.
type taskForm struct {
	styles *styles.Styles
	keys   keys.KeyMap

	heading  string
	title    textinput.Model
	notes    textinput.Model
	due      textinput.Model
	minutes  textinput.Model
	priority string
	resolved *time.Time
	focusIdx int
}

func newTaskForm(s *styles.Styles, km keys.KeyMap) *taskForm {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 255

	notes := textinput.New()
	notes.Placeholder = "Notes (optional)"
	notes.CharLimit = 1000

	due := textinput.New()
	due.Placeholder = `Due, e.g. "next Friday 3pm" (optional)`
	due.CharLimit = 100

	minutes := textinput.New()
	minutes.Placeholder = "Estimated minutes (optional)"
	minutes.CharLimit = 4

	return &taskForm{
		styles:   s,
		keys:     km,
		title:    title,
		notes:    notes,
		due:      due,
		minutes:  minutes,
		priority: models.PriorityMedium,
	}
}

// open seeds the form and focuses the title field.
func (f *taskForm) open(heading, title string, notes *string, dueText string, resolved *time.Time, priority string, minutes *int) {
	f.heading = heading
	f.title.SetValue(title)
	if notes != nil {
		f.notes.SetValue(*notes)
	} else {
		f.notes.Reset()
	}
	f.due.SetValue(dueText)
	f.resolved = resolved
	if priority == "" {
		priority = models.PriorityMedium
	}
	f.priority = priority
	if minutes != nil {
		f.minutes.SetValue(strconv.Itoa(*minutes))
	} else {
		f.minutes.Reset()
	}
	f.focusIdx = formFieldTitle
	f.updateFocus()
}

// values returns the edited fields in API shape.
func (f *taskForm) values() (title string, notes *string, dueText string, resolved *time.Time, priority string, minutes *int) {
	title = strings.TrimSpace(f.title.Value())
	if n := strings.TrimSpace(f.notes.Value()); n != "" {
		notes = &n
	}
	dueText = strings.TrimSpace(f.due.Value())
	resolved = f.resolved
	priority = f.priority
	if m, err := strconv.Atoi(strings.TrimSpace(f.minutes.Value())); err == nil && m > 0 {
		minutes = &m
	}
	return
}

// patch builds a PATCH body from the current form state. An emptied input
// clears the server value; clearing the due text also drops the last
// resolved timestamp.
func (f *taskForm) patch() api.TaskPatch {
	title, notes, dueText, resolved, priority, minutes := f.values()
	p := api.TaskPatch{
		Title:    &title,
		Priority: &priority,
	}
	if notes != nil {
		p.Notes = notes
	} else {
		p.ClearNotes = true
	}
	if dueText == "" {
		p.ClearDueAt = true
	} else {
		p.DueAt = resolved
	}
	if minutes != nil {
		p.EstimatedMinutes = minutes
	} else {
		p.ClearEstimate = true
	}
	return p
}

func (f *taskForm) update(msg tea.KeyMsg) (formAction, tea.Cmd) {
	switch {
	case key.Matches(msg, f.keys.Back):
		return formCancel, nil

	case msg.String() == "ctrl+s":
		return formSave, nil

	case key.Matches(msg, f.keys.Tab):
		f.focusIdx = (f.focusIdx + 1) % formFieldCount
		f.updateFocus()
		return formNone, nil

	case msg.String() == "shift+tab":
		f.focusIdx = (f.focusIdx + formFieldCount - 1) % formFieldCount
		f.updateFocus()
		return formNone, nil

	case key.Matches(msg, f.keys.Enter):
		if f.focusIdx == formFieldSave {
			return formSave, nil
		}
		f.focusIdx++
		f.updateFocus()
		return formNone, nil

	case msg.String() == "left", msg.String() == "right", msg.String() == " ":
		if f.focusIdx == formFieldPriority {
			dir := 1
			if msg.String() == "left" {
				dir = -1
			}
			f.priority = nextPriority(f.priority, dir)
			return formNone, nil
		}
	}

	var cmd tea.Cmd
	switch f.focusIdx {
	case formFieldTitle:
		f.title, cmd = f.title.Update(msg)
	case formFieldNotes:
		f.notes, cmd = f.notes.Update(msg)
	case formFieldDue:
		f.due, cmd = f.due.Update(msg)
		// Live resolution; an unparseable value keeps the previous result,
		// but an emptied field drops it.
		if strings.TrimSpace(f.due.Value()) == "" {
			f.resolved = nil
		} else if t, ok := dates.Resolve(f.due.Value(), time.Now()); ok {
			f.resolved = &t
		}
	case formFieldMinutes:
		f.minutes, cmd = f.minutes.Update(msg)
	}
	return formNone, cmd
}

func (f *taskForm) updateFocus() {
	f.title.Blur()
	f.notes.Blur()
	f.due.Blur()
	f.minutes.Blur()

	switch f.focusIdx {
	case formFieldTitle:
		f.title.Focus()
	case formFieldNotes:
		f.notes.Focus()
	case formFieldDue:
		f.due.Focus()
	case formFieldMinutes:
		f.minutes.Focus()
	}
}

func (f *taskForm) view(width, height int) string {
	s := f.styles
	contentWidth := styles.ContentWidth(width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	style := func(field int) lipgloss.Style {
		if f.focusIdx == field {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if f.focusIdx == formFieldSave {
		btnStyle = s.ButtonFocused
	}

	// Resolved preview sits under the due input so the user sees what the
	// text currently means.
	resolvedLine := s.TitleMuted.Render("unresolved")
	if f.resolved != nil {
		resolvedLine = s.TitleMuted.Render("resolves to " + f.resolved.Format("Mon Jan 2 2006 15:04"))
	}

	priorityStyle := s.Input
	if f.focusIdx == formFieldPriority {
		priorityStyle = s.InputFocused
	}
	priorityLine := priorityStyle.Width(20).Render(
		s.PriorityStyle(f.priority).Render(f.priority) + s.TitleMuted.Render("  ←/→ change"),
	)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(f.heading),
		"",
		"Title:",
		style(formFieldTitle).Width(inputWidth).Render(f.title.View()),
		"",
		"Notes:",
		style(formFieldNotes).Width(inputWidth).Render(f.notes.View()),
		"",
		"Due:",
		style(formFieldDue).Width(inputWidth).Render(f.due.View()),
		resolvedLine,
		"",
		"Priority:",
		priorityLine,
		"",
		"Estimate (minutes):",
		style(formFieldMinutes).Width(14).Render(f.minutes.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, width, height)
}

// formatDue renders a task due timestamp for list rows.
func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 2 15:04")
}

// minutesLabel renders an estimate for list rows.
func minutesLabel(m *int) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%dm", *m)
}
