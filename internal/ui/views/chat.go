package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"planpilot/internal/api"
	"planpilot/internal/models"
	"planpilot/internal/planner"
	"planpilot/internal/ui/keys"
	"planpilot/internal/ui/styles"
)

// ChatFocus represents which part of the assistant screen has focus
type ChatFocus int

const (
	FocusMessage ChatFocus = iota
	FocusPlanTitle
	FocusSuggestions
)

type chatLine struct {
	fromUser bool
	text     string
}

type generateResultMsg struct {
	planTitle   string
	suggestions []models.Suggestion
	err         error
}

type acceptResultMsg struct {
	result planner.Result
	err    error
}

// ChatView is the assistant screen: a message box, the conversation so far,
// and the current suggestion batch with inline editing and acceptance.
type ChatView struct {
	client *api.Client
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	focus      ChatFocus
	message    textinput.Model
	transcript []chatLine

	planTitle   textinput.Model
	suggestions []models.Suggestion
	cursor      int

	editing bool
	editIdx int
	form    *taskForm

	generating bool
	accepting  bool
	spin       spinner.Model
	errMsg     string
	notice     string
}

// NewChatView creates the assistant screen.
func NewChatView(client *api.Client) *ChatView {
	s := styles.NewStyles()
	km := keys.DefaultKeyMap()

	message := textinput.New()
	message.Placeholder = "Describe what you need to plan..."
	message.CharLimit = 500

	planTitle := textinput.New()
	planTitle.Placeholder = "Plan title"
	planTitle.CharLimit = 200

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &ChatView{
		client:    client,
		styles:    s,
		keys:      km,
		message:   message,
		planTitle: planTitle,
		form:      newTaskForm(s, km),
		spin:      spin,
	}
}

// Init focuses the message box.
func (v *ChatView) Init() tea.Cmd {
	v.focus = FocusMessage
	v.message.Focus()
	return textinput.Blink
}

// InputActive reports whether a text input currently has focus.
func (v *ChatView) InputActive() bool {
	return v.editing || v.focus == FocusMessage || v.focus == FocusPlanTitle
}

// Update handles messages
func (v *ChatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.generating && !v.accepting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd

	case generateResultMsg:
		// Requests are not sequenced: whichever response lands last wins,
		// even if an earlier request's reply arrives after a later one's.
		v.generating = false
		if msg.err != nil {
			if cmd := expiredSession(msg.err); cmd != nil {
				return v, cmd
			}
			v.errMsg = msg.err.Error()
			return v, nil
		}
		v.planTitle.SetValue(msg.planTitle)
		v.suggestions = msg.suggestions
		v.cursor = 0
		v.transcript = append(v.transcript, chatLine{
			text: fmt.Sprintf("Suggested %d tasks for %q. Review and accept below.", len(msg.suggestions), msg.planTitle),
		})
		v.focusSuggestions()
		return v, nil

	case acceptResultMsg:
		v.accepting = false
		if errors.Is(msg.err, planner.ErrNothingSelected) {
			v.notice = "Nothing selected — mark suggestions with space first."
			return v, nil
		}
		if msg.err != nil {
			if cmd := expiredSession(msg.err); cmd != nil {
				return v, cmd
			}
			// Tasks created before the failure stay created.
			v.errMsg = msg.err.Error()
			return v, nil
		}
		v.notice = fmt.Sprintf("Created %d tasks in plan %q.", len(msg.result.Created), msg.result.Plan.Title)
		v.suggestions = nil
		v.focusMessage()
		return v, nil

	case tea.KeyMsg:
		if v.editing {
			return v.updateEditing(msg)
		}
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *ChatView) focusMessage() {
	v.focus = FocusMessage
	v.planTitle.Blur()
	v.message.Focus()
}

func (v *ChatView) focusSuggestions() {
	v.focus = FocusSuggestions
	v.message.Blur()
	v.planTitle.Blur()
}

func (v *ChatView) cycleFocus() tea.Cmd {
	if len(v.suggestions) == 0 {
		return nil
	}
	switch v.focus {
	case FocusMessage:
		v.focus = FocusPlanTitle
		v.message.Blur()
		v.planTitle.Focus()
		return textinput.Blink
	case FocusPlanTitle:
		v.focusSuggestions()
		return nil
	default:
		v.focusMessage()
		return textinput.Blink
	}
}

func (v *ChatView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, v.keys.Tab) {
		return v, v.cycleFocus()
	}

	switch v.focus {
	case FocusMessage:
		switch {
		case key.Matches(msg, v.keys.Enter):
			return v, v.sendMessage()
		default:
			var cmd tea.Cmd
			v.message, cmd = v.message.Update(msg)
			return v, cmd
		}

	case FocusPlanTitle:
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.focusSuggestions()
			return v, nil
		default:
			var cmd tea.Cmd
			v.planTitle, cmd = v.planTitle.Update(msg)
			return v, cmd
		}

	case FocusSuggestions:
		return v.updateSuggestions(msg)
	}
	return v, nil
}

func (v *ChatView) updateSuggestions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.focusMessage()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.suggestions)-1 {
			v.cursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if len(v.suggestions) > 0 {
			v.suggestions[v.cursor].Include = !v.suggestions[v.cursor].Include
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if len(v.suggestions) > 0 {
			v.suggestions = append(v.suggestions[:v.cursor], v.suggestions[v.cursor+1:]...)
			if v.cursor >= len(v.suggestions) {
				v.cursor = max(0, len(v.suggestions)-1)
			}
			if len(v.suggestions) == 0 {
				v.focusMessage()
				return v, textinput.Blink
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if len(v.suggestions) > 0 {
			v.openEditor(v.cursor)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Accept):
		return v, v.accept()
	}
	return v, nil
}

func (v *ChatView) openEditor(idx int) {
	s := v.suggestions[idx]
	v.editing = true
	v.editIdx = idx
	v.form.open("Edit Suggestion", s.Title, s.Notes, s.DueText, s.ResolvedDue, s.Priority, s.EstimatedMinutes)
}

func (v *ChatView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := v.form.update(msg)
	switch action {
	case formCancel:
		v.editing = false
		return v, nil
	case formSave:
		title, notes, dueText, resolved, priority, minutes := v.form.values()
		if title == "" {
			return v, nil
		}
		s := &v.suggestions[v.editIdx]
		s.Title = title
		s.Notes = notes
		s.DueText = dueText
		s.ResolvedDue = resolved
		s.Priority = priority
		s.EstimatedMinutes = minutes
		v.editing = false
		return v, nil
	}
	return v, cmd
}

func (v *ChatView) sendMessage() tea.Cmd {
	text := strings.TrimSpace(v.message.Value())
	if text == "" || v.generating {
		return nil
	}

	v.transcript = append(v.transcript, chatLine{fromUser: true, text: text})
	v.message.Reset()
	v.generating = true
	v.errMsg = ""
	v.notice = ""

	request := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		planTitle, suggestions, err := v.client.GenerateSuggestions(ctx, text)
		return generateResultMsg{planTitle: planTitle, suggestions: suggestions, err: err}
	}
	return tea.Batch(v.spin.Tick, request)
}

func (v *ChatView) accept() tea.Cmd {
	if v.accepting || len(v.suggestions) == 0 {
		return nil
	}
	title := strings.TrimSpace(v.planTitle.Value())
	if title == "" {
		v.errMsg = "plan title is required"
		return nil
	}

	v.accepting = true
	v.errMsg = ""
	v.notice = ""

	batch := make([]models.Suggestion, len(v.suggestions))
	copy(batch, v.suggestions)

	request := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := planner.Accept(ctx, v.client, title, batch)
		return acceptResultMsg{result: result, err: err}
	}
	return tea.Batch(v.spin.Tick, request)
}

// View renders the view
func (v *ChatView) View() string {
	if v.editing {
		return v.form.view(v.width, v.height)
	}

	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(contentWidth-8, 20, 80)

	var b strings.Builder

	// Transcript: keep the last few exchanges visible.
	lines := v.transcript
	if len(lines) > 6 {
		lines = lines[len(lines)-6:]
	}
	for _, line := range lines {
		style := s.ChatAssistant
		prefix := "assistant"
		if line.fromUser {
			style = s.ChatUser
			prefix = "you"
		}
		bubble := style.Width(clamp(textWidth, 20, 70)).Render(line.text)
		b.WriteString(s.TitleMuted.Render(prefix) + "\n" + bubble + "\n")
	}
	if len(v.transcript) == 0 {
		b.WriteString(s.TitleMuted.Render("Describe an intention (\"plan my sister's wedding\") and get suggested tasks.") + "\n")
	}

	// Suggestion batch.
	if len(v.suggestions) > 0 {
		b.WriteString("\n")
		planStyle := s.Input
		if v.focus == FocusPlanTitle {
			planStyle = s.InputFocused
		}
		b.WriteString("Plan: " + planStyle.Width(clamp(contentWidth-12, 20, 40)).Render(v.planTitle.View()) + "\n")

		for i, sug := range v.suggestions {
			b.WriteString(v.renderSuggestion(sug, i == v.cursor && v.focus == FocusSuggestions) + "\n")
		}
	}

	// Message input.
	b.WriteString("\n")
	msgStyle := s.Input
	if v.focus == FocusMessage {
		msgStyle = s.InputFocused
	}
	b.WriteString(msgStyle.Width(clamp(contentWidth-4, 24, 80)).Render(v.message.View()) + "\n")

	// Status line.
	switch {
	case v.generating:
		b.WriteString(v.spin.View() + s.TitleMuted.Render(" generating suggestions..."))
	case v.accepting:
		b.WriteString(v.spin.View() + s.TitleMuted.Render(" creating tasks..."))
	case v.errMsg != "":
		b.WriteString(s.ErrorText.Render(v.errMsg))
	case v.notice != "":
		b.WriteString(s.Notice.Render(v.notice))
	}

	b.WriteString("\n" + v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *ChatView) renderSuggestion(sug models.Suggestion, selected bool) string {
	s := v.styles

	checkbox := "[ ]"
	if sug.Include {
		checkbox = "[x]"
	}

	parts := []string{checkbox + " " + sug.Title}
	if due := formatDue(sug.ResolvedDue); due != "" {
		parts = append(parts, "due "+due)
	}
	if m := minutesLabel(sug.EstimatedMinutes); m != "" {
		parts = append(parts, m)
	}
	line := strings.Join(parts, " · ") + " " + s.PriorityStyle(sug.Priority).Render("["+sug.Priority+"]")

	if selected {
		return s.ListSelected.Render(line)
	}
	return s.ListItem.Render(line)
}

func (v *ChatView) renderHelp() string {
	s := v.styles
	if v.focus == FocusSuggestions {
		return s.Help.Render(
			fmt.Sprintf("%s include • %s edit • %s drop • %s accept batch • %s fields • %s message",
				s.HelpKey.Render("space"),
				s.HelpKey.Render("e"),
				s.HelpKey.Render("d"),
				s.HelpKey.Render("a"),
				s.HelpKey.Render("tab"),
				s.HelpKey.Render("esc"),
			),
		)
	}
	return s.Help.Render(
		fmt.Sprintf("%s send • %s cycle focus",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("tab"),
		),
	)
}
