package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"planpilot/internal/api"
	"planpilot/internal/models"
	"planpilot/internal/tasklist"
	"planpilot/internal/ui/keys"
	"planpilot/internal/ui/styles"
)

type tasksLoadedMsg struct {
	err error
}

type plansLoadedMsg struct {
	plans []models.Plan
	err   error
}

type mutationDoneMsg struct {
	err error
	// toTop moves the cursor to the first item, where a created task lands.
	toTop bool
}

// TasksView shows the persisted task list with optimistic mutations.
type TasksView struct {
	list   *tasklist.List
	client *api.Client
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	loading  bool
	mutating bool
	spin     spinner.Model
	cursor   int
	scrollY  int
	errMsg   string
	notice   string

	viewingTask bool

	confirmingDelete bool
	deleteTargetID   int64

	// Plan picker shown before creating a task.
	pickingPlan bool
	plans       []models.Plan
	planCursor  int

	editing    bool
	editingNew bool
	editTaskID int64
	newPlanID  int64
	form       *taskForm
}

// NewTasksView creates the tasks screen.
func NewTasksView(client *api.Client) *TasksView {
	s := styles.NewStyles()
	km := keys.DefaultKeyMap()
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return &TasksView{
		list:   tasklist.New(client),
		client: client,
		styles: s,
		keys:   km,
		spin:   spin,
		form:   newTaskForm(s, km),
	}
}

// Init reloads the list from the server.
func (v *TasksView) Init() tea.Cmd {
	v.loading = true
	v.errMsg = ""
	return tea.Batch(v.spin.Tick, v.reload)
}

// InputActive reports whether a text input currently has focus.
func (v *TasksView) InputActive() bool { return v.editing }

func (v *TasksView) reload() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return tasksLoadedMsg{err: v.list.Reload(ctx)}
}

func (v *TasksView) loadPlans() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	plans, err := v.client.ListPlans(ctx)
	return plansLoadedMsg{plans: plans, err: err}
}

// Update handles messages
func (v *TasksView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.loading && !v.mutating {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd

	case tasksLoadedMsg:
		v.loading = false
		if msg.err != nil {
			if cmd := expiredSession(msg.err); cmd != nil {
				return v, cmd
			}
			v.errMsg = msg.err.Error()
			return v, nil
		}
		v.errMsg = ""
		v.clampCursor()
		return v, nil

	case plansLoadedMsg:
		if msg.err != nil {
			if cmd := expiredSession(msg.err); cmd != nil {
				return v, cmd
			}
			v.errMsg = msg.err.Error()
			return v, nil
		}
		if len(msg.plans) == 0 {
			v.notice = "No plans yet — accept suggestions in the Assistant tab first."
			return v, nil
		}
		v.plans = msg.plans
		v.planCursor = 0
		v.pickingPlan = true
		return v, nil

	case mutationDoneMsg:
		v.mutating = false
		if msg.err != nil {
			if cmd := expiredSession(msg.err); cmd != nil {
				return v, cmd
			}
			v.errMsg = msg.err.Error()
		} else if msg.toTop {
			v.cursor = 0
			v.scrollY = 0
		}
		v.clampCursor()
		return v, nil

	case tea.KeyMsg:
		// One mutation at a time; the list is mid-reconciliation until the
		// result message arrives.
		if v.mutating {
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.pickingPlan {
			return v.updatePlanPicker(msg)
		}
		if v.viewingTask {
			return v.updateViewingTask(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *TasksView) clampCursor() {
	if v.cursor >= v.list.Len() {
		v.cursor = max(0, v.list.Len()-1)
	}
}

// mutate runs a list mutation in the background: the view suspends input and
// shows the spinner until the request settles, then renders the reconciled
// list.
func (v *TasksView) mutate(op func(ctx context.Context) error, toTop bool) tea.Cmd {
	v.mutating = true
	v.errMsg = ""
	v.notice = ""

	request := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mutationDoneMsg{err: op(ctx), toTop: toTop}
	}
	return tea.Batch(v.spin.Tick, request)
}

func (v *TasksView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < v.list.Len()-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.list.Len() > 0 {
			v.viewingTask = true
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if tasks := v.list.Tasks(); v.cursor < len(tasks) {
			id := tasks[v.cursor].ID
			return v, v.mutate(func(ctx context.Context) error { return v.list.Toggle(ctx, id) }, false)
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if tasks := v.list.Tasks(); v.cursor < len(tasks) {
			v.confirmingDelete = true
			v.deleteTargetID = tasks[v.cursor].ID
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if tasks := v.list.Tasks(); v.cursor < len(tasks) {
			v.startEditTask(tasks[v.cursor])
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		return v, v.loadPlans

	case key.Matches(msg, v.keys.Refresh):
		return v, v.Init()
	}
	return v, nil
}

func (v *TasksView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := v.deleteTargetID
		v.confirmingDelete = false
		v.viewingTask = false
		return v, v.mutate(func(ctx context.Context) error { return v.list.Delete(ctx, id) }, false)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TasksView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := v.list.Tasks()
	if v.cursor >= len(tasks) {
		v.viewingTask = false
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(tasks[v.cursor])
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.confirmingDelete = true
		v.deleteTargetID = tasks[v.cursor].ID
		return v, nil
	case key.Matches(msg, v.keys.Toggle):
		id := tasks[v.cursor].ID
		return v, v.mutate(func(ctx context.Context) error { return v.list.Toggle(ctx, id) }, false)
	}
	return v, nil
}

func (v *TasksView) updatePlanPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.pickingPlan = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.planCursor > 0 {
			v.planCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.planCursor < len(v.plans)-1 {
			v.planCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.pickingPlan = false
		v.newPlanID = v.plans[v.planCursor].ID
		v.startNewTask()
		return v, textinput.Blink
	}
	return v, nil
}

func (v *TasksView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.form.open("New Task", "", nil, "", nil, models.PriorityMedium, nil)
}

func (v *TasksView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editTaskID = task.ID
	v.form.open("Edit Task", task.Title, task.Notes, formatDue(task.DueAt), task.DueAt, task.Priority, task.EstimatedMinutes)
}

func (v *TasksView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := v.form.update(msg)
	switch action {
	case formCancel:
		v.editing = false
		return v, nil
	case formSave:
		return v, v.saveTask()
	}
	return v, cmd
}

func (v *TasksView) saveTask() tea.Cmd {
	title, notes, _, resolved, priority, minutes := v.form.values()
	if title == "" {
		return nil
	}
	v.editing = false

	if v.editingNew {
		create := api.TaskCreate{
			Plan:             v.newPlanID,
			Title:            title,
			Notes:            notes,
			DueAt:            resolved,
			Priority:         priority,
			EstimatedMinutes: minutes,
		}
		return v.mutate(func(ctx context.Context) error {
			_, err := v.list.Create(ctx, create)
			return err
		}, true)
	}

	id := v.editTaskID
	patch := v.form.patch()
	return v.mutate(func(ctx context.Context) error { return v.list.Edit(ctx, id, patch) }, false)
}

func (v *TasksView) ensureVisible() {
	availableHeight := v.height - 10
	if availableHeight < 2 {
		availableHeight = 2
	}
	visibleItems := max(availableHeight/2, 1)

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TasksView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.editing {
		return v.form.view(v.width, v.height)
	}
	if v.pickingPlan {
		return v.renderPlanPicker()
	}
	if v.viewingTask {
		return v.renderTaskDetail()
	}

	s := v.styles
	var b strings.Builder

	if v.loading {
		return styles.CenterView(v.spin.View()+s.TitleMuted.Render(" loading tasks..."), v.width, v.height)
	}

	if v.list.Len() == 0 {
		b.WriteString(s.TitleMuted.Render("No tasks yet. Accept suggestions in the Assistant tab, or press 'n'."))
	} else {
		b.WriteString(v.renderTaskList())
	}

	b.WriteString("\n")
	switch {
	case v.mutating:
		b.WriteString(v.spin.View() + s.TitleMuted.Render(" saving...") + "\n")
	case v.errMsg != "":
		b.WriteString(s.ErrorText.Render(v.errMsg) + "\n")
	case v.notice != "":
		b.WriteString(s.Notice.Render(v.notice) + "\n")
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TasksView) renderTaskList() string {
	availableHeight := max(v.height-10, 2)
	visibleItems := max(availableHeight/2, 1)

	tasks := v.list.Tasks()
	endIdx := min(v.scrollY+visibleItems, len(tasks))

	var items []string
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(tasks[i], i == v.cursor)+"\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TasksView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	checkbox := "[ ]"
	if task.Done() {
		checkbox = "[x]"
	}

	parts := []string{checkbox + " " + task.Title}
	if task.Status == models.StatusInProgress {
		parts = append(parts, "in progress")
	}
	if due := formatDue(task.DueAt); due != "" {
		parts = append(parts, "due "+due)
	}
	if m := minutesLabel(task.EstimatedMinutes); m != "" {
		parts = append(parts, m)
	}
	line := strings.Join(parts, " · ") + " " + s.PriorityStyle(task.Priority).Render("["+task.Priority+"]")

	switch {
	case selected:
		return s.ListSelected.Width(width).Render(line)
	case task.Done():
		return s.ListDone.Width(width).Render(line)
	default:
		return s.ListItem.Width(width).Render(line)
	}
}

func (v *TasksView) renderTaskDetail() string {
	tasks := v.list.Tasks()
	if v.cursor >= len(tasks) {
		return ""
	}
	s := v.styles
	task := tasks[v.cursor]
	contentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(contentWidth-10, 20, 70)

	notes := s.TitleMuted.Render("No notes")
	if task.Notes != nil && *task.Notes != "" {
		notes = lipgloss.NewStyle().Width(textWidth).Render(*task.Notes)
	}
	due := s.TitleMuted.Render("None")
	if task.DueAt != nil {
		due = task.DueAt.Format("Mon Jan 2 2006 15:04")
	}
	estimate := s.TitleMuted.Render("None")
	if task.EstimatedMinutes != nil {
		estimate = fmt.Sprintf("%d minutes", *task.EstimatedMinutes)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(task.Title),
		"",
		s.TitleMuted.Render("Status"),
		task.Status,
		"",
		s.TitleMuted.Render("Priority"),
		s.PriorityStyle(task.Priority).Render(task.Priority),
		"",
		s.TitleMuted.Render("Due"),
		due,
		"",
		s.TitleMuted.Render("Estimate"),
		estimate,
		"",
		s.TitleMuted.Render("Notes"),
		notes,
		"",
		s.Help.Render(
			fmt.Sprintf("%s edit • %s toggle • %s delete • %s back",
				s.HelpKey.Render("e"),
				s.HelpKey.Render("space"),
				s.HelpKey.Render("d"),
				s.HelpKey.Render("esc"),
			),
		),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TasksView) renderPlanPicker() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	var items []string
	for i, plan := range v.plans {
		itemStyle := s.ListItem
		if i == v.planCursor {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(plan.Title))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Add Task To Plan"),
		"",
		lipgloss.JoinVertical(lipgloss.Left, items...),
		"",
		s.TitleMuted.Render("↵: select • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TasksView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TasksView) renderHelp() string {
	s := v.styles
	return s.Help.Render(
		fmt.Sprintf("%s view • %s toggle • %s edit • %s new • %s del • %s refresh",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("r"),
		),
	)
}
