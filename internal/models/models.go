package models

import (
	"time"

	"github.com/google/uuid"
)

// Task status values used by the backend.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Suggestion status values as produced by the generation endpoint. This
// vocabulary differs from the task one and is mapped at acceptance time.
const (
	SuggestionPending    = "pending"
	SuggestionInProgress = "in_progress"
	SuggestionCompleted  = "completed"
)

// User is the server-owned account record; the client holds a cached copy.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Plan is a named, persisted grouping of tasks.
type Plan struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a single persisted task. The server is authoritative; local
// mutations are optimistic and reconciled against server responses.
type Task struct {
	ID               int64      `json:"id"`
	PlanID           int64      `json:"plan"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	DueAt            *time.Time `json:"due_at"`
	Notes            *string    `json:"notes"`
	Priority         string     `json:"priority"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Done reports whether the task is in a terminal status.
func (t Task) Done() bool { return t.Status == StatusDone }

// Suggestion is an unpersisted candidate task produced by the generation
// endpoint. It lives in memory between generation and acceptance only.
// ResolvedDue is derived from DueText and may lag behind it when the text
// does not parse; the two are not guaranteed to agree.
type Suggestion struct {
	ID               uuid.UUID  `json:"-"`
	Title            string     `json:"title"`
	Notes            *string    `json:"notes"`
	DueText          string     `json:"-"`
	ResolvedDue      *time.Time `json:"due_at"`
	Priority         string     `json:"priority"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	Status           string     `json:"status"`
	Include          bool       `json:"-"`
	Editing          bool       `json:"-"`
}

// NewSuggestion assigns a client-side identity and marks the suggestion
// included by default.
func NewSuggestion(title string) Suggestion {
	return Suggestion{
		ID:       uuid.New(),
		Title:    title,
		Priority: PriorityMedium,
		Include:  true,
	}
}

// TaskStatus maps the suggestion status vocabulary
// (pending/in_progress/completed) onto the persisted task vocabulary.
func (s Suggestion) TaskStatus() string {
	switch s.Status {
	case SuggestionCompleted:
		return StatusDone
	case SuggestionInProgress:
		return StatusInProgress
	default:
		return StatusTodo
	}
}

// ScheduleItem is a task placed on the preview calendar.
type ScheduleItem struct {
	Title            string `json:"title"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Priority         string `json:"priority"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// ScheduleDay is one day of the preview week.
type ScheduleDay struct {
	Date  string         `json:"date"`
	Items []ScheduleItem `json:"items"`
}

// QuickWin is a candidate the scheduler could not place on the grid.
type QuickWin struct {
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Priority         string `json:"priority"`
}

// SchedulePreview is the display-only result of the preview endpoint.
type SchedulePreview struct {
	Week      []ScheduleDay `json:"week"`
	QuickWins []QuickWin    `json:"quick_wins"`
}
