package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"planpilot/internal/models"
)

// suggestionWire is the generation endpoint's task shape.
type suggestionWire struct {
	Title            string     `json:"title"`
	DueAt            *time.Time `json:"due_at"`
	Notes            *string    `json:"notes"`
	Priority         *string    `json:"priority"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	Status           *string    `json:"status"`
}

type generateResponse struct {
	PlanTitle string           `json:"plan_title"`
	Tasks     []suggestionWire `json:"tasks"`
}

// DueTextLayout is the format used to seed a suggestion's editable due text
// from a server-provided timestamp.
const DueTextLayout = "Jan 2 2006 15:04"

// GenerateSuggestions sends a free-text message to the LLM generation
// endpoint and returns the proposed plan title plus editable suggestions.
// Every suggestion starts included, with a fresh client-side identity.
func (c *Client) GenerateSuggestions(ctx context.Context, message string) (string, []models.Suggestion, error) {
	payload := map[string]string{"message": message}
	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, "/api/planner/generate/llm/", payload, true, &resp); err != nil {
		return "", nil, err
	}

	suggestions := make([]models.Suggestion, 0, len(resp.Tasks))
	for _, w := range resp.Tasks {
		s := models.NewSuggestion(w.Title)
		s.Notes = w.Notes
		s.ResolvedDue = w.DueAt
		s.EstimatedMinutes = w.EstimatedMinutes
		if w.Priority != nil && *w.Priority != "" {
			s.Priority = *w.Priority
		}
		if w.Status != nil {
			s.Status = *w.Status
		}
		if w.DueAt != nil {
			s.DueText = w.DueAt.Format(DueTextLayout)
		}
		suggestions = append(suggestions, s)
	}
	return resp.PlanTitle, suggestions, nil
}

// ListPlans returns all plans, newest first.
func (c *Client) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := c.do(ctx, http.MethodGet, "/api/planner/plans/", nil, true, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreatePlan creates a plan with the given title.
func (c *Client) CreatePlan(ctx context.Context, title string) (models.Plan, error) {
	payload := map[string]string{"title": title}
	var plan models.Plan
	if err := c.do(ctx, http.MethodPost, "/api/planner/plans/", payload, true, &plan); err != nil {
		return models.Plan{}, err
	}
	return plan, nil
}

// TaskCreate is the create-task request payload.
type TaskCreate struct {
	Plan             int64      `json:"plan"`
	Title            string     `json:"title"`
	Status           string     `json:"status,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Priority         string     `json:"priority,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
}

// TaskPatch carries only the fields to change; nil fields are omitted from
// the PATCH body. The Clear flags emit explicit JSON nulls instead, erasing
// the server value — a nil pointer alone cannot distinguish "leave alone"
// from "clear".
type TaskPatch struct {
	Title            *string    `json:"title,omitempty"`
	Status           *string    `json:"status,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Priority         *string    `json:"priority,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`

	ClearDueAt    bool `json:"-"`
	ClearNotes    bool `json:"-"`
	ClearEstimate bool `json:"-"`
}

// MarshalJSON builds the minimal PATCH body: set pointers become values,
// Clear flags become nulls, everything else is left out.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Status != nil {
		body["status"] = *p.Status
	}
	if p.Priority != nil {
		body["priority"] = *p.Priority
	}
	switch {
	case p.DueAt != nil:
		body["due_at"] = p.DueAt
	case p.ClearDueAt:
		body["due_at"] = nil
	}
	switch {
	case p.Notes != nil:
		body["notes"] = *p.Notes
	case p.ClearNotes:
		body["notes"] = nil
	}
	switch {
	case p.EstimatedMinutes != nil:
		body["estimated_minutes"] = *p.EstimatedMinutes
	case p.ClearEstimate:
		body["estimated_minutes"] = nil
	}
	return json.Marshal(body)
}

// ListTasks returns all tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/planner/tasks/", nil, true, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask persists a new task and returns the server's representation,
// including the assigned id.
func (c *Client) CreateTask(ctx context.Context, create TaskCreate) (models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/api/planner/tasks/", create, true, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	path := fmt.Sprintf("/api/planner/tasks/%d/", id)
	if err := c.do(ctx, http.MethodGet, path, nil, true, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update and returns the authoritative task.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (models.Task, error) {
	var task models.Task
	path := fmt.Sprintf("/api/planner/tasks/%d/", id)
	if err := c.do(ctx, http.MethodPatch, path, patch, true, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task by id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/planner/tasks/%d/", id)
	return c.do(ctx, http.MethodDelete, path, nil, true, nil)
}

// UpcomingTasks returns not-done tasks ordered by due date, undated last.
// limit <= 0 uses the server default.
func (c *Client) UpcomingTasks(ctx context.Context, limit int) ([]models.Task, error) {
	path := "/api/planner/tasks/upcoming/"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, true, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ScheduleCandidate is one task offered to the preview scheduler.
type ScheduleCandidate struct {
	Title            string     `json:"title"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	Priority         string     `json:"priority,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
}

// SchedulePreview asks the backend to lay the candidates out over the next
// seven days. The observed endpoint takes no auth header.
func (c *Client) SchedulePreview(ctx context.Context, candidates []ScheduleCandidate) (models.SchedulePreview, error) {
	payload := map[string][]ScheduleCandidate{"tasks": candidates}
	var preview models.SchedulePreview
	if err := c.do(ctx, http.MethodPost, "/api/planner/schedule/preview/", payload, false, &preview); err != nil {
		return models.SchedulePreview{}, err
	}
	return preview, nil
}
