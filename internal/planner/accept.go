// Package planner converts accepted suggestion batches into persisted tasks.
//
// Plan resolution is read-then-create with no uniqueness guard: two clients
// accepting into the same title at once can create duplicate plans. That is
// a backend constraint to enforce, not something this client papers over.
package planner

import (
	"context"
	"errors"
	"fmt"

	"planpilot/internal/api"
	"planpilot/internal/models"
)

// ErrNothingSelected means the batch had no included suggestions. It is a
// user-facing notice, not a failure.
var ErrNothingSelected = errors.New("no suggestions selected")

// Backend is the slice of the API client the acceptance flow needs.
type Backend interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	CreatePlan(ctx context.Context, title string) (models.Plan, error)
	CreateTask(ctx context.Context, create api.TaskCreate) (models.Task, error)
}

// Result reports where the batch landed.
type Result struct {
	Plan    models.Plan
	Created []models.Task
}

// Accept persists every included suggestion as a task under the plan named
// planTitle, reusing the first existing plan with that exact title before
// creating a new one. Tasks are created sequentially so a failure on task N
// is attributable: tasks 1..N-1 stay created, no rollback is attempted, and
// the first error halts the batch.
func Accept(ctx context.Context, backend Backend, planTitle string, suggestions []models.Suggestion) (Result, error) {
	var included []models.Suggestion
	for _, s := range suggestions {
		if s.Include {
			included = append(included, s)
		}
	}
	if len(included) == 0 {
		return Result{}, ErrNothingSelected
	}

	plan, err := resolvePlan(ctx, backend, planTitle)
	if err != nil {
		return Result{}, err
	}

	result := Result{Plan: plan}
	for _, s := range included {
		task, err := backend.CreateTask(ctx, api.TaskCreate{
			Plan:             plan.ID,
			Title:            s.Title,
			Status:           s.TaskStatus(),
			DueAt:            s.ResolvedDue,
			Notes:            s.Notes,
			Priority:         s.Priority,
			EstimatedMinutes: s.EstimatedMinutes,
		})
		if err != nil {
			return result, fmt.Errorf("creating task %q: %w", s.Title, err)
		}
		result.Created = append(result.Created, task)
	}
	return result, nil
}

// resolvePlan reuses the first exact-title match, otherwise creates a plan.
func resolvePlan(ctx context.Context, backend Backend, title string) (models.Plan, error) {
	plans, err := backend.ListPlans(ctx)
	if err != nil {
		return models.Plan{}, err
	}
	for _, p := range plans {
		if p.Title == title {
			return p, nil
		}
	}
	return backend.CreatePlan(ctx, title)
}
