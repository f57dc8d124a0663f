// Package tasklist keeps the tasks view responsive: every mutation is
// applied to the in-memory list before its request resolves, then reconciled
// against the server outcome. The recovery strategy is chosen per operation:
// toggles and deletes restore an exact pre-mutation snapshot, while
// multi-field edits reload the whole list, since local and server state may
// have drifted in more than one place.
//
// A toggle remembers the status it replaced, so un-toggling a task returns
// it to in_progress rather than collapsing to todo.
//
// List is safe for the UI's concurrent use: mutations run in command
// goroutines while the render loop reads. The lock is released around
// network calls so reads never wait on the server.
package tasklist

import (
	"context"
	"sync"

	"planpilot/internal/api"
	"planpilot/internal/models"
)

// Backend is the slice of the API client the list needs. *api.Client
// satisfies it; tests substitute a fake.
type Backend interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, create api.TaskCreate) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch api.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// List is the optimistic in-memory task list.
type List struct {
	backend Backend

	mu    sync.Mutex
	tasks []models.Task
	// prior remembers each done-toggled task's previous status so the
	// reverse toggle can restore it.
	prior map[int64]string
}

// New creates an empty list over the given backend.
func New(backend Backend) *List {
	return &List{backend: backend, prior: make(map[int64]string)}
}

// Tasks returns a copy of the current in-memory list.
func (l *List) Tasks() []models.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Len returns the number of tasks currently held.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Reload replaces the list with the server's authoritative state.
func (l *List) Reload(ctx context.Context) error {
	tasks, err := l.backend.ListTasks(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.tasks = tasks
	l.mu.Unlock()
	return nil
}

// snapshot copies the list so a failed mutation can restore it exactly.
// Caller holds mu.
func (l *List) snapshot() []models.Task {
	snap := make([]models.Task, len(l.tasks))
	copy(snap, l.tasks)
	return snap
}

// index locates a task by id. Caller holds mu.
func (l *List) index(id int64) int {
	for i, t := range l.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Toggle flips a task's completion locally, then confirms with the server.
// Toggling a done task restores the status it had before it was completed.
// On failure the pre-mutation snapshot is restored exactly.
func (l *List) Toggle(ctx context.Context, id int64) error {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return nil
	}
	snap := l.snapshot()
	priorStatus, hadPrior := l.prior[id]

	var next string
	if l.tasks[i].Status == models.StatusDone {
		next = models.StatusTodo
		if hadPrior {
			next = priorStatus
		}
		delete(l.prior, id)
	} else {
		l.prior[id] = l.tasks[i].Status
		next = models.StatusDone
	}
	l.tasks[i].Status = next
	l.mu.Unlock()

	task, err := l.backend.UpdateTask(ctx, id, api.TaskPatch{Status: &next})

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.tasks = snap
		if hadPrior {
			l.prior[id] = priorStatus
		} else {
			delete(l.prior, id)
		}
		return err
	}
	if i := l.index(id); i >= 0 {
		l.tasks[i] = task
	}
	return nil
}

// Delete removes a task locally, then confirms with the server. On failure
// the pre-mutation snapshot is restored.
func (l *List) Delete(ctx context.Context, id int64) error {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return nil
	}
	snap := l.snapshot()
	l.tasks = append(l.tasks[:i:i], l.tasks[i+1:]...)
	delete(l.prior, id)
	l.mu.Unlock()

	err := l.backend.DeleteTask(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.tasks = snap
		return err
	}
	return nil
}

// Edit applies a field patch locally, then sends it. On success the local
// item is replaced with the server's representation, which is authoritative
// for normalized fields. On failure the whole list is reloaded rather than
// partially rolled back.
func (l *List) Edit(ctx context.Context, id int64, patch api.TaskPatch) error {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return nil
	}
	applyPatch(&l.tasks[i], patch)
	l.mu.Unlock()

	task, err := l.backend.UpdateTask(ctx, id, patch)
	if err != nil {
		// Best-effort reload; the edit failure is what the caller acts on.
		_ = l.Reload(ctx)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(id); i >= 0 {
		l.tasks[i] = task
	}
	return nil
}

// Create persists a new task and prepends the server's copy. There is no
// optimism here: the item does not exist locally until the server has
// assigned its id.
func (l *List) Create(ctx context.Context, create api.TaskCreate) (models.Task, error) {
	task, err := l.backend.CreateTask(ctx, create)
	if err != nil {
		return models.Task{}, err
	}
	l.mu.Lock()
	l.tasks = append([]models.Task{task}, l.tasks...)
	l.mu.Unlock()
	return task, nil
}

func applyPatch(t *models.Task, patch api.TaskPatch) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.DueAt != nil {
		t.DueAt = patch.DueAt
	} else if patch.ClearDueAt {
		t.DueAt = nil
	}
	if patch.Notes != nil {
		t.Notes = patch.Notes
	} else if patch.ClearNotes {
		t.Notes = nil
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.EstimatedMinutes != nil {
		t.EstimatedMinutes = patch.EstimatedMinutes
	} else if patch.ClearEstimate {
		t.EstimatedMinutes = nil
	}
}
