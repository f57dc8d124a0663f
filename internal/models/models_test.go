package models_test

import (
	"testing"

	"planpilot/internal/models"
)

func TestNewSuggestionDefaults(t *testing.T) {
	s := models.NewSuggestion("Book flights")

	if s.Title != "Book flights" {
		t.Errorf("title = %q", s.Title)
	}
	if !s.Include {
		t.Error("new suggestion not included by default")
	}
	if s.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium", s.Priority)
	}
	if s.ID == models.NewSuggestion("other").ID {
		t.Error("suggestions share an identity")
	}
}

func TestSuggestionTaskStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{models.SuggestionPending, models.StatusTodo},
		{models.SuggestionInProgress, models.StatusInProgress},
		{models.SuggestionCompleted, models.StatusDone},
		{"", models.StatusTodo},
	}
	for _, tc := range tests {
		s := models.Suggestion{Status: tc.status}
		if got := s.TaskStatus(); got != tc.want {
			t.Errorf("TaskStatus(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}
