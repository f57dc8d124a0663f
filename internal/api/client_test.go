package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestDoSendsTokenHeader(t *testing.T) {
	var gotAuth string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client.SetToken("abc123")
	if _, err := client.ListTasks(context.Background()); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if gotAuth != "Token abc123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Token abc123")
	}
}

func TestDoOmitsAuthWhenUnauthenticated(t *testing.T) {
	var gotAuth string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestLoginParsesTokenAndUser(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/accounts/login/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body["username"] != "dana" || body["password"] != "hunter2" {
			t.Errorf("credentials = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": 7, "username": "dana", "email": "dana@example.com"},
		})
	}))
	defer srv.Close()

	token, user, err := client.Login(context.Background(), "dana", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q, want tok-1", token)
	}
	if user.ID != 7 || user.Username != "dana" {
		t.Errorf("user = %+v", user)
	}
}

func TestRegisterFillsPasswordConfirm(t *testing.T) {
	var body map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"token": "t", "user": map[string]any{"id": 1}})
	}))
	defer srv.Close()

	_, _, err := client.Register(context.Background(), Registration{Username: "dana", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if body["password_confirm"] != "hunter2" {
		t.Errorf("password_confirm = %q, want copy of password", body["password_confirm"])
	}
}

func TestErrorDetailExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "detail field",
			status: http.StatusUnauthorized,
			body:   `{"detail": "Invalid credentials."}`,
			want:   "Invalid credentials.",
		},
		{
			name:   "message field",
			status: http.StatusBadRequest,
			body:   `{"message": "something went wrong"}`,
			want:   "something went wrong",
		},
		{
			name:   "field error map",
			status: http.StatusBadRequest,
			body:   `{"username": ["A user with that username already exists."], "password": ["This password is too short."]}`,
			want:   "password: This password is too short.; username: A user with that username already exists.",
		},
		{
			name:   "plain text",
			status: http.StatusBadGateway,
			body:   "upstream down\n",
			want:   "upstream down",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := client.Health(context.Background())
			if err == nil {
				t.Fatal("Health succeeded, want error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("err type = %T, want *Error", err)
			}
			if apiErr.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tc.status)
			}
			if apiErr.Error() != tc.want {
				t.Errorf("detail = %q, want %q", apiErr.Error(), tc.want)
			}
		})
	}
}

func TestIsAuthError(t *testing.T) {
	if !IsAuthError(&Error{StatusCode: http.StatusUnauthorized}) {
		t.Error("401 not recognized as auth error")
	}
	if !IsAuthError(&Error{StatusCode: http.StatusForbidden}) {
		t.Error("403 not recognized as auth error")
	}
	if IsAuthError(&Error{StatusCode: http.StatusNotFound}) {
		t.Error("404 recognized as auth error")
	}
	if IsAuthError(errors.New("plain")) {
		t.Error("non-API error recognized as auth error")
	}
	wrapped := fmt.Errorf("creating task %q: %w", "x", &Error{StatusCode: http.StatusUnauthorized})
	if !IsAuthError(wrapped) {
		t.Error("wrapped 401 not recognized as auth error")
	}
}

func TestGenerateSuggestionsDefaults(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/planner/generate/llm/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"plan_title": "Weekend trip",
			"tasks": [
				{"title": "Book flights", "due_at": "2026-09-04T09:00:00Z", "priority": "high", "estimated_minutes": 30, "status": "pending"},
				{"title": "Pack bags"}
			]
		}`))
	}))
	defer srv.Close()

	client.SetToken("tok")
	planTitle, suggestions, err := client.GenerateSuggestions(context.Background(), "plan my weekend trip")
	if err != nil {
		t.Fatalf("GenerateSuggestions: %v", err)
	}
	if planTitle != "Weekend trip" {
		t.Errorf("plan title = %q", planTitle)
	}
	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(suggestions))
	}

	first := suggestions[0]
	if first.Priority != "high" || first.ResolvedDue == nil || first.DueText == "" {
		t.Errorf("first suggestion = %+v, want priority/due carried over", first)
	}
	second := suggestions[1]
	if second.Priority != "medium" {
		t.Errorf("default priority = %q, want medium", second.Priority)
	}
	if second.ResolvedDue != nil || second.DueText != "" {
		t.Errorf("undated suggestion has due = %+v %q", second.ResolvedDue, second.DueText)
	}
	for _, s := range suggestions {
		if !s.Include {
			t.Errorf("suggestion %q not included by default", s.Title)
		}
		if s.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Errorf("suggestion %q has zero id", s.Title)
		}
	}
}

func TestUpdateTaskSendsPatch(t *testing.T) {
	var method, path string
	var body map[string]any
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id": 4, "plan": 1, "title": "renamed", "status": "todo", "priority": "medium"}`))
	}))
	defer srv.Close()

	client.SetToken("tok")
	title := "renamed"
	task, err := client.UpdateTask(context.Background(), 4, TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if method != http.MethodPatch || path != "/api/planner/tasks/4/" {
		t.Errorf("request = %s %s", method, path)
	}
	if len(body) != 1 || body["title"] != "renamed" {
		t.Errorf("patch body = %v, want only title", body)
	}
	if task.ID != 4 || task.Title != "renamed" {
		t.Errorf("task = %+v", task)
	}
}

func TestUpdateTaskClearsFields(t *testing.T) {
	var body map[string]any
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id": 4, "plan": 1, "title": "t", "status": "todo", "priority": "medium"}`))
	}))
	defer srv.Close()

	client.SetToken("tok")
	patch := TaskPatch{ClearDueAt: true, ClearNotes: true, ClearEstimate: true}
	if _, err := client.UpdateTask(context.Background(), 4, patch); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	if len(body) != 3 {
		t.Errorf("patch body = %v, want exactly the three cleared fields", body)
	}
	for _, field := range []string{"due_at", "notes", "estimated_minutes"} {
		val, ok := body[field]
		if !ok {
			t.Errorf("patch body missing %q", field)
			continue
		}
		if val != nil {
			t.Errorf("%s = %v, want explicit null", field, val)
		}
	}
}

func TestGetTask(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/planner/tasks/9/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id": 9, "plan": 2, "title": "Book hotel", "status": "in_progress", "priority": "high"}`))
	}))
	defer srv.Close()

	client.SetToken("tok")
	task, err := client.GetTask(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.ID != 9 || task.PlanID != 2 || task.Status != "in_progress" {
		t.Errorf("task = %+v", task)
	}
}

func TestUpcomingTasksLimit(t *testing.T) {
	var query string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client.SetToken("tok")
	if _, err := client.UpcomingTasks(context.Background(), 5); err != nil {
		t.Fatalf("UpcomingTasks: %v", err)
	}
	if query != "limit=5" {
		t.Errorf("query = %q, want limit=5", query)
	}

	if _, err := client.UpcomingTasks(context.Background(), 0); err != nil {
		t.Fatalf("UpcomingTasks: %v", err)
	}
	if query != "" {
		t.Errorf("query = %q, want empty for server default", query)
	}
}

func TestSchedulePreviewUnauthenticated(t *testing.T) {
	var gotAuth string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"week": [{"date": "2026-08-31", "items": []}], "quick_wins": []}`))
	}))
	defer srv.Close()

	client.SetToken("tok")
	preview, err := client.SchedulePreview(context.Background(), []ScheduleCandidate{{Title: "x"}})
	if err != nil {
		t.Fatalf("SchedulePreview: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want none on preview", gotAuth)
	}
	if len(preview.Week) != 1 {
		t.Errorf("week days = %d, want 1", len(preview.Week))
	}
}
