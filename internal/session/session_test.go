package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"planpilot/internal/api"
	"planpilot/internal/session"
)

func tokenPath(dir string) string {
	return filepath.Join(dir, "auth", "token.json")
}

func writeToken(t *testing.T, dir, token string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "auth"), 0o700); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(map[string]string{"token": token})
	if err := os.WriteFile(tokenPath(dir), data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func authServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Invalid credentials."}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-live",
			"user":  map[string]any{"id": 1, "username": body["username"]},
		})
	})
	mux.HandleFunc("/api/accounts/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token tok-live" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Invalid token."}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 1, "username": "dana"})
	})
	mux.HandleFunc("/api/accounts/logout/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginPersistsToken(t *testing.T) {
	srv := authServer(t)
	dir := t.TempDir()
	client := api.New(srv.URL, 5*time.Second)
	store := session.New(client, dir)

	user, err := store.Login(context.Background(), "dana", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "dana" {
		t.Errorf("user = %+v", user)
	}
	if !store.Authenticated() {
		t.Error("not authenticated after login")
	}
	if store.User() == nil || store.User().Username != "dana" {
		t.Errorf("cached user = %+v", store.User())
	}

	data, err := os.ReadFile(tokenPath(dir))
	if err != nil {
		t.Fatalf("reading token file: %v", err)
	}
	var tf map[string]string
	json.Unmarshal(data, &tf)
	if tf["token"] != "tok-live" {
		t.Errorf("persisted token = %q, want tok-live", tf["token"])
	}

	info, _ := os.Stat(tokenPath(dir))
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	srv := authServer(t)
	dir := t.TempDir()
	client := api.New(srv.URL, 5*time.Second)
	store := session.New(client, dir)

	if _, err := store.Login(context.Background(), "dana", "wrong"); err == nil {
		t.Fatal("Login succeeded, want error")
	}
	if store.Authenticated() {
		t.Error("authenticated after failed login")
	}
	if store.User() != nil {
		t.Errorf("cached user = %+v, want nil", store.User())
	}
	if _, err := os.Stat(tokenPath(dir)); !os.IsNotExist(err) {
		t.Error("token file written on failed login")
	}
}

func TestLogoutClearsLocallyOnNetworkFailure(t *testing.T) {
	dir := t.TempDir()
	writeToken(t, dir, "tok-live")
	// Unroutable base URL: the server-side logout call fails.
	client := api.New("http://127.0.0.1:1", 500*time.Millisecond)
	store := session.New(client, dir)

	if ok, err := store.AttachPersisted(); err != nil || !ok {
		t.Fatalf("AttachPersisted = %v, %v", ok, err)
	}
	store.Logout(context.Background())

	if store.Authenticated() {
		t.Error("still authenticated after logout")
	}
	if _, err := os.Stat(tokenPath(dir)); !os.IsNotExist(err) {
		t.Error("token file survived logout")
	}
}

func TestRestoreVerifiedToken(t *testing.T) {
	srv := authServer(t)
	dir := t.TempDir()
	writeToken(t, dir, "tok-live")
	client := api.New(srv.URL, 5*time.Second)
	store := session.New(client, dir)

	ok, err := store.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !ok {
		t.Fatal("Restore = false, want true")
	}
	if store.User() == nil || store.User().Username != "dana" {
		t.Errorf("cached user = %+v", store.User())
	}
}

func TestRestoreFailsClosedOnStaleToken(t *testing.T) {
	srv := authServer(t)
	dir := t.TempDir()
	writeToken(t, dir, "tok-stale")
	client := api.New(srv.URL, 5*time.Second)
	store := session.New(client, dir)

	ok, err := store.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok {
		t.Fatal("Restore = true for rejected token")
	}
	if store.Authenticated() {
		t.Error("stale token left installed")
	}
	if _, err := os.Stat(tokenPath(dir)); !os.IsNotExist(err) {
		t.Error("stale token file not removed")
	}
}

func TestRestoreWithoutTokenFile(t *testing.T) {
	srv := authServer(t)
	client := api.New(srv.URL, 5*time.Second)
	store := session.New(client, t.TempDir())

	ok, err := store.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ok {
		t.Error("Restore = true with no persisted token")
	}
}

func TestAttachPersistedRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "auth"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tokenPath(dir), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	client := api.New("http://127.0.0.1:1", time.Second)
	store := session.New(client, dir)

	ok, err := store.AttachPersisted()
	if err == nil {
		t.Fatal("AttachPersisted succeeded on corrupt file")
	}
	if ok || store.Authenticated() {
		t.Error("corrupt token was installed")
	}
}
