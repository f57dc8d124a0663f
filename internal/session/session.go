// Package session owns the authentication state: the backend token and the
// cached account record. One Store is created at startup and passed to
// whatever needs it; there is no ambient global session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"planpilot/internal/api"
	"planpilot/internal/models"
)

// Store holds the live session and persists the token under dir. The token
// file is the only durable session state; the user record is re-fetched on
// every startup.
type Store struct {
	client *api.Client
	dir    string
	user   *models.User
}

// New creates a session store persisting its token under dir (the app's
// base directory, e.g. ~/.planpilot).
func New(client *api.Client, dir string) *Store {
	return &Store{client: client, dir: dir}
}

// User returns the cached account record, or nil when logged out.
func (s *Store) User() *models.User { return s.user }

// Authenticated reports whether a token is currently installed.
func (s *Store) Authenticated() bool { return s.client.Token() != "" }

// Login exchanges credentials for a token. On success the token is installed
// and persisted and the user cached; on failure all prior session state is
// left untouched.
func (s *Store) Login(ctx context.Context, username, password string) (models.User, error) {
	token, user, err := s.client.Login(ctx, username, password)
	if err != nil {
		return models.User{}, err
	}
	s.client.SetToken(token)
	s.user = &user
	// Best-effort persist; a read-only home dir should not fail the login.
	_ = s.saveToken(token)
	return user, nil
}

// Register creates an account and logs straight into it.
func (s *Store) Register(ctx context.Context, reg api.Registration) (models.User, error) {
	token, user, err := s.client.Register(ctx, reg)
	if err != nil {
		return models.User{}, err
	}
	s.client.SetToken(token)
	s.user = &user
	_ = s.saveToken(token)
	return user, nil
}

// Logout notifies the server, ignoring any failure, then clears local state
// unconditionally. An unreachable backend must never keep a user logged in.
func (s *Store) Logout(ctx context.Context) {
	if s.client.Token() != "" {
		_ = s.client.Logout(ctx)
	}
	s.client.SetToken("")
	s.user = nil
	_ = os.Remove(s.tokenPath())
}

// AttachPersisted installs a persisted token, if any, without verifying it.
// Callers that go on to hit authenticated endpoints will surface a rejection
// there; interactive startup should use Restore instead.
func (s *Store) AttachPersisted() (bool, error) {
	token, err := s.loadToken()
	if err != nil || token == "" {
		return false, err
	}
	s.client.SetToken(token)
	return true, nil
}

// Restore hydrates the session from a persisted token, verifying it against
// the profile endpoint. Any verification failure clears the token and the
// file: an unverifiable token is treated as absent, not retried.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	ok, err := s.AttachPersisted()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	user, err := s.client.Profile(ctx)
	if err != nil {
		s.client.SetToken("")
		s.user = nil
		_ = os.Remove(s.tokenPath())
		return false, nil
	}
	s.user = &user
	return true, nil
}

// tokenFile is the on-disk token shape.
type tokenFile struct {
	Token string `json:"token"`
}

func (s *Store) tokenPath() string {
	return filepath.Join(s.dir, "auth", "token.json")
}

func (s *Store) loadToken() (string, error) {
	data, err := os.ReadFile(s.tokenPath())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", s.tokenPath(), err)
	}
	return tf.Token, nil
}

func (s *Store) saveToken(token string) error {
	path := s.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tokenFile{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}
