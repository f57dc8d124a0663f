package api

import (
	"context"
	"net/http"

	"planpilot/internal/models"
)

// authResponse is the shared login/register response shape.
type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a token and the account record. The token
// is not installed on the client; that is the session store's decision.
func (c *Client) Login(ctx context.Context, username, password string) (string, models.User, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/accounts/login/", payload, false, &resp); err != nil {
		return "", models.User{}, err
	}
	return resp.Token, resp.User, nil
}

// Registration is the register request payload. PasswordConfirm is filled
// from Password by Register; the backend insists on the duplicate field.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Confirm   string `json:"password_confirm"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, reg Registration) (string, models.User, error) {
	if reg.Confirm == "" {
		reg.Confirm = reg.Password
	}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/accounts/register/", reg, false, &resp); err != nil {
		return "", models.User{}, err
	}
	return resp.Token, resp.User, nil
}

// Logout invalidates the current token server-side. Callers treat failures
// as advisory; local session state is cleared regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/accounts/logout/", nil, true, nil)
}

// Profile fetches the account belonging to the current token. A rejection
// here is how a stale persisted token is detected.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/accounts/profile/", nil, true, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
