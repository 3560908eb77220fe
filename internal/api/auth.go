package api

import (
	"context"
	"fmt"
)

// RegisterPayload creates a new account.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. The backend sends a verification email;
// the client does not wait for it.
func (c *Client) Register(ctx context.Context, payload RegisterPayload) error {
	return c.post(ctx, "/auth/register", payload, nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for an access token. Persisting the token
// is the session's job, not this client's.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login failed: no access token in response")
	}
	return resp.AccessToken, nil
}

// Logout tells the backend to revoke the current token. Best effort:
// the session clears local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/logout", nil, nil)
}

// VerifyToken checks the current token and returns the user id it
// belongs to.
func (c *Client) VerifyToken(ctx context.Context) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		UserID  string `json:"user_id"`
	}
	if err := c.post(ctx, "/auth/verify-token", nil, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("token verification rejected")
	}
	return resp.UserID, nil
}

// ForgotPassword triggers the reset email flow.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.post(ctx, "/auth/forgot-password", body, nil)
}

// ResetPassword changes the password for the logged-in user.
func (c *Client) ResetPassword(ctx context.Context, currentPassword, newPassword string) error {
	body := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	return c.post(ctx, "/auth/reset-password", body, nil)
}
