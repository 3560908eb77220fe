package api

import (
	"context"

	"github.com/user/leadfindr/internal/model"
)

// GetAccount returns the current user's settings record.
func (c *Client) GetAccount(ctx context.Context) (*model.UserAccount, error) {
	var account model.UserAccount
	if err := c.get(ctx, "/user/settings", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount patches the editable profile and BYOK API key fields.
func (c *Client) UpdateAccount(ctx context.Context, update model.AccountUpdate) error {
	return c.patch(ctx, "/user/account", update, nil)
}

// DeleteAccount removes the account. The caller must clear the local
// session afterwards.
func (c *Client) DeleteAccount(ctx context.Context) error {
	var resp struct {
		Message string `json:"message"`
	}
	return c.delete(ctx, "/user/delete-account", &resp)
}
