package api

import (
	"context"

	"github.com/user/leadfindr/internal/model"
)

// GetAdminOverview returns the combined admin dashboard payload.
// Requires an admin role; the backend rejects everyone else.
func (c *Client) GetAdminOverview(ctx context.Context) (model.AdminOverview, error) {
	var overview model.AdminOverview
	if err := c.get(ctx, "/user/admin/overview", nil, &overview); err != nil {
		return model.AdminOverview{}, err
	}
	return overview, nil
}

// GetActivityFeed returns the recent scan activity feed.
func (c *Client) GetActivityFeed(ctx context.Context) ([]model.ScanLogEntry, error) {
	var resp struct {
		Scans []model.ScanLogEntry `json:"scans"`
	}
	if err := c.get(ctx, "/user/admin/activity", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Scans, nil
}

// GetBusinessStats returns the stored-business summary panel.
func (c *Client) GetBusinessStats(ctx context.Context) (model.BusinessOverview, error) {
	var stats model.BusinessOverview
	if err := c.get(ctx, "/user/admin/businesses/summary", nil, &stats); err != nil {
		return model.BusinessOverview{}, err
	}
	return stats, nil
}

// GetSystemHealth returns API usage and error counters.
func (c *Client) GetSystemHealth(ctx context.Context) (model.SystemHealth, error) {
	var health model.SystemHealth
	if err := c.get(ctx, "/user/admin/system/health", nil, &health); err != nil {
		return model.SystemHealth{}, err
	}
	return health, nil
}
