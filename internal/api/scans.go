package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/user/leadfindr/internal/model"
)

// ScanStarted is the backend's acknowledgement of a scan initiation.
type ScanStarted struct {
	ScanID string `json:"scan_id"`
	Step   int    `json:"step,omitempty"`
	Status string `json:"status,omitempty"`
}

// StartScan initiates a scan for the payload's region type. The
// returned scan id seeds the progress poller.
func (c *Client) StartScan(ctx context.Context, payload model.ScanPayload) (ScanStarted, error) {
	var path string
	switch payload.RegionType {
	case "state":
		path = "/scan/state"
	case "country":
		path = "/scan/country"
	default:
		path = "/scan/city"
	}

	var started ScanStarted
	if err := c.post(ctx, path, payload, &started); err != nil {
		return ScanStarted{}, err
	}
	return started, nil
}

// GetScanProgress reads the latest progress entry for a running scan.
func (c *Client) GetScanProgress(ctx context.Context, scanID string) (model.ProgressEntry, error) {
	var entry model.ProgressEntry
	path := "/scan/progress/" + url.PathEscape(scanID)
	if err := c.get(ctx, path, nil, &entry); err != nil {
		return model.ProgressEntry{}, err
	}
	return entry, nil
}

// GetMyScans returns the user's scan history.
func (c *Client) GetMyScans(ctx context.Context) ([]model.ScanHistoryEntry, error) {
	var scans []model.ScanHistoryEntry
	if err := c.get(ctx, "/user/scans", nil, &scans); err != nil {
		return nil, err
	}
	return scans, nil
}

// GetRecentScans returns recent scans across the system, optionally
// narrowed to a city.
func (c *Client) GetRecentScans(ctx context.Context, city string, limit int) ([]model.ScanHistoryEntry, error) {
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}
	if limit <= 0 {
		limit = 5
	}
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Scans []model.ScanHistoryEntry `json:"scans"`
	}
	if err := c.get(ctx, "/query/all-scans", q, &resp); err != nil {
		return nil, err
	}
	return resp.Scans, nil
}

// GetScanByID returns one scan's metadata.
func (c *Client) GetScanByID(ctx context.Context, scanID string) (model.ScanHistoryEntry, error) {
	var entry model.ScanHistoryEntry
	path := "/query/scan/" + url.PathEscape(scanID)
	if err := c.get(ctx, path, nil, &entry); err != nil {
		return model.ScanHistoryEntry{}, err
	}
	return entry, nil
}
