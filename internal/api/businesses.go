package api

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/model"
)

// BusinessPage is the paginated envelope returned by the all-businesses
// endpoint.
type BusinessPage struct {
	Total   int              `json:"total"`
	Results []model.Business `json:"results"`
}

// QueryFromCriteria flattens filter criteria into the stable query
// parameter contract. Scope identifiers (scan id, city triple) are NOT
// included here; each fetch mode carries its own.
func QueryFromCriteria(c filter.Criteria) url.Values {
	q := url.Values{}

	if c.MinDPI != nil {
		q.Set("min_dpi", strconv.Itoa(*c.MinDPI))
	}
	if c.MaxDPI != nil {
		q.Set("max_dpi", strconv.Itoa(*c.MaxDPI))
	}
	for _, badge := range c.Badges {
		q.Add("badges", badge)
	}
	if c.Category != "" {
		q.Set("category", c.Category)
	}
	if c.SortBy != "" {
		q.Set("sort_by", c.SortBy)
	}
	if c.Search != "" {
		q.Set("search", c.Search)
	}
	if v, ok := c.HasWebsite.Bool(); ok {
		q.Set("has_website", strconv.FormatBool(v))
	}
	if v, ok := c.IsSecure.Bool(); ok {
		q.Set("is_secure", strconv.FormatBool(v))
	}

	return q
}

// filterBody is the JSON form of the same contract, used by the POST
// endpoints (export, insights).
func filterBody(c filter.Criteria) map[string]interface{} {
	body := make(map[string]interface{})

	if c.MinDPI != nil {
		body["min_dpi"] = *c.MinDPI
	}
	if c.MaxDPI != nil {
		body["max_dpi"] = *c.MaxDPI
	}
	if len(c.Badges) > 0 {
		body["badges"] = c.Badges
	}
	if c.Category != "" {
		body["category"] = c.Category
	}
	if c.SortBy != "" {
		body["sort_by"] = c.SortBy
	}
	if c.Search != "" {
		body["search"] = c.Search
	}
	if v, ok := c.HasWebsite.Bool(); ok {
		body["has_website"] = v
	}
	if v, ok := c.IsSecure.Bool(); ok {
		body["is_secure"] = v
	}
	if c.SelectionType == filter.SelectionScan && c.ScanID != "" {
		body["scan_id"] = c.ScanID
	}
	if c.SelectionType == filter.SelectionCity && c.CitySelection != nil {
		body["city"] = c.CitySelection.City
		body["state"] = c.CitySelection.State
		body["country"] = c.CitySelection.Country
	}

	return body
}

// GetMyBusinesses fetches a page of the user's full business set.
// Returns the {total, results} envelope for page-count computation.
func (c *Client) GetMyBusinesses(ctx context.Context, criteria filter.Criteria, limit, offset int) (BusinessPage, error) {
	q := QueryFromCriteria(criteria)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page BusinessPage
	if err := c.get(ctx, "/user/businesses", q, &page); err != nil {
		return BusinessPage{}, err
	}
	return page, nil
}

// GetBusinessesByScan fetches every business of one scan. The backend
// returns a complete array with no total.
func (c *Client) GetBusinessesByScan(ctx context.Context, scanID string, criteria filter.Criteria) ([]model.Business, error) {
	var results []model.Business
	path := "/user/scan/" + url.PathEscape(scanID) + "/businesses"
	if err := c.get(ctx, path, QueryFromCriteria(criteria), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetBusinessesByCity fetches every business of one scanned city. The
// backend returns a complete array with no total.
func (c *Client) GetBusinessesByCity(ctx context.Context, city, state, country string, criteria filter.Criteria) ([]model.Business, error) {
	q := QueryFromCriteria(criteria)
	q.Set("city", city)
	q.Set("state", state)
	q.Set("country", country)

	var results []model.Business
	if err := c.get(ctx, "/user/city/businesses", q, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GetBusinessByPlaceID fetches a single business detail record.
func (c *Client) GetBusinessByPlaceID(ctx context.Context, placeID string) (*model.Business, error) {
	var b model.Business
	path := "/user/businesses/" + url.PathEscape(placeID)
	if err := c.get(ctx, path, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetMyCities returns the user's scanned cities.
func (c *Client) GetMyCities(ctx context.Context) ([]model.CitySummary, error) {
	var cities []model.CitySummary
	if err := c.get(ctx, "/user/cities", nil, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// ExportBusinesses asks the backend to render the filtered set in the
// given format (csv, json or xlsx) and returns the file bytes.
func (c *Client) ExportBusinesses(ctx context.Context, criteria filter.Criteria, format string) ([]byte, error) {
	switch format {
	case "csv", "json", "xlsx":
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	q := url.Values{}
	q.Set("format", format)
	return c.doRaw(ctx, "POST", "/user/businesses/export", q, filterBody(criteria))
}

// GetInsights returns aggregate stats over the filtered business set.
func (c *Client) GetInsights(ctx context.Context, criteria filter.Criteria) (model.Insights, error) {
	var insights model.Insights
	if err := c.post(ctx, "/user/businesses/insights", filterBody(criteria), &insights); err != nil {
		return model.Insights{}, err
	}
	return insights, nil
}

// CombineDuplicateCities merges city summaries that refer to the same
// city in the same country under differently-spelled state fields,
// keeping the newest scan date and summing business counts.
func CombineDuplicateCities(cities []model.CitySummary) []model.CitySummary {
	merged := make(map[string]model.CitySummary)
	order := make([]string, 0, len(cities))

	for _, city := range cities {
		if city.City == "" || city.Country == "" {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(city.City)) + "-" + strings.ToLower(city.Country)
		existing, ok := merged[key]
		if !ok {
			merged[key] = city
			order = append(order, key)
			continue
		}

		existing.BusinessCount += city.BusinessCount
		if laterScan(city.LastScanned, existing.LastScanned) {
			existing.LastScanned = city.LastScanned
		}
		if len(city.State) > len(existing.State) {
			existing.State = city.State
		}
		merged[key] = existing
	}

	out := make([]model.CitySummary, 0, len(merged))
	for _, key := range order {
		out = append(out, merged[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return laterScan(out[i].LastScanned, out[j].LastScanned)
	})
	return out
}

func laterScan(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA != nil || errB != nil {
		return a > b
	}
	return ta.After(tb)
}
