// Package model defines core data structures for leadfindr.
package model

import "time"

// DefaultSubScoreMax is the implicit maximum for a sub-score when the
// backend omits an explicit one.
const DefaultSubScoreMax = 25

// Business is the unit returned by every business fetch. The backend is
// the sole owner; the client treats records as read-only.
type Business struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`

	DPIScore float64 `json:"dpi_score"`
	DPIBadge string  `json:"dpi_badge"`

	WebsiteScore  float64 `json:"website_score"`
	SocialScore   float64 `json:"social_score"`
	BacklinkScore float64 `json:"backlink_score"`
	BrandScore    float64 `json:"brand_score"`

	WebsiteBreakdown  Breakdown `json:"website_breakdown,omitempty"`
	SocialBreakdown   Breakdown `json:"social_breakdown,omitempty"`
	BacklinkBreakdown Breakdown `json:"backlink_breakdown,omitempty"`
	BrandBreakdown    Breakdown `json:"brand_breakdown,omitempty"`

	ScanID       string `json:"scan_id,omitempty"`
	IsCachedPull bool   `json:"is_cached_pull,omitempty"`
	HasWebsite   *bool  `json:"has_website,omitempty"`
	IsSecure     *bool  `json:"is_secure,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	WebsiteURL    string   `json:"website_url,omitempty"`
	GoogleMapsURL string   `json:"google_maps_url,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Category      string   `json:"category,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// HasCoords reports whether the record carries usable geocoordinates.
func (b *Business) HasCoords() bool {
	return b.Lat != nil && b.Lng != nil
}

// BreakdownItem is one scored signal inside a sub-score breakdown.
type BreakdownItem struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Tier     string  `json:"tier"`
	Tip      string  `json:"tip"`
	Summary  string  `json:"summary"`
}

// Breakdown maps signal names to their scored items.
type Breakdown map[string]BreakdownItem

// ScanHistoryEntry is one completed (or failed) scan in the history views.
type ScanHistoryEntry struct {
	ScanID          string   `json:"scan_id"`
	RegionType      string   `json:"region_type"`
	RegionSlug      string   `json:"region_slug"`
	Keywords        []string `json:"keywords"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	Country         string   `json:"country"`
	Status          string   `json:"status"` // success, partial, failed
	HasBusinesses   bool     `json:"has_businesses"`
	BusinessCount   int      `json:"business_count"`
	DPIAvg          *float64 `json:"dpi_avg"`
	DPIConcurrency  int      `json:"dpi_concurrency"`
	PlacesLimit     int      `json:"google_places_limit"`
	DurationSeconds float64  `json:"duration_seconds"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	LocationBiasLat *float64 `json:"location_bias_lat,omitempty"`
	LocationBiasLng *float64 `json:"location_bias_lng,omitempty"`
	UserID          int64    `json:"user_id,omitempty"`
	Timestamp       string   `json:"timestamp"`
	GeoJSONUsed     bool     `json:"geojson_used,omitempty"`
}

// ScanPayload initiates a scan against the backend.
type ScanPayload struct {
	Mode            string   `json:"mode"`        // choice or random
	RegionType      string   `json:"region_type"` // city, state, country
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Country         string   `json:"country,omitempty"`
	Keywords        []string `json:"keywords"`
	DPIConcurrency  int      `json:"dpi_concurrency,omitempty"`
	PlacesLimit     int      `json:"google_places_limit,omitempty"`
	UserID          string   `json:"user_id"`
	LocationBiasLat *float64 `json:"location_bias_lat,omitempty"`
	LocationBiasLng *float64 `json:"location_bias_lng,omitempty"`
	CacheScope      string   `json:"cache_scope,omitempty"` // none, 1d, 7d, 30d
}

// ProgressEntry is the latest progress record for a running scan job.
// Step runs 1..6; step >= 6 means the job is finished.
type ProgressEntry struct {
	ScanID    string `json:"scan_id"`
	Step      int    `json:"step"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// CitySummary aggregates a user's scanned businesses per city.
type CitySummary struct {
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	BusinessCount int    `json:"business_count"`
	LastScanned   string `json:"last_scanned"`
}

// Insights is the aggregate view over a filtered business set.
type Insights struct {
	AvgDPI      float64        `json:"avg_dpi"`
	BadgeCounts map[string]int `json:"badge_counts"`
	TopBadge    string         `json:"top_badge"`
	TopCity     string         `json:"top_city,omitempty"`
}

// UserAccount mirrors the backend's account settings record.
type UserAccount struct {
	ID                 int64   `json:"id"`
	Username           *string `json:"username"`
	FullName           *string `json:"full_name"`
	Email              string  `json:"email"`
	Phone              *string `json:"phone"`
	GoogleAPIKey       *string `json:"google_api_key"`
	GeminiAPIKey       *string `json:"gemini_api_key"`
	GoogleSearchAPIKey *string `json:"google_search_api_key"`
	GoogleSearchCX     *string `json:"google_search_cx"`
	Plan               string  `json:"plan"`
	PlanStatus         string  `json:"plan_status"`
	PlanRenewal        *string `json:"plan_renewal"`
	ScanUsage          int     `json:"scan_usage"`
	ScanLimit          int     `json:"scan_limit"`
	Role               string  `json:"role"`
	IsVerified         bool    `json:"is_verified"`
	CreatedAt          string  `json:"created_at"`
}

// AccountUpdate carries the editable subset of UserAccount. Nil fields
// are left untouched by the backend.
type AccountUpdate struct {
	Username           *string `json:"username,omitempty"`
	FullName           *string `json:"full_name,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	GoogleAPIKey       *string `json:"google_api_key,omitempty"`
	GeminiAPIKey       *string `json:"gemini_api_key,omitempty"`
	GoogleSearchAPIKey *string `json:"google_search_api_key,omitempty"`
	GoogleSearchCX     *string `json:"google_search_cx,omitempty"`
}

// Subscription is the billing view of an account.
type Subscription struct {
	Plan        string  `json:"plan"`
	PlanStatus  string  `json:"plan_status"` // active, trialing, canceled
	PlanRenewal *string `json:"plan_renewal"`
	ScanLimit   int     `json:"scan_limit"`
	ScanUsage   int     `json:"scan_usage"`
}

// UserOverview summarizes the user population for the admin dashboard.
type UserOverview struct {
	Total            int            `json:"total"`
	ActiveLast30Days int            `json:"active_last_30_days"`
	NewLast7Days     int            `json:"new_last_7_days"`
	ByPlan           map[string]int `json:"by_plan"`
	ByRole           map[string]int `json:"by_role,omitempty"`
}

// CityCount pairs a city with its scan count.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// UserCount pairs a user email with its scan count.
type UserCount struct {
	Email string `json:"email"`
	Count int    `json:"count"`
}

// WeekCount pairs an ISO week with its scan count.
type WeekCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// CategoryCount pairs a business category with its record count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ScanOverview summarizes scan activity for the admin dashboard.
type ScanOverview struct {
	Total       int         `json:"total"`
	TopCities   []CityCount `json:"top_cities"`
	TopUsers    []UserCount `json:"top_users"`
	WeeklyTrend []WeekCount `json:"weekly_trend"`
}

// BusinessOverview summarizes stored businesses for the admin dashboard.
type BusinessOverview struct {
	Total         int             `json:"total"`
	LowDPICount   int             `json:"low_dpi_count"`
	TopCategories []CategoryCount `json:"top_categories"`
}

// SubscriptionOverview summarizes billing for the admin dashboard.
type SubscriptionOverview struct {
	TotalActive       int            `json:"total_active"`
	RevenueThisMonth  float64        `json:"revenue_this_month"`
	CanceledThisMonth int            `json:"canceled_this_month"`
	UpcomingRenewals  int            `json:"upcoming_renewals"`
	ByPlan            map[string]int `json:"by_plan"`
}

// AdminOverview is the combined admin dashboard payload.
type AdminOverview struct {
	Users         UserOverview         `json:"users"`
	Scans         ScanOverview         `json:"scans"`
	Businesses    BusinessOverview     `json:"businesses"`
	Subscriptions SubscriptionOverview `json:"subscriptions"`
}

// ScanLogEntry is one row of the admin activity feed.
type ScanLogEntry struct {
	Timestamp string  `json:"timestamp"`
	City      string  `json:"city"`
	UserEmail string  `json:"user_email"`
	Status    string  `json:"status"`
	Error     *string `json:"error,omitempty"`
}

// SystemHealth is the admin system health panel payload.
type SystemHealth struct {
	GoogleAPIUsage    float64  `json:"google_api_usage"`
	GeminiAPIUsage    float64  `json:"gemini_api_usage"`
	LastEnrichment    string   `json:"last_enrichment"`
	ErrorCountLast24h int      `json:"error_count_last_24h"`
	Warnings          []string `json:"warnings"`
}

// CacheMeta describes a locally persisted fetch result, used for
// offline listings and exports.
type CacheMeta struct {
	Scope     string    `json:"scope"`
	Key       string    `json:"key"`
	Total     *int      `json:"total,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
