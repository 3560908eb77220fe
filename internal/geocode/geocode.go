// Package geocode resolves coordinates to place names for map tooltips
// and scan summaries. Lookups go to a Nominatim-style reverse endpoint
// and are cached, because map hovers revisit the same coordinates
// constantly.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Place is a resolved location.
type Place struct {
	Label   string `json:"label"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type cacheEntry struct {
	place   Place
	addedAt time.Time
}

// Geocoder performs rate-limited reverse lookups over a bounded TTL
// cache. Coordinates are rounded to four decimals (~11m) before
// keying, so nearby hover points share one entry.
type Geocoder struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter

	mu     sync.Mutex
	cache  map[string]cacheEntry
	ttl    time.Duration
	max    int
	hits   uint64
	misses uint64

	now func() time.Time
}

// Options tune the geocoder; zero values fall back to the defaults the
// config layer also uses.
type Options struct {
	Endpoint string
	TTL      time.Duration
	MaxItems int
	RPS      float64
	Client   *http.Client
}

// New builds a geocoder.
func New(opts Options) *Geocoder {
	if opts.Endpoint == "" {
		opts.Endpoint = "https://nominatim.openstreetmap.org/reverse"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 512
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Geocoder{
		endpoint: opts.Endpoint,
		client:   opts.Client,
		limiter:  rate.NewLimiter(rate.Limit(opts.RPS), 1),
		cache:    make(map[string]cacheEntry),
		ttl:      opts.TTL,
		max:      opts.MaxItems,
		now:      time.Now,
	}
}

// Key returns the cache key for a coordinate pair.
func Key(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

// Reverse resolves a coordinate pair, hitting the network only on a
// cache miss. The limiter paces outbound requests; cached answers are
// never delayed.
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	key := Key(lat, lng)

	g.mu.Lock()
	if entry, ok := g.cache[key]; ok {
		if g.now().Sub(entry.addedAt) < g.ttl {
			g.hits++
			g.mu.Unlock()
			return entry.place, nil
		}
		delete(g.cache, key)
	}
	g.misses++
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		return Place{}, err
	}

	place, err := g.fetch(ctx, lat, lng)
	if err != nil {
		return Place{}, err
	}

	g.mu.Lock()
	g.evictIfFull()
	g.cache[key] = cacheEntry{place: place, addedAt: g.now()}
	g.mu.Unlock()

	return place, nil
}

// evictIfFull drops the oldest entry once the cache is at capacity.
// Caller holds g.mu.
func (g *Geocoder) evictIfFull() {
	if len(g.cache) < g.max {
		return
	}
	var oldestKey string
	var oldestAt time.Time
	for k, e := range g.cache {
		if oldestKey == "" || e.addedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.addedAt
		}
	}
	if oldestKey != "" {
		delete(g.cache, oldestKey)
	}
}

func (g *Geocoder) fetch(ctx context.Context, lat, lng float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
		Address     struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, err
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	if city == "" {
		city = body.Address.Village
	}

	return Place{
		Label:   body.DisplayName,
		City:    city,
		State:   body.Address.State,
		Country: body.Address.Country,
	}, nil
}

// Stats reports cache effectiveness for the admin health view.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// CacheStats returns a snapshot of the cache counters.
func (g *Geocoder) CacheStats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{
		Entries: len(g.cache),
		Hits:    g.hits,
		Misses:  g.misses,
	}
}
