package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		resp := map[string]interface{}{
			"display_name": "Sixth Street, Austin, Travis County, Texas, United States",
			"address": map[string]string{
				"city":    "Austin",
				"state":   "Texas",
				"country": "United States",
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGeocoder(endpoint string, ttl time.Duration, max int) *Geocoder {
	return New(Options{
		Endpoint: endpoint,
		TTL:      ttl,
		MaxItems: max,
		RPS:      1000, // tests should not wait on pacing
	})
}

func TestKeyRoundsToFourDecimals(t *testing.T) {
	a := Key(30.26715999, -97.74306001)
	b := Key(30.26716, -97.74306)
	if a != b {
		t.Errorf("nearby coordinates should share a key: %q vs %q", a, b)
	}
	if a == Key(30.2673, -97.7431) {
		t.Error("distinct rounded coordinates must not collide")
	}
}

func TestReverseCachesByRoundedCoordinates(t *testing.T) {
	var hits int64
	srv := newServer(t, &hits)
	defer srv.Close()

	g := newTestGeocoder(srv.URL, time.Hour, 16)
	ctx := context.Background()

	p1, err := g.Reverse(ctx, 30.26715999, -97.74306001)
	if err != nil {
		t.Fatal(err)
	}
	if p1.City != "Austin" || p1.State != "Texas" {
		t.Fatalf("unexpected place: %+v", p1)
	}

	// Sub-rounding jitter must hit the cache, not the network.
	if _, err := g.Reverse(ctx, 30.26716, -97.74306); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("expected 1 upstream request, got %d", n)
	}

	stats := g.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected cache stats: %+v", stats)
	}
}

func TestReverseExpiresEntries(t *testing.T) {
	var hits int64
	srv := newServer(t, &hits)
	defer srv.Close()

	g := newTestGeocoder(srv.URL, time.Minute, 16)
	base := time.Now()
	g.now = func() time.Time { return base }

	ctx := context.Background()
	if _, err := g.Reverse(ctx, 30.2672, -97.7431); err != nil {
		t.Fatal(err)
	}

	// Still fresh: served from cache.
	base = base.Add(30 * time.Second)
	if _, err := g.Reverse(ctx, 30.2672, -97.7431); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("fresh entry should not refetch, got %d requests", n)
	}

	// Past the TTL: refetched.
	base = base.Add(time.Hour)
	if _, err := g.Reverse(ctx, 30.2672, -97.7431); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt64(&hits); n != 2 {
		t.Errorf("expired entry should refetch, got %d requests", n)
	}
}

func TestCacheEvictsOldestAtCapacity(t *testing.T) {
	var hits int64
	srv := newServer(t, &hits)
	defer srv.Close()

	g := newTestGeocoder(srv.URL, time.Hour, 2)
	base := time.Now()
	g.now = func() time.Time { return base }

	ctx := context.Background()
	coords := [][2]float64{{30.1, -97.1}, {30.2, -97.2}, {30.3, -97.3}}
	for _, c := range coords {
		if _, err := g.Reverse(ctx, c[0], c[1]); err != nil {
			t.Fatal(err)
		}
		base = base.Add(time.Second)
	}

	stats := g.CacheStats()
	if stats.Entries != 2 {
		t.Fatalf("cache should stay at capacity 2, has %d entries", stats.Entries)
	}

	// The oldest coordinate was evicted and must refetch.
	if _, err := g.Reverse(ctx, 30.1, -97.1); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt64(&hits); n != 4 {
		t.Errorf("expected 4 upstream requests after eviction refetch, got %d", n)
	}
}

func TestReverseSurfacesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL, time.Hour, 16)
	if _, err := g.Reverse(context.Background(), 30.1, -97.1); err == nil {
		t.Fatal("expected an error from a failing upstream")
	}
	if stats := g.CacheStats(); stats.Entries != 0 {
		t.Errorf("failed lookups must not be cached, have %d entries", stats.Entries)
	}
}
