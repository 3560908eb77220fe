// Package probe performs live website checks against scored
// businesses, so stale has_website / is_secure flags can be verified
// from this machine instead of waiting for the next backend scan.
package probe

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/user/leadfindr/internal/model"
)

// Result is one website check.
type Result struct {
	PlaceID   string
	Name      string
	URL       string
	Reachable bool
	Secure    bool
	Status    int
	LatencyMs float64
	Err       error
}

// WebsiteProbe checks business websites with bounded concurrency.
type WebsiteProbe struct {
	concurrency int
	client      *http.Client
}

// NewWebsiteProbe creates a probe. Redirects are followed so an http
// site that upgrades to https counts as secure.
func NewWebsiteProbe(concurrency int, timeout time.Duration) *WebsiteProbe {
	if concurrency <= 0 {
		concurrency = 8
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebsiteProbe{
		concurrency: concurrency,
		client:      &http.Client{Timeout: timeout},
	}
}

// Check probes a single URL.
func (p *WebsiteProbe) Check(ctx context.Context, rawURL string) Result {
	res := Result{URL: normalizeURL(rawURL)}
	if res.URL == "" {
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	res.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.Reachable = resp.StatusCode < 500
	res.Status = resp.StatusCode
	// Judge the final URL after redirects.
	if resp.Request != nil && resp.Request.URL != nil {
		res.Secure = resp.Request.URL.Scheme == "https"
	}
	return res
}

// CheckAll probes every business that has a website URL, using a
// worker pool. Businesses without a URL are skipped.
func (p *WebsiteProbe) CheckAll(ctx context.Context, businesses []model.Business) []Result {
	jobs := make(chan model.Business, len(businesses))
	out := make(chan Result, len(businesses))

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
					res := p.Check(ctx, b.WebsiteURL)
					res.PlaceID = b.PlaceID
					res.Name = b.Name
					out <- res
				}
			}
		}()
	}

	go func() {
		for _, b := range businesses {
			if b.WebsiteURL == "" {
				continue
			}
			select {
			case jobs <- b:
			case <-ctx.Done():
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	var results []Result
	for r := range out {
		results = append(results, r)
	}
	return results
}

// normalizeURL defaults bare hostnames to http so the redirect chain
// can reveal whether the site upgrades to https.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}
