package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/leadfindr/internal/api"
	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/model"
)

// fakeAPI lets tests hold responses in flight to reproduce out-of-order
// completion. Gates and canned pages are keyed by request offset so the
// scenario stays deterministic regardless of goroutine scheduling.
type fakeAPI struct {
	mu       sync.Mutex
	calls    int
	release  map[int]chan struct{} // offset -> gate
	pages    map[int]api.BusinessPage
	scanSets map[string][]model.Business
	citySets map[string][]model.Business
	err      error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		release:  make(map[int]chan struct{}),
		pages:    make(map[int]api.BusinessPage),
		scanSets: make(map[string][]model.Business),
		citySets: make(map[string][]model.Business),
	}
}

func (f *fakeAPI) began() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) GetMyBusinesses(ctx context.Context, criteria filter.Criteria, limit, offset int) (api.BusinessPage, error) {
	f.began()
	f.mu.Lock()
	gate := f.release[offset]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return api.BusinessPage{}, f.err
	}
	return f.pages[offset], nil
}

func (f *fakeAPI) GetBusinessesByScan(ctx context.Context, scanID string, criteria filter.Criteria) ([]model.Business, error) {
	f.began()
	if f.err != nil {
		return nil, f.err
	}
	return f.scanSets[scanID], nil
}

func (f *fakeAPI) GetBusinessesByCity(ctx context.Context, city, state, country string, criteria filter.Criteria) ([]model.Business, error) {
	f.began()
	if f.err != nil {
		return nil, f.err
	}
	return f.citySets[city], nil
}

func biz(name string) model.Business {
	return model.Business{PlaceID: "pid-" + name, Name: name}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"user mode needs nothing", Request{Mode: ModeUser}, false},
		{"scan mode without scan id", Request{Mode: ModeScan}, true},
		{
			"scan mode with scan id",
			Request{Mode: ModeScan, Criteria: filter.Criteria{SelectionType: filter.SelectionScan, ScanID: "s1"}},
			false,
		},
		{"city mode without selection", Request{Mode: ModeCity}, true},
		{
			"city mode with partial triple",
			Request{Mode: ModeCity, Criteria: filter.Criteria{
				SelectionType: filter.SelectionCity,
				CitySelection: &filter.CitySelection{City: "Austin"},
			}},
			true,
		},
		{
			"city mode with full triple",
			Request{Mode: ModeCity, Criteria: filter.Criteria{
				SelectionType: filter.SelectionCity,
				CitySelection: &filter.CitySelection{City: "Austin", State: "TX", Country: "US"},
			}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr && err == nil {
				t.Fatal("expected a ConfigurationError")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr {
				var cerr *ConfigurationError
				if !errors.As(err, &cerr) {
					t.Fatalf("expected *ConfigurationError, got %T", err)
				}
			}
		})
	}
}

func TestInvalidRequestIssuesNoNetworkCall(t *testing.T) {
	f := newFakeAPI()
	d := NewDispatcher(f)

	if err := d.Dispatch(context.Background(), Request{Mode: ModeScan}); err == nil {
		t.Fatal("expected synchronous ConfigurationError")
	}
	if _, err := d.Fetch(context.Background(), Request{Mode: ModeCity}); err == nil {
		t.Fatal("expected synchronous ConfigurationError")
	}
	if n := f.callCount(); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestFetchNormalizesEnvelopes(t *testing.T) {
	f := newFakeAPI()
	f.pages[20] = api.BusinessPage{Total: 45, Results: []model.Business{biz("a"), biz("b")}}
	f.scanSets["s1"] = []model.Business{biz("c")}

	d := NewDispatcher(f)

	env, err := d.Fetch(context.Background(), Request{Mode: ModeUser, Page: 2, PageSize: 20})
	if err != nil {
		t.Fatalf("user fetch failed: %v", err)
	}
	if total, ok := env.KnownTotal(); !ok || total != 45 {
		t.Errorf("expected known total 45, got %v %v", total, ok)
	}

	env, err = d.Fetch(context.Background(), Request{
		Mode:     ModeScan,
		Criteria: filter.Criteria{SelectionType: filter.SelectionScan, ScanID: "s1"},
	})
	if err != nil {
		t.Fatalf("scan fetch failed: %v", err)
	}
	if _, ok := env.KnownTotal(); ok {
		t.Error("scan mode must not report a total; absence means pagination unavailable")
	}
	if len(env.Results) != 1 || env.Results[0].Name != "c" {
		t.Errorf("unexpected scan results: %+v", env.Results)
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	f := newFakeAPI()
	// The page-1 request (offset 0) is held until released; the page-2
	// request (offset 20) completes immediately.
	gate := make(chan struct{})
	f.release[0] = gate
	f.pages[0] = api.BusinessPage{Total: 2, Results: []model.Business{biz("old"), biz("older")}}
	f.pages[20] = api.BusinessPage{Total: 1, Results: []model.Business{biz("new")}}

	d := NewDispatcher(f)

	var mu sync.Mutex
	var applied []Envelope
	done := make(chan struct{}, 2)
	d.OnResults(func(env Envelope) {
		mu.Lock()
		applied = append(applied, env)
		mu.Unlock()
		done <- struct{}{}
	})

	ctx := context.Background()
	if err := d.Dispatch(ctx, Request{Mode: ModeUser, Page: 1, PageSize: 20}); err != nil {
		t.Fatal(err)
	}
	if err := d.Dispatch(ctx, Request{Mode: ModeUser, Page: 2, PageSize: 20}); err != nil {
		t.Fatal(err)
	}

	// The second (newer) request resolves first.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the newer result")
	}

	// Now let the first (superseded) request resolve.
	close(gate)

	// Give the discarded goroutine a moment; it must NOT apply.
	deadline := time.After(time.Second)
	for d.StaleDiscards() == 0 {
		select {
		case <-deadline:
			t.Fatal("stale result was never discarded")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 {
		t.Fatalf("expected exactly one applied envelope, got %d", len(applied))
	}
	if len(applied[0].Results) != 1 || applied[0].Results[0].Name != "new" {
		t.Errorf("visible state reflects the superseded request: %+v", applied[0].Results)
	}
}

func TestTransportFailureYieldsEmptyEnvelopeAndNotification(t *testing.T) {
	f := newFakeAPI()
	f.err = &api.TransportError{Status: 503, Detail: "backend down"}

	d := NewDispatcher(f)

	var notified error
	applied := make(chan Envelope, 1)
	d.OnError(func(err error) { notified = err })
	d.OnResults(func(env Envelope) { applied <- env })

	if err := d.Dispatch(context.Background(), Request{Mode: ModeUser, Page: 1, PageSize: 20}); err != nil {
		t.Fatalf("dispatch should not fail synchronously on transport errors: %v", err)
	}

	select {
	case env := <-applied:
		if len(env.Results) != 0 {
			t.Errorf("expected empty result set on failure, got %d records", len(env.Results))
		}
		if _, ok := env.KnownTotal(); ok {
			t.Error("failed fetch must not invent a total")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("presenter never received the empty envelope")
	}

	var terr *api.TransportError
	if !errors.As(notified, &terr) {
		t.Errorf("expected TransportError notification, got %v", notified)
	}
}

func TestModeFor(t *testing.T) {
	if got := ModeFor(filter.Criteria{}); got != ModeUser {
		t.Errorf("empty criteria: expected user mode, got %s", got)
	}
	if got := ModeFor(filter.Criteria{SelectionType: filter.SelectionScan, ScanID: "x"}); got != ModeScan {
		t.Errorf("expected scan mode, got %s", got)
	}
	if got := ModeFor(filter.Criteria{SelectionType: filter.SelectionCity}); got != ModeCity {
		t.Errorf("expected city mode, got %s", got)
	}
}
