// Package fetch translates filter criteria into exactly one outbound
// business request per dispatch and normalizes the backend's three
// response shapes into a single envelope.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/user/leadfindr/internal/api"
	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/util"
)

// Mode selects which population of businesses a fetch targets.
type Mode string

const (
	ModeUser Mode = "user" // all of the user's businesses, paginated
	ModeScan Mode = "scan" // one scan's complete result set
	ModeCity Mode = "city" // one city's complete result set
)

// ModeFor derives the fetch mode from the criteria's selection scope.
func ModeFor(c filter.Criteria) Mode {
	switch c.SelectionType {
	case filter.SelectionScan:
		return ModeScan
	case filter.SelectionCity:
		return ModeCity
	default:
		return ModeUser
	}
}

// ConfigurationError means the caller violated a mode's required-field
// invariant. It is returned before any network call is attempted and
// indicates an integration bug, not a runtime condition.
type ConfigurationError struct {
	Mode    Mode
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("fetch: %s mode requires %s", e.Mode, strings.Join(e.Missing, ", "))
}

// Envelope is the normalized fetch result. Total is nil when the
// backend shape carries no count (scan and city modes): that means
// "pagination unavailable", never zero results.
type Envelope struct {
	Results []model.Business
	Total   *int
}

// KnownTotal returns the total and whether the backend supplied one.
func (e Envelope) KnownTotal() (int, bool) {
	if e.Total == nil {
		return 0, false
	}
	return *e.Total, true
}

// Request is one fetch intent: a mode, the criteria relevant to it, and
// pagination (meaningful in user mode only).
type Request struct {
	Mode     Mode
	Criteria filter.Criteria
	Page     int
	PageSize int
}

// API is the slice of the backend client the dispatcher needs.
type API interface {
	GetMyBusinesses(ctx context.Context, criteria filter.Criteria, limit, offset int) (api.BusinessPage, error)
	GetBusinessesByScan(ctx context.Context, scanID string, criteria filter.Criteria) ([]model.Business, error)
	GetBusinessesByCity(ctx context.Context, city, state, country string, criteria filter.Criteria) ([]model.Business, error)
}

// Dispatcher issues business fetches and guards presentation state
// against out-of-order completions: only the most recently dispatched
// request may apply its result.
type Dispatcher struct {
	api API

	mu        sync.Mutex
	latest    uint64
	staleSeen uint64

	onResults func(Envelope)
	onError   func(error)
}

// NewDispatcher wraps the API client.
func NewDispatcher(client API) *Dispatcher {
	return &Dispatcher{api: client}
}

// OnResults sets the presenter callback, invoked with the winning
// envelope of each dispatch round.
func (d *Dispatcher) OnResults(fn func(Envelope)) {
	d.mu.Lock()
	d.onResults = fn
	d.mu.Unlock()
}

// OnError sets the notifier for transport failures. The presenter still
// receives an empty envelope; this is the user-facing toast analog.
func (d *Dispatcher) OnError(fn func(error)) {
	d.mu.Lock()
	d.onError = fn
	d.mu.Unlock()
}

// Validate checks the mode's required fields without touching the
// network.
func Validate(req Request) error {
	switch req.Mode {
	case ModeScan:
		if req.Criteria.ScanID == "" {
			return &ConfigurationError{Mode: ModeScan, Missing: []string{"scan_id"}}
		}
	case ModeCity:
		sel := req.Criteria.CitySelection
		var missing []string
		if sel == nil || sel.City == "" {
			missing = append(missing, "city")
		}
		if sel == nil || sel.State == "" {
			missing = append(missing, "state")
		}
		if sel == nil || sel.Country == "" {
			missing = append(missing, "country")
		}
		if len(missing) > 0 {
			return &ConfigurationError{Mode: ModeCity, Missing: missing}
		}
	case ModeUser:
	default:
		return &ConfigurationError{Mode: req.Mode, Missing: []string{"a supported mode"}}
	}
	return nil
}

// Fetch performs one synchronous fetch with no staleness bookkeeping.
// CLI listings use this directly; the TUI goes through Dispatch.
func (d *Dispatcher) Fetch(ctx context.Context, req Request) (Envelope, error) {
	if err := Validate(req); err != nil {
		return Envelope{}, err
	}

	switch req.Mode {
	case ModeUser:
		pageSize := req.PageSize
		if pageSize <= 0 {
			pageSize = 20
		}
		page := req.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * pageSize

		res, err := d.api.GetMyBusinesses(ctx, req.Criteria, pageSize, offset)
		if err != nil {
			return Envelope{}, err
		}
		total := res.Total
		return Envelope{Results: res.Results, Total: &total}, nil

	case ModeScan:
		results, err := d.api.GetBusinessesByScan(ctx, req.Criteria.ScanID, req.Criteria)
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Results: results}, nil

	default: // ModeCity, validated above
		sel := req.Criteria.CitySelection
		results, err := d.api.GetBusinessesByCity(ctx, sel.City, sel.State, sel.Country, req.Criteria)
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Results: results}, nil
	}
}

// Dispatch validates synchronously, then fetches in the background.
// When the response lands it is applied through OnResults only if no
// newer dispatch happened meanwhile; superseded responses are discarded
// so a slow early response can never overwrite a newer filtered view.
// Transport failures on the winning request surface as an empty
// envelope plus the OnError notification.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	if err := Validate(req); err != nil {
		return err
	}

	d.mu.Lock()
	d.latest++
	gen := d.latest
	d.mu.Unlock()

	go func() {
		env, err := d.Fetch(ctx, req)
		d.apply(gen, env, err)
	}()

	return nil
}

func (d *Dispatcher) apply(gen uint64, env Envelope, err error) {
	d.mu.Lock()
	if gen != d.latest {
		// A newer request was issued while this one was in flight.
		d.staleSeen++
		d.mu.Unlock()
		util.Debug("fetch: discarding stale result (generation %d)", gen)
		return
	}
	onResults := d.onResults
	onError := d.onError
	d.mu.Unlock()

	if err != nil {
		util.Warn("fetch: request failed: %v", err)
		if onError != nil {
			onError(err)
		}
		env = Envelope{}
	}
	if onResults != nil {
		onResults(env)
	}
}

// StaleDiscards reports how many superseded responses were dropped.
func (d *Dispatcher) StaleDiscards() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.staleSeen
}
