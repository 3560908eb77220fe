// Package present turns fetch envelopes into what the list and map
// views actually display: one page of rows for the list, the complete
// plottable set for the map.
package present

import (
	"github.com/user/leadfindr/internal/fetch"
	"github.com/user/leadfindr/internal/model"
)

// DefaultPageSize matches the backend's default page length.
const DefaultPageSize = 20

// Presenter owns the current page cursor and the last applied envelope.
// Two pagination regimes coexist: when the envelope carries a total the
// backend already sliced the page (user mode), so Results IS the page;
// when it does not (scan and city modes) Results is the complete set
// and the presenter slices locally.
type Presenter struct {
	pageSize int
	page     int

	env        fetch.Envelope
	serverSide bool
}

// NewPresenter starts on page 1 with an empty result set.
func NewPresenter(pageSize int) *Presenter {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Presenter{pageSize: pageSize, page: 1}
}

// Apply installs a fresh envelope and resets nothing: the cursor is the
// caller's to manage. Use Reset when the filter scope changed.
func (p *Presenter) Apply(env fetch.Envelope) {
	p.env = env
	_, p.serverSide = env.KnownTotal()
	if max, ok := p.TotalPages(); ok && p.page > max {
		p.page = clampPage(max)
	}
}

// Reset returns the cursor to page 1. Call it whenever the criteria
// that produced the envelope changed, so a deep cursor from the old
// scope cannot point past the new result set.
func (p *Presenter) Reset() {
	p.page = 1
}

// Page reports the 1-based current page.
func (p *Presenter) Page() int {
	return p.page
}

// PageSize reports the configured page length.
func (p *Presenter) PageSize() int {
	return p.pageSize
}

// SetPage jumps to a page, clamped to the known range. Jumping past a
// known last page lands on the last page; below 1 lands on 1.
func (p *Presenter) SetPage(page int) {
	if max, ok := p.TotalPages(); ok && page > max {
		page = max
	}
	p.page = clampPage(page)
}

// TotalPages reports the page count when the total is known. With an
// unknown total there is no page count to show; callers render the
// cursor alone.
func (p *Presenter) TotalPages() (int, bool) {
	total, ok := p.knownTotal()
	if !ok {
		return 0, false
	}
	pages := (total + p.pageSize - 1) / p.pageSize
	if pages < 1 {
		pages = 1
	}
	return pages, true
}

// Total reports the record count across all pages when known.
func (p *Presenter) Total() (int, bool) {
	return p.knownTotal()
}

func (p *Presenter) knownTotal() (int, bool) {
	if p.serverSide {
		return p.env.KnownTotal()
	}
	// Locally paginated sets always know their own length.
	if p.env.Results == nil {
		return 0, false
	}
	return len(p.env.Results), true
}

// CanPrev reports whether a previous page exists.
func (p *Presenter) CanPrev() bool {
	return p.page > 1
}

// CanNext reports whether advancing is allowed. With a known total the
// cursor stops at the last page. With an unknown total a short page is
// the only end signal, so advancing stays allowed until one arrives.
func (p *Presenter) CanNext() bool {
	if max, ok := p.TotalPages(); ok {
		return p.page < max
	}
	return len(p.env.Results) >= p.pageSize
}

// Next advances one page when allowed and reports whether it moved.
func (p *Presenter) Next() bool {
	if !p.CanNext() {
		return false
	}
	p.page++
	return true
}

// Prev steps back one page when allowed and reports whether it moved.
func (p *Presenter) Prev() bool {
	if !p.CanPrev() {
		return false
	}
	p.page--
	return true
}

// ListRows returns the rows for the current list page.
func (p *Presenter) ListRows() []model.Business {
	if p.serverSide {
		return p.env.Results
	}
	start := (p.page - 1) * p.pageSize
	if start >= len(p.env.Results) {
		return nil
	}
	end := start + p.pageSize
	if end > len(p.env.Results) {
		end = len(p.env.Results)
	}
	return p.env.Results[start:end]
}

// MapPoints returns every plottable record in the envelope, ignoring
// pagination. Records without coordinates are skipped, not zeroed onto
// the origin.
func (p *Presenter) MapPoints() []model.Business {
	points := make([]model.Business, 0, len(p.env.Results))
	for _, b := range p.env.Results {
		if b.HasCoords() {
			points = append(points, b)
		}
	}
	return points
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
