// Package progress watches a running scan job and translates its step
// counter into user-facing status updates.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/util"
)

// FinalStep is the step at which a scan counts as finished. The
// backend may report past it; anything at or beyond is done.
const FinalStep = 6

// stepLabels is the fallback wording per step, used when the backend
// sends no status text of its own.
var stepLabels = map[int]string{
	1: "Starting scan...",
	2: "Validating location...",
	3: "Resolving city boundaries...",
	4: "Collecting businesses...",
	5: "Scoring digital presence...",
	6: "Saving results...",
}

// StepLabel returns the fallback label for a step. Out-of-range steps
// get a generic in-progress label rather than an empty string.
func StepLabel(step int) string {
	if label, ok := stepLabels[step]; ok {
		return label
	}
	if step > FinalStep {
		return stepLabels[FinalStep]
	}
	return "Working..."
}

// Percent maps a step to a 0-100 progress figure.
func Percent(step int) int {
	pct := step * 20
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Snapshot is one observed state of a scan job.
type Snapshot struct {
	ScanID  string
	Step    int
	Percent int
	Label   string
	Done    bool
}

// Source is the slice of the backend client the poller needs.
type Source interface {
	GetScanProgress(ctx context.Context, scanID string) (model.ProgressEntry, error)
}

// Poller polls a scan job on a fixed cadence and reports each observed
// state plus exactly one completion per run. The cadence is 2x the
// configured base; after the final step the poller lingers 1.5x base
// before announcing completion so the last status stays readable.
type Poller struct {
	src  Source
	base time.Duration

	mu   sync.Mutex
	stop chan struct{} // nil when idle

	onUpdate func(Snapshot)
	onDone   func(Snapshot)
}

// NewPoller builds an idle poller. base must be positive; the
// config loader guarantees that for wired callers.
func NewPoller(src Source, base time.Duration) *Poller {
	if base <= 0 {
		base = time.Second
	}
	return &Poller{src: src, base: base}
}

// OnUpdate sets the callback invoked for every observed state,
// including the initial one.
func (p *Poller) OnUpdate(fn func(Snapshot)) {
	p.mu.Lock()
	p.onUpdate = fn
	p.mu.Unlock()
}

// OnDone sets the completion callback, invoked once per run.
func (p *Poller) OnDone(fn func(Snapshot)) {
	p.mu.Lock()
	p.onDone = fn
	p.mu.Unlock()
}

// Active reports whether a run is in flight.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// Start begins watching a job from the step the backend acknowledged.
// Calling Start while a run is active tears the old run down first, so
// at most one timer ever drives updates.
func (p *Poller) Start(ctx context.Context, scanID string, initialStep int) {
	p.mu.Lock()
	if p.stop != nil {
		close(p.stop)
	}
	stop := make(chan struct{})
	p.stop = stop
	onUpdate := p.onUpdate
	onDone := p.onDone
	p.mu.Unlock()

	if initialStep < 1 {
		initialStep = 1
	}
	snap := p.observe(model.ProgressEntry{ScanID: scanID, Step: initialStep}, onUpdate)
	if snap.Done {
		go p.finish(ctx, stop, snap, onDone)
		return
	}
	go p.run(ctx, scanID, stop, onUpdate, onDone)
}

// Stop tears down the active run, if any. Safe to call when idle.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.mu.Unlock()
}

func (p *Poller) run(ctx context.Context, scanID string, stop chan struct{}, onUpdate func(Snapshot), onDone func(Snapshot)) {
	ticker := time.NewTicker(2 * p.base)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			p.clear(stop)
			return
		case <-ticker.C:
			entry, err := p.src.GetScanProgress(ctx, scanID)
			if err != nil {
				// Transient poll failures keep the last shown state.
				util.Warn("progress: poll failed for scan %s: %v", scanID, err)
				continue
			}
			if entry.ScanID == "" {
				entry.ScanID = scanID
			}
			snap := p.observe(entry, onUpdate)
			if snap.Done {
				p.finish(ctx, stop, snap, onDone)
				return
			}
		}
	}
}

// observe converts an entry to a snapshot and reports it. The server's
// own status wording wins over the fallback label table.
func (p *Poller) observe(entry model.ProgressEntry, onUpdate func(Snapshot)) Snapshot {
	label := entry.Status
	if label == "" {
		label = StepLabel(entry.Step)
	}
	snap := Snapshot{
		ScanID:  entry.ScanID,
		Step:    entry.Step,
		Percent: Percent(entry.Step),
		Label:   label,
		Done:    entry.Step >= FinalStep,
	}
	if onUpdate != nil {
		onUpdate(snap)
	}
	return snap
}

// finish lingers, then announces completion unless the run was torn
// down during the pause.
func (p *Poller) finish(ctx context.Context, stop chan struct{}, snap Snapshot, onDone func(Snapshot)) {
	pause := time.NewTimer(3 * p.base / 2)
	defer pause.Stop()

	select {
	case <-stop:
		return
	case <-ctx.Done():
		p.clear(stop)
		return
	case <-pause.C:
	}

	p.clear(stop)
	if onDone != nil {
		onDone(snap)
	}
}

// clear releases the run slot, but only if it still belongs to this
// run; a newer Start owns the slot otherwise.
func (p *Poller) clear(stop chan struct{}) {
	p.mu.Lock()
	if p.stop == stop {
		p.stop = nil
	}
	p.mu.Unlock()
}
