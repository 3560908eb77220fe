package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/user/leadfindr/internal/model"
)

// base keeps the 2x tick / 1.5x pause ratio while letting tests finish
// in milliseconds.
const base = 5 * time.Millisecond

// scriptedSource replays a fixed sequence of entries per poll and
// repeats the last one forever.
type scriptedSource struct {
	mu      sync.Mutex
	entries []model.ProgressEntry
	errs    []error
	polls   map[string]int
}

func newScriptedSource(entries ...model.ProgressEntry) *scriptedSource {
	return &scriptedSource{entries: entries, polls: make(map[string]int)}
}

func (s *scriptedSource) GetScanProgress(ctx context.Context, scanID string) (model.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.polls[scanID]
	s.polls[scanID] = n + 1

	if n < len(s.errs) && s.errs[n] != nil {
		return model.ProgressEntry{}, s.errs[n]
	}
	if len(s.entries) == 0 {
		return model.ProgressEntry{ScanID: scanID, Step: 1}, nil
	}
	if n >= len(s.entries) {
		n = len(s.entries) - 1
	}
	entry := s.entries[n]
	entry.ScanID = scanID
	return entry, nil
}

func (s *scriptedSource) pollCount(scanID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls[scanID]
}

type recorder struct {
	mu      sync.Mutex
	updates []Snapshot
	done    []Snapshot
	doneCh  chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{doneCh: make(chan Snapshot, 4)}
}

func (r *recorder) attach(p *Poller) {
	p.OnUpdate(func(s Snapshot) {
		r.mu.Lock()
		r.updates = append(r.updates, s)
		r.mu.Unlock()
	})
	p.OnDone(func(s Snapshot) {
		r.mu.Lock()
		r.done = append(r.done, s)
		r.mu.Unlock()
		r.doneCh <- s
	})
}

func (r *recorder) snapshotUpdates() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.updates...)
}

func (r *recorder) doneCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.done)
}

func (r *recorder) waitDone(t *testing.T) Snapshot {
	t.Helper()
	select {
	case s := <-r.doneCh:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completion")
		return Snapshot{}
	}
}

func entry(step int, status string) model.ProgressEntry {
	return model.ProgressEntry{Step: step, Status: status}
}

func TestFullRunReportsEveryStepAndCompletesOnce(t *testing.T) {
	src := newScriptedSource(
		entry(2, ""), entry(3, ""), entry(4, ""), entry(5, ""), entry(6, ""),
	)
	p := NewPoller(src, base)
	rec := newRecorder()
	rec.attach(p)

	p.Start(context.Background(), "scan-1", 1)

	final := rec.waitDone(t)
	if final.Step < FinalStep || !final.Done || final.Percent != 100 {
		t.Fatalf("unexpected completion snapshot: %+v", final)
	}

	// Let any stray timer fire; the count must not move.
	time.Sleep(4 * base)
	if n := rec.doneCount(); n != 1 {
		t.Fatalf("expected exactly one completion, got %d", n)
	}
	if p.Active() {
		t.Error("poller should be idle after completion")
	}

	got := rec.snapshotUpdates()
	wantSteps := []int{1, 2, 3, 4, 5, 6}
	if len(got) != len(wantSteps) {
		t.Fatalf("expected %d updates, got %d: %+v", len(wantSteps), len(got), got)
	}
	for i, want := range wantSteps {
		if got[i].Step != want {
			t.Errorf("update %d: expected step %d, got %d", i, want, got[i].Step)
		}
		if got[i].Percent != Percent(want) {
			t.Errorf("update %d: expected %d%%, got %d%%", i, Percent(want), got[i].Percent)
		}
	}
}

func TestServerStatusWinsOverFallbackLabel(t *testing.T) {
	src := newScriptedSource(
		entry(3, "Tracing district boundaries"),
		entry(6, ""),
	)
	p := NewPoller(src, base)
	rec := newRecorder()
	rec.attach(p)

	p.Start(context.Background(), "scan-2", 2)
	rec.waitDone(t)

	got := rec.snapshotUpdates()
	if len(got) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(got))
	}
	if got[0].Label != StepLabel(2) {
		t.Errorf("initial update should use the fallback label, got %q", got[0].Label)
	}
	if got[1].Label != "Tracing district boundaries" {
		t.Errorf("server wording should win, got %q", got[1].Label)
	}
	if got[2].Label != StepLabel(6) {
		t.Errorf("empty server status should fall back, got %q", got[2].Label)
	}
}

func TestPollErrorsAreSwallowed(t *testing.T) {
	src := newScriptedSource(entry(6, ""), entry(6, ""), entry(6, ""))
	src.errs = []error{errors.New("gateway timeout"), errors.New("gateway timeout")}

	p := NewPoller(src, base)
	rec := newRecorder()
	rec.attach(p)

	p.Start(context.Background(), "scan-3", 4)

	rec.waitDone(t)
	if n := rec.doneCount(); n != 1 {
		t.Fatalf("expected one completion despite poll errors, got %d", n)
	}
	// Two failed polls, then the successful one that finished the run.
	if n := src.pollCount("scan-3"); n != 3 {
		t.Errorf("expected 3 polls, got %d", n)
	}
}

func TestRestartTearsDownThePreviousRun(t *testing.T) {
	src := newScriptedSource(entry(3, "")) // never reaches the final step
	p := NewPoller(src, base)
	rec := newRecorder()
	rec.attach(p)

	ctx := context.Background()
	p.Start(ctx, "first", 1)
	time.Sleep(5 * base)

	p.Start(ctx, "second", 1)
	// One in-flight first-run poll may still land; after that the old
	// ticker is gone.
	time.Sleep(3 * base)
	settled := src.pollCount("first")

	time.Sleep(8 * base)
	if n := src.pollCount("first"); n != settled {
		t.Errorf("superseded run kept polling: %d -> %d", settled, n)
	}
	if src.pollCount("second") == 0 {
		t.Error("replacement run never polled")
	}
	if !p.Active() {
		t.Error("replacement run should still be active")
	}
	p.Stop()
	if p.Active() {
		t.Error("Stop should leave the poller idle")
	}
}

func TestAlreadyFinishedJobCompletesWithoutPolling(t *testing.T) {
	src := newScriptedSource()
	p := NewPoller(src, base)
	rec := newRecorder()
	rec.attach(p)

	p.Start(context.Background(), "done-before-start", 6)

	final := rec.waitDone(t)
	if !final.Done || final.Step != 6 {
		t.Fatalf("unexpected completion snapshot: %+v", final)
	}
	if n := src.pollCount("done-before-start"); n != 0 {
		t.Errorf("expected zero polls for a finished job, got %d", n)
	}
}

func TestStepLabelAndPercentBounds(t *testing.T) {
	tests := []struct {
		step    int
		percent int
	}{
		{0, 0},
		{1, 20},
		{3, 60},
		{5, 100},
		{6, 100},
		{9, 100}, // capped
	}
	for _, tt := range tests {
		if got := Percent(tt.step); got != tt.percent {
			t.Errorf("Percent(%d) = %d, want %d", tt.step, got, tt.percent)
		}
	}

	if StepLabel(7) != StepLabel(6) {
		t.Error("steps past the final one should reuse the final label")
	}
	if StepLabel(0) == "" {
		t.Error("out-of-range steps still need a label")
	}
}
