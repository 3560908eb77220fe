package filter

import (
	"context"
	"sync"
)

// Store is the shared holder of the current Criteria. Any number of
// independent controls may mutate it; presenters subscribe to observe
// changes. Mutation is always a full replace (Set) or a merge (Update),
// never a direct field write.
type Store struct {
	mu       sync.RWMutex
	criteria Criteria
	subs     map[int]func(Criteria)
	nextSub  int
}

// NewStore creates a store with empty criteria.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Criteria))}
}

// Get returns a copy of the current criteria.
func (s *Store) Get() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria.Clone()
}

// Set replaces the criteria wholesale. Used when switching between the
// "all businesses", "by scan" and "by city" modes, which produce
// mutually exclusive shapes.
func (s *Store) Set(c Criteria) {
	c = c.Clone()
	c.normalize()

	s.mu.Lock()
	s.criteria = c
	s.mu.Unlock()

	s.notify()
}

// Update applies a partial mutation to a copy of the criteria and
// commits the result. The scope invariant is re-enforced afterwards, so
// an update to an unrelated field cannot reintroduce a cleared scan id
// or city selection.
func (s *Store) Update(mutate func(*Criteria)) {
	s.mu.Lock()
	next := s.criteria.Clone()
	mutate(&next)
	next.normalize()
	s.criteria = next
	s.mu.Unlock()

	s.notify()
}

// SelectScan switches the scope to a single scan, clearing any city
// selection.
func (s *Store) SelectScan(scanID string) {
	s.Update(func(c *Criteria) {
		c.SelectionType = SelectionScan
		c.ScanID = scanID
		c.CitySelection = nil
	})
}

// SelectCity switches the scope to a single city, clearing any scan id.
func (s *Store) SelectCity(sel CitySelection) {
	s.Update(func(c *Criteria) {
		c.SelectionType = SelectionCity
		c.CitySelection = &sel
		c.ScanID = ""
	})
}

// ClearSelection returns to the "all businesses" scope.
func (s *Store) ClearSelection() {
	s.Update(func(c *Criteria) {
		c.SelectionType = SelectionNone
	})
}

// Reset clears the criteria to empty.
func (s *Store) Reset() {
	s.mu.Lock()
	s.criteria = Criteria{}
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers a listener invoked after every commit. The
// returned function unsubscribes; callers must invoke it on teardown.
func (s *Store) Subscribe(fn func(Criteria)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	current := s.criteria.Clone()
	listeners := make([]func(Criteria), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(current)
	}
}

type ctxKey struct{}

// WithStore attaches a store to the context, establishing the provider
// scope for everything below it.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store attached to the context. Calling it
// outside an active store scope is a programmer error and panics so
// integration mistakes surface immediately instead of silently reading
// default criteria.
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	if !ok || s == nil {
		panic("filter: FromContext called outside an active store scope; wrap the caller with filter.WithStore")
	}
	return s
}
