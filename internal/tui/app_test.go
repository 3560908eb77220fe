package tui

import (
	"context"
	"testing"

	"github.com/user/leadfindr/internal/api"
	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/util"
)

type stubAPI struct{}

func (stubAPI) GetMyBusinesses(ctx context.Context, criteria filter.Criteria, limit, offset int) (api.BusinessPage, error) {
	return api.BusinessPage{}, nil
}

func (stubAPI) GetBusinessesByScan(ctx context.Context, scanID string, criteria filter.Criteria) ([]model.Business, error) {
	return nil, nil
}

func (stubAPI) GetBusinessesByCity(ctx context.Context, city, state, country string, criteria filter.Criteria) ([]model.Business, error) {
	return nil, nil
}

func TestAppCarriesFilterStoreOnContext(t *testing.T) {
	initial := filter.Criteria{SelectionType: filter.SelectionScan, ScanID: "scan-7"}
	a := NewApp(stubAPI{}, &util.Config{PageSize: 20}, initial)

	store := filter.FromContext(a.ctx)
	if got := store.Get(); got.ScanID != "scan-7" {
		t.Errorf("store not seeded from initial criteria: %+v", got)
	}

	m := newBrowserModel(a)
	if m.app.store != store {
		t.Error("browser must resolve its store from the app context")
	}
	if m.app.ctx != a.ctx {
		t.Error("browser must dispatch on the store-carrying context")
	}
}

func TestBrowserMutationsNotifySubscribers(t *testing.T) {
	a := NewApp(stubAPI{}, &util.Config{PageSize: 20}, filter.Criteria{})
	store := filter.FromContext(a.ctx)

	var changes int
	unsub := store.Subscribe(func(filter.Criteria) { changes++ })
	defer unsub()

	m := newBrowserModel(a)
	m.app.store.Update(func(c *filter.Criteria) { c.HasWebsite = c.HasWebsite.Cycle() })
	m.app.store.ClearSelection()

	if changes != 2 {
		t.Errorf("expected 2 notifications, got %d", changes)
	}
}
