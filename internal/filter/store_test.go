package filter

import (
	"context"
	"testing"
)

func TestTriCycle(t *testing.T) {
	order := []Tri{TriUnset, TriTrue, TriFalse, TriUnset}
	for i := 0; i < len(order)-1; i++ {
		if got := order[i].Cycle(); got != order[i+1] {
			t.Errorf("Cycle from %v: expected %v, got %v", order[i], order[i+1], got)
		}
	}
}

func TestSelectScanClearsCity(t *testing.T) {
	s := NewStore()
	s.SelectCity(CitySelection{City: "Austin", State: "TX", Country: "US"})

	s.SelectScan("scan-123")

	c := s.Get()
	if c.SelectionType != SelectionScan {
		t.Fatalf("expected scan selection, got %q", c.SelectionType)
	}
	if c.ScanID != "scan-123" {
		t.Errorf("expected scan id scan-123, got %q", c.ScanID)
	}
	if c.CitySelection != nil {
		t.Errorf("expected city selection cleared, got %+v", c.CitySelection)
	}
}

func TestSelectCityClearsScan(t *testing.T) {
	s := NewStore()
	s.SelectScan("scan-123")

	s.SelectCity(CitySelection{City: "Austin", State: "TX", Country: "US"})

	c := s.Get()
	if c.SelectionType != SelectionCity {
		t.Fatalf("expected city selection, got %q", c.SelectionType)
	}
	if c.ScanID != "" {
		t.Errorf("expected scan id cleared, got %q", c.ScanID)
	}
	if c.CitySelection == nil || c.CitySelection.City != "Austin" {
		t.Errorf("expected Austin selection, got %+v", c.CitySelection)
	}
}

func TestUpdateDoesNotResurrectClearedScope(t *testing.T) {
	s := NewStore()
	s.SelectCity(CitySelection{City: "Austin", State: "TX", Country: "US"})
	s.SelectScan("scan-123")

	// An unrelated update while in scan mode must not reintroduce the
	// stale city selection.
	s.Update(func(c *Criteria) {
		c.Search = "coffee"
	})

	c := s.Get()
	if c.CitySelection != nil {
		t.Errorf("stale city selection resurrected: %+v", c.CitySelection)
	}
	if c.ScanID != "scan-123" {
		t.Errorf("scan id lost across update: %q", c.ScanID)
	}
	if c.Search != "coffee" {
		t.Errorf("expected search to be set, got %q", c.Search)
	}
}

func TestSetNormalizesScope(t *testing.T) {
	s := NewStore()
	s.Set(Criteria{
		SelectionType: SelectionScan,
		ScanID:        "scan-1",
		CitySelection: &CitySelection{City: "Austin", State: "TX", Country: "US"},
	})

	c := s.Get()
	if c.CitySelection != nil {
		t.Errorf("Set should drop the city selection in scan mode, got %+v", c.CitySelection)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := NewStore()
	min := 50
	s.Set(Criteria{MinDPI: &min, Search: "plumber", HasWebsite: TriTrue})

	s.Reset()

	c := s.Get()
	if c.MinDPI != nil || c.Search != "" || c.HasWebsite != TriUnset {
		t.Errorf("expected empty criteria after reset, got %+v", c)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s := NewStore()
	var seen []string
	unsub := s.Subscribe(func(c Criteria) {
		seen = append(seen, c.Search)
	})

	s.Update(func(c *Criteria) { c.Search = "a" })
	s.Update(func(c *Criteria) { c.Search = "b" })
	unsub()
	s.Update(func(c *Criteria) { c.Search = "c" })

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("expected notifications [a b], got %v", seen)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Update(func(c *Criteria) { c.Badges = []string{"Web Leader"} })

	c := s.Get()
	c.Badges[0] = "mutated"

	if got := s.Get().Badges[0]; got != "Web Leader" {
		t.Errorf("store state mutated through Get copy: %q", got)
	}
}

func TestFromContextPanicsOutsideScope(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when no store is in scope")
		}
	}()
	FromContext(context.Background())
}

func TestFromContextReturnsStore(t *testing.T) {
	s := NewStore()
	ctx := WithStore(context.Background(), s)
	if got := FromContext(ctx); got != s {
		t.Fatal("FromContext returned a different store")
	}
}
