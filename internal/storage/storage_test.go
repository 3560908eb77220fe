package storage

import (
	"path/filepath"
	"testing"

	"github.com/user/leadfindr/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)
	s := NewSessionStorage(db)

	loaded, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Fatal("fresh db should hold no session")
	}

	account := &model.UserAccount{ID: 7, Email: "owner@example.com", Plan: "pro", Role: "user"}
	if err := s.Save(SavedSession{Token: "tok-1", Email: "owner@example.com", Account: account}); err != nil {
		t.Fatal(err)
	}

	loaded, err = s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.Token != "tok-1" || loaded.Email != "owner@example.com" {
		t.Fatalf("unexpected session: %+v", loaded)
	}
	if loaded.Account == nil || loaded.Account.Plan != "pro" {
		t.Fatalf("account did not survive the round trip: %+v", loaded.Account)
	}

	// Saving again replaces, never duplicates.
	if err := s.Save(SavedSession{Token: "tok-2", Email: "owner@example.com"}); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Token != "tok-2" {
		t.Errorf("expected replaced token, got %q", loaded.Token)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Error("session should be gone after Clear")
	}
}

func TestBusinessCacheReplaceScope(t *testing.T) {
	db := testDB(t)
	s := NewBusinessStorage(db)

	set := []model.Business{
		{PlaceID: "p1", Name: "Alpha Cafe", City: "Austin", DPIScore: 72},
		{PlaceID: "p2", Name: "Beta Plumbing", City: "Austin", DPIScore: 31},
	}
	total := 45
	if err := s.ReplaceScope("user", "all", set, &total); err != nil {
		t.Fatal(err)
	}

	got, meta, err := s.GetScope("user", "all")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cached records, got %d", len(got))
	}
	if meta == nil || meta.Total == nil || *meta.Total != 45 {
		t.Fatalf("unexpected cache meta: %+v", meta)
	}

	// Replacing shrinks the set rather than accumulating.
	if err := s.ReplaceScope("user", "all", set[:1], nil); err != nil {
		t.Fatal(err)
	}
	got, meta, err = s.GetScope("user", "all")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].PlaceID != "p1" {
		t.Fatalf("expected the single replaced record, got %+v", got)
	}
	if meta.Total != nil {
		t.Error("nil total must survive as nil, not become zero")
	}
}

func TestBusinessCacheScopesAreIsolated(t *testing.T) {
	db := testDB(t)
	s := NewBusinessStorage(db)

	if err := s.ReplaceScope("scan", "s1", []model.Business{{PlaceID: "a", Name: "A"}}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceScope("city", "austin|tx|us", []model.Business{{PlaceID: "b", Name: "B"}}, nil); err != nil {
		t.Fatal(err)
	}

	if n, err := s.CountByScope("scan", "s1"); err != nil || n != 1 {
		t.Fatalf("scan scope count = %d, err = %v", n, err)
	}

	if err := s.ClearScope("scan", "s1"); err != nil {
		t.Fatal(err)
	}
	if _, meta, err := s.GetScope("scan", "s1"); err != nil || meta != nil {
		t.Fatalf("cleared scope should report no meta, got %+v (err %v)", meta, err)
	}
	if n, _ := s.CountByScope("city", "austin|tx|us"); n != 1 {
		t.Errorf("clearing one scope must not touch another, count = %d", n)
	}
}

func TestScanHistoryUpsertAndList(t *testing.T) {
	db := testDB(t)
	s := NewScanHistoryStorage(db)

	avg := 64.2
	entries := []model.ScanHistoryEntry{
		{ScanID: "s1", City: "Austin", Status: "success", BusinessCount: 40, DPIAvg: &avg, Timestamp: "2026-08-01T10:00:00Z"},
		{ScanID: "s2", City: "Dallas", Status: "partial", BusinessCount: 12, Timestamp: "2026-08-02T10:00:00Z"},
	}
	if err := s.SaveAll(entries); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ScanID != "s2" {
		t.Fatalf("expected newest-first listing, got %+v", got)
	}
	if got[1].DPIAvg == nil || *got[1].DPIAvg != 64.2 {
		t.Errorf("dpi average did not survive: %+v", got[1].DPIAvg)
	}

	// Re-saving the same scan id updates in place.
	entries[1].Status = "success"
	entries[1].BusinessCount = 55
	if err := s.Save(entries[1]); err != nil {
		t.Fatal(err)
	}
	one, err := s.Get("s2")
	if err != nil {
		t.Fatal(err)
	}
	if one == nil || one.Status != "success" || one.BusinessCount != 55 {
		t.Fatalf("upsert did not update: %+v", one)
	}

	if limited, _ := s.List(1); len(limited) != 1 {
		t.Errorf("limit was ignored, got %d entries", len(limited))
	}

	missing, err := s.Get("nope")
	if err != nil || missing != nil {
		t.Errorf("unknown scan id should yield nil, nil; got %+v, %v", missing, err)
	}
}
