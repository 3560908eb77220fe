package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/leadfindr/internal/model"
)

func boolPtr(v bool) *bool { return &v }

func sampleData() *Data {
	scan := model.ScanHistoryEntry{
		ScanID:          "scan-42",
		RegionType:      "city",
		City:            "Austin",
		State:           "TX",
		Country:         "USA",
		Keywords:        []string{"plumber", "roofing"},
		Status:          "success",
		BusinessCount:   4,
		DurationSeconds: 12.5,
	}
	businesses := []model.Business{
		{PlaceID: "a", Name: "Apex Plumbing", City: "Austin", DPIScore: 97, HasWebsite: boolPtr(true)},
		{PlaceID: "b", Name: "Budget Roofing", City: "Austin", DPIScore: 72, HasWebsite: boolPtr(true)},
		{PlaceID: "c", Name: "Corner Drains", City: "Austin", DPIScore: 35, HasWebsite: boolPtr(false)},
		{PlaceID: "d", Name: "Dusty Pipes", City: "Austin", DPIScore: 10, HasWebsite: boolPtr(false)},
	}
	return Build(scan, businesses)
}

func TestAvgDPI(t *testing.T) {
	d := sampleData()
	want := (97.0 + 72 + 35 + 10) / 4
	if got := d.AvgDPI(); got != want {
		t.Errorf("AvgDPI = %v, want %v", got, want)
	}

	empty := Build(model.ScanHistoryEntry{}, nil)
	if got := empty.AvgDPI(); got != 0 {
		t.Errorf("empty set AvgDPI = %v, want 0", got)
	}
}

func TestTierCountsAreOrderedBestFirst(t *testing.T) {
	d := sampleData()
	got := d.TierCounts()

	want := []TierCount{
		{Tier: "Elite", Count: 1},
		{Tier: "Growing Presence", Count: 1},
		{Tier: "Basic Footprint", Count: 1},
		{Tier: "Invisible", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tiers, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tier %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRenderMarkdownSections(t *testing.T) {
	d := sampleData()
	md := RenderMarkdown(d)

	for _, want := range []string{
		"# Scan Report: Austin, USA",
		"**Scan ID:** scan-42",
		"**Average DPI:** 53.5",
		"**No website:** 2",
		"## Tier Distribution",
		"```mermaid",
		`"Elite" : 1`,
		"## Strongest Presence",
		"## Biggest Opportunities",
		"| Apex Plumbing | Austin | 97.0 | Elite |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Strongest list leads with the highest score, opportunities with
	// the lowest.
	strongest := strings.Index(md, "## Strongest Presence")
	opportunities := strings.Index(md, "## Biggest Opportunities")
	if strongest == -1 || opportunities == -1 || strongest > opportunities {
		t.Fatal("ranking sections are out of order")
	}
	if apex := strings.Index(md, "Apex Plumbing"); apex < strongest {
		t.Error("best business should appear in the strongest section")
	}
}

func TestRenderMarkdownEmptySet(t *testing.T) {
	d := Build(model.ScanHistoryEntry{ScanID: "scan-0", Status: "failed"}, nil)
	md := RenderMarkdown(d)
	if strings.Contains(md, "## Tier Distribution") {
		t.Error("empty set must not render a distribution")
	}
	if !strings.Contains(md, "**Businesses:** 0") {
		t.Error("summary should still report the zero count")
	}
}

func TestSaveWritesMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	d := sampleData()

	path, err := Save(dir, d)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("report written outside target dir: %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "scan-scan-42-") || !strings.HasSuffix(path, ".md") {
		t.Errorf("unexpected report name: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(raw), "# Scan Report: Austin, USA") {
		t.Error("written report is missing the title")
	}
}
