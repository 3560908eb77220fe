package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/user/leadfindr/internal/model"
)

func boolPtr(v bool) *bool { return &v }

func sampleSet() []model.Business {
	return []model.Business{
		{
			PlaceID: "p1", Name: "Alpha Cafe", Address: "1 Main St", City: "Austin",
			State: "TX", Country: "US", Category: "cafe",
			DPIScore: 82.5, DPIBadge: "Web Leader",
			WebsiteScore: 21, SocialScore: 18.5, BacklinkScore: 20, BrandScore: 23,
			HasWebsite: boolPtr(true), IsSecure: boolPtr(true),
			WebsiteURL: "https://alpha.example", Phone: "+1 512 555 0100",
		},
		{
			PlaceID: "p2", Name: "Beta Plumbing", City: "Austin",
			DPIScore: 12,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleSet()); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "name" || records[0][7] != "dpi_badge" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][6] != "82.5" || records[1][7] != "Web Leader" {
		t.Errorf("unexpected scored row: %v", records[1])
	}
	// The unscored record classifies locally and keeps tri-states blank.
	if records[2][7] != "Invisible" {
		t.Errorf("expected local badge fallback, got %q", records[2][7])
	}
	if records[2][12] != "" || records[2][13] != "" {
		t.Errorf("unknown tri-states must stay blank: %v", records[2])
	}
	if records[1][12] != "true" {
		t.Errorf("known tri-state lost: %v", records[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSet()); err != nil {
		t.Fatal(err)
	}
	var decoded []model.Business
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 || decoded[0].Name != "Alpha Cafe" {
		t.Fatalf("round trip lost data: %+v", decoded)
	}

	buf.Reset()
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty set should encode as [], got %q", buf.String())
	}
}

func TestSaveCreatesTimestampedFile(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, FormatCSV, "scan-s1", sampleSet())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".csv") {
		t.Errorf("unexpected export path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Alpha Cafe") {
		t.Error("export file missing data")
	}

	if _, err := Save(dir, FormatXLSX, "scan-s1", sampleSet()); err == nil {
		t.Error("xlsx must be rejected locally; the backend renders it")
	}
}

func TestSaveRaw(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("binary-ish xlsx payload")

	path, err := SaveRaw(dir, FormatXLSX, "", payload)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, ".xlsx") || !strings.Contains(path, "businesses-") {
		t.Errorf("unexpected raw export path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("raw export bytes were altered")
	}
}
