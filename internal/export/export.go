// Package export writes business result sets to local files. CSV and
// JSON are rendered locally; XLSX comes from the backend's export
// endpoint and is saved as-is.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/score"
	"github.com/user/leadfindr/internal/util"
)

// Formats the local writer understands. The backend additionally
// serves xlsx through its export endpoint.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var csvHeader = []string{
	"name", "address", "city", "state", "country", "category",
	"dpi_score", "dpi_badge",
	"website_score", "social_score", "backlink_score", "brand_score",
	"has_website", "is_secure", "website_url", "phone",
}

// WriteCSV renders the set as CSV with a fixed header row.
func WriteCSV(w io.Writer, businesses []model.Business) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, b := range businesses {
		row := []string{
			b.Name, b.Address, b.City, b.State, b.Country, b.Category,
			strconv.FormatFloat(b.DPIScore, 'f', 1, 64),
			score.BadgeFor(b),
			strconv.FormatFloat(b.WebsiteScore, 'f', 1, 64),
			strconv.FormatFloat(b.SocialScore, 'f', 1, 64),
			strconv.FormatFloat(b.BacklinkScore, 'f', 1, 64),
			strconv.FormatFloat(b.BrandScore, 'f', 1, 64),
			triString(b.HasWebsite),
			triString(b.IsSecure),
			b.WebsiteURL, b.Phone,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", b.PlaceID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// triString renders a tri-state flag; unknown stays blank rather than
// defaulting to false.
func triString(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

// WriteJSON renders the set as an indented JSON array.
func WriteJSON(w io.Writer, businesses []model.Business) error {
	if businesses == nil {
		businesses = []model.Business{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(businesses)
}

// Save writes the set to dir in the given format and returns the file
// path. The filename embeds the scope label and a timestamp so repeat
// exports never clobber each other.
func Save(dir, format, scopeLabel string, businesses []model.Business) (string, error) {
	if format != FormatCSV && format != FormatJSON {
		return "", fmt.Errorf("unsupported local export format %q", format)
	}
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(dir, exportName(scopeLabel, format, time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		err = WriteCSV(f, businesses)
	case FormatJSON:
		err = WriteJSON(f, businesses)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// SaveRaw writes backend-produced export bytes (xlsx, or server-side
// csv) straight to disk.
func SaveRaw(dir, format, scopeLabel string, data []byte) (string, error) {
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, exportName(scopeLabel, format, time.Now()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func exportName(scopeLabel, format string, at time.Time) string {
	if scopeLabel == "" {
		scopeLabel = "businesses"
	}
	return fmt.Sprintf("%s-%s.%s", scopeLabel, at.Format("20060102-150405"), format)
}
