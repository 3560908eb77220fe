// Package report renders markdown summaries of a scan's results, with
// Mermaid charts for the tier distribution.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/score"
)

// Data holds everything one report needs.
type Data struct {
	Scan        model.ScanHistoryEntry
	Businesses  []model.Business
	GeneratedAt time.Time
}

// Build assembles report data from a scan and its business set.
func Build(scan model.ScanHistoryEntry, businesses []model.Business) *Data {
	return &Data{
		Scan:        scan,
		Businesses:  businesses,
		GeneratedAt: time.Now(),
	}
}

// AvgDPI computes the mean score of the set, 0 for an empty set.
func (d *Data) AvgDPI() float64 {
	if len(d.Businesses) == 0 {
		return 0
	}
	var sum float64
	for _, b := range d.Businesses {
		sum += b.DPIScore
	}
	return sum / float64(len(d.Businesses))
}

// TierCounts buckets the set into DPI tiers, best tier first.
func (d *Data) TierCounts() []TierCount {
	counts := make(map[string]int)
	for _, b := range d.Businesses {
		counts[score.Classify(int(b.DPIScore)).Name]++
	}

	out := make([]TierCount, 0, len(counts))
	for _, t := range score.Tiers() {
		if n, ok := counts[t.Name]; ok {
			out = append(out, TierCount{Tier: t.Name, Count: n})
		}
	}
	return out
}

// TierCount pairs a tier name with its population.
type TierCount struct {
	Tier  string
	Count int
}

// MissingWebsiteCount counts businesses confirmed to have no website.
func (d *Data) MissingWebsiteCount() int {
	n := 0
	for _, b := range d.Businesses {
		if b.HasWebsite != nil && !*b.HasWebsite {
			n++
		}
	}
	return n
}

// RenderMarkdown produces the report document.
func RenderMarkdown(d *Data) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Scan Report: %s\n\n", scanTitle(d.Scan)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", d.GeneratedAt.Format("2006-01-02 15:04:05")))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Scan ID:** %s\n", d.Scan.ScanID))
	sb.WriteString(fmt.Sprintf("- **Status:** %s\n", d.Scan.Status))
	sb.WriteString(fmt.Sprintf("- **Keywords:** %s\n", strings.Join(d.Scan.Keywords, ", ")))
	sb.WriteString(fmt.Sprintf("- **Businesses:** %d\n", len(d.Businesses)))
	sb.WriteString(fmt.Sprintf("- **Average DPI:** %.1f\n", d.AvgDPI()))
	sb.WriteString(fmt.Sprintf("- **No website:** %d\n", d.MissingWebsiteCount()))
	if d.Scan.DurationSeconds > 0 {
		sb.WriteString(fmt.Sprintf("- **Scan duration:** %.1fs\n", d.Scan.DurationSeconds))
	}
	sb.WriteString("\n")

	tiers := d.TierCounts()
	if len(tiers) > 0 {
		sb.WriteString("## Tier Distribution\n\n")
		sb.WriteString(renderTierPie(tiers))
		sb.WriteString("\n| Tier | Businesses |\n|------|------------|\n")
		for _, t := range tiers {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", t.Tier, t.Count))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(renderRanking("## Strongest Presence\n\n", topByDPI(d.Businesses, 5, true)))
	sb.WriteString(renderRanking("## Biggest Opportunities\n\n", topByDPI(d.Businesses, 5, false)))

	return sb.String()
}

// renderTierPie renders a Mermaid pie chart of the distribution.
func renderTierPie(tiers []TierCount) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\npie title DPI tiers\n")
	for _, t := range tiers {
		sb.WriteString(fmt.Sprintf("    %q : %d\n", t.Tier, t.Count))
	}
	sb.WriteString("```\n")
	return sb.String()
}

func renderRanking(heading string, set []model.Business) string {
	if len(set) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(heading)
	sb.WriteString("| Business | City | DPI | Tier |\n|----------|------|-----|------|\n")
	for _, b := range set {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %s |\n",
			b.Name, b.City, b.DPIScore, score.BadgeFor(b)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// topByDPI returns up to n businesses sorted by score, best first when
// desc is true.
func topByDPI(set []model.Business, n int, desc bool) []model.Business {
	sorted := append([]model.Business(nil), set...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return sorted[i].DPIScore > sorted[j].DPIScore
		}
		return sorted[i].DPIScore < sorted[j].DPIScore
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Save writes the report next to the exports and returns its path.
func Save(dir string, d *Data) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	name := fmt.Sprintf("scan-%s-%s.md", d.Scan.ScanID, d.GeneratedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(RenderMarkdown(d)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func scanTitle(s model.ScanHistoryEntry) string {
	switch s.RegionType {
	case "state":
		return s.State + ", " + s.Country
	case "country":
		return s.Country
	default:
		if s.City != "" {
			return s.City + ", " + s.Country
		}
		return s.ScanID
	}
}
