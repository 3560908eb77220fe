package tui

import (
	"fmt"
	"strings"

	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/model"
	"github.com/user/leadfindr/internal/score"
)

func renderListView(m browserModel, criteria filter.Criteria) string {
	var sb strings.Builder

	width := m.width
	if width < 60 {
		width = 60
	}

	sb.WriteString(HeaderStyle.Width(width).Render("Lead Findr — Businesses"))
	sb.WriteString("\n\n")
	sb.WriteString(renderFilterBar(criteria))
	sb.WriteString("\n")

	if m.statusErr != nil {
		sb.WriteString(ErrorStyle.Render("Error: " + m.statusErr.Error()))
		sb.WriteString("\n")
	}
	if m.loading {
		sb.WriteString(DimStyle.Render(m.spinner.View() + " refreshing..."))
		sb.WriteString("\n")
	}

	rows := m.app.presenter.ListRows()
	if len(rows) == 0 {
		sb.WriteString("\n")
		sb.WriteString(DimStyle.Render("No businesses match the current filters"))
		sb.WriteString("\n")
	} else {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  %-30s %-16s %6s  %-18s %-7s %-7s\n",
			"NAME", "CITY", "DPI", "BADGE", "WEBSITE", "SECURE"))
		sb.WriteString("  " + strings.Repeat("─", 90) + "\n")

		for i, b := range rows {
			line := fmt.Sprintf("%-30s %-16s %6.1f  %-18s %-7s %-7s",
				truncate(b.Name, 28), truncate(b.City, 14), b.DPIScore,
				score.BadgeFor(b), triMark(b.HasWebsite), triMark(b.IsSecure))
			if i == m.cursor {
				sb.WriteString("▸ " + SelectedRowStyle.Render(line))
			} else {
				sb.WriteString("  " + styleRow(b, line))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(renderPagination(m))
	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render("n/p page • w website • s secure • v map • c clear scope • r refresh • q quit"))
	return sb.String()
}

// styleRow colors only the badge segment so the rest of the line stays
// aligned with the header.
func styleRow(b model.Business, line string) string {
	badge := score.BadgeFor(b)
	tier := score.Classify(int(b.DPIScore))
	return strings.Replace(line, badge, BadgeStyle(tier).Render(badge), 1)
}

func renderMapView(m browserModel, criteria filter.Criteria) string {
	var sb strings.Builder

	width := m.width
	if width < 60 {
		width = 60
	}

	sb.WriteString(HeaderStyle.Width(width).Render("Lead Findr — Map"))
	sb.WriteString("\n\n")
	sb.WriteString(renderFilterBar(criteria))
	sb.WriteString("\n\n")

	points := m.app.presenter.MapPoints()
	if len(points) == 0 {
		sb.WriteString(DimStyle.Render("No located businesses to plot"))
	} else {
		plotHeight := m.height - 12
		if plotHeight < 8 {
			plotHeight = 8
		}
		sb.WriteString(renderScatter(points, width-4, plotHeight))
		sb.WriteString("\n")
		sb.WriteString(renderLegend())
	}

	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render(fmt.Sprintf("%d located businesses", len(points))))
	sb.WriteString("\n")
	sb.WriteString(HelpStyle.Render("v list • w website • s secure • r refresh • q quit"))
	return sb.String()
}

// renderScatter plots every point onto a character grid scaled to the
// bounding box of the set.
func renderScatter(points []model.Business, width, height int) string {
	minLat, maxLat := *points[0].Lat, *points[0].Lat
	minLng, maxLng := *points[0].Lng, *points[0].Lng
	for _, p := range points {
		if *p.Lat < minLat {
			minLat = *p.Lat
		}
		if *p.Lat > maxLat {
			maxLat = *p.Lat
		}
		if *p.Lng < minLng {
			minLng = *p.Lng
		}
		if *p.Lng > maxLng {
			maxLng = *p.Lng
		}
	}
	// A single point (or one shared coordinate) still needs a nonzero
	// span to scale against.
	latSpan := maxLat - minLat
	if latSpan == 0 {
		latSpan = 0.0001
	}
	lngSpan := maxLng - minLng
	if lngSpan == 0 {
		lngSpan = 0.0001
	}

	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = DimStyle.Render("·")
		}
	}

	for _, p := range points {
		// Latitude grows north; terminal rows grow down.
		x := int((*p.Lng - minLng) / lngSpan * float64(width-1))
		y := height - 1 - int((*p.Lat-minLat)/latSpan*float64(height-1))
		tier := score.Classify(int(p.DPIScore))
		grid[y][x] = BadgeStyle(tier).Render("●")
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(strings.Join(row, ""))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderLegend() string {
	parts := make([]string, 0, 5)
	for _, t := range score.Tiers() {
		parts = append(parts, BadgeStyle(t).Render("●")+" "+t.Name)
	}
	return strings.Join(parts, "  ")
}

func renderFilterBar(criteria filter.Criteria) string {
	parts := []string{
		FilterOnStyle.Render(scopeLabel(criteria)),
		RenderTri("website", boolOf(criteria.HasWebsite), criteria.HasWebsite != filter.TriUnset),
		RenderTri("secure", boolOf(criteria.IsSecure), criteria.IsSecure != filter.TriUnset),
	}
	if criteria.Category != "" {
		parts = append(parts, FilterOnStyle.Render("category: "+criteria.Category))
	}
	if criteria.Search != "" {
		parts = append(parts, FilterOnStyle.Render("search: "+criteria.Search))
	}
	if criteria.MinDPI != nil || criteria.MaxDPI != nil {
		parts = append(parts, FilterOnStyle.Render(dpiRangeLabel(criteria)))
	}
	return "  " + strings.Join(parts, DimStyle.Render("  │  "))
}

func dpiRangeLabel(criteria filter.Criteria) string {
	lo, hi := 0, 100
	if criteria.MinDPI != nil {
		lo = *criteria.MinDPI
	}
	if criteria.MaxDPI != nil {
		hi = *criteria.MaxDPI
	}
	return fmt.Sprintf("dpi: %d-%d", lo, hi)
}

func scopeLabel(criteria filter.Criteria) string {
	switch criteria.SelectionType {
	case filter.SelectionScan:
		return "scan " + criteria.ScanID
	case filter.SelectionCity:
		if criteria.CitySelection != nil {
			return criteria.CitySelection.City + ", " + criteria.CitySelection.State
		}
		return "city"
	default:
		return "all businesses"
	}
}

func renderPagination(m browserModel) string {
	page := m.app.presenter.Page()
	if total, ok := m.app.presenter.Total(); ok {
		pages, _ := m.app.presenter.TotalPages()
		return DimStyle.Render(fmt.Sprintf("  Page %d/%d — %d businesses", page, pages, total))
	}
	return DimStyle.Render(fmt.Sprintf("  Page %d — %d shown", page, len(m.app.presenter.ListRows())))
}

func boolOf(t filter.Tri) bool {
	v, _ := t.Bool()
	return v
}

func triMark(v *bool) string {
	if v == nil {
		return "-"
	}
	if *v {
		return "yes"
	}
	return "no"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
