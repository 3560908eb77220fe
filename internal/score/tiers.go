// Package score maps Digital Presence Index values to their named
// tiers. Scoring itself happens server-side; clients only classify and
// render the numbers they receive.
package score

import (
	"math"

	"github.com/user/leadfindr/internal/model"
)

// Tier is one DPI band.
type Tier struct {
	Name string
	Min  int
	Max  int
	// Color is the lipgloss-compatible ANSI color the UI renders the
	// badge with.
	Color string
}

// tiers is ordered best to worst; classification walks it top down.
var tiers = []Tier{
	{Name: "Elite", Min: 95, Max: 100, Color: "42"},
	{Name: "Web Leader", Min: 80, Max: 94, Color: "36"},
	{Name: "Growing Presence", Min: 60, Max: 79, Color: "220"},
	{Name: "Basic Footprint", Min: 30, Max: 59, Color: "208"},
	{Name: "Invisible", Min: 0, Max: 29, Color: "196"},
}

// Tiers returns the full band table, best first.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}

// Classify returns the tier for a DPI value. Values are clamped into
// 0..100 first so a slightly out-of-range score still lands in a band.
func Classify(dpi int) Tier {
	if dpi > 100 {
		dpi = 100
	}
	if dpi < 0 {
		dpi = 0
	}
	for _, t := range tiers {
		if dpi >= t.Min {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// BadgeFor prefers the backend's own badge string and classifies
// locally only when it is absent.
func BadgeFor(b model.Business) string {
	if b.DPIBadge != "" {
		return b.DPIBadge
	}
	return Classify(int(math.Round(b.DPIScore))).Name
}

// SubScorePercent converts a sub-score to 0..100 against its shared
// maximum, for rendering breakdown bars.
func SubScorePercent(value float64) int {
	pct := int(value / model.DefaultSubScoreMax * 100)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}
