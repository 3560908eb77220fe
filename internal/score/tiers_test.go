package score

import (
	"testing"

	"github.com/user/leadfindr/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		dpi  int
		want string
	}{
		{100, "Elite"},
		{95, "Elite"},
		{94, "Web Leader"},
		{80, "Web Leader"},
		{79, "Growing Presence"},
		{60, "Growing Presence"},
		{59, "Basic Footprint"},
		{30, "Basic Footprint"},
		{29, "Invisible"},
		{0, "Invisible"},
		{-5, "Invisible"},
		{140, "Elite"},
	}
	for _, tt := range tests {
		if got := Classify(tt.dpi).Name; got != tt.want {
			t.Errorf("Classify(%d) = %q, want %q", tt.dpi, got, tt.want)
		}
	}
}

func TestBadgeForPrefersBackendBadge(t *testing.T) {
	b := model.Business{DPIScore: 97, DPIBadge: "Legacy Tier"}
	if got := BadgeFor(b); got != "Legacy Tier" {
		t.Errorf("expected the backend badge to win, got %q", got)
	}
	b.DPIBadge = ""
	if got := BadgeFor(b); got != "Elite" {
		t.Errorf("expected local classification fallback, got %q", got)
	}
}

func TestSubScorePercent(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{0, 0},
		{12.5, 50},
		{25, 100},
		{30, 100},
		{-2, 0},
	}
	for _, tt := range tests {
		if got := SubScorePercent(tt.value); got != tt.want {
			t.Errorf("SubScorePercent(%v) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
