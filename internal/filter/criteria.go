// Package filter holds the shared business filter state. It is the
// single source of truth for the criteria driving the list and map
// views; it never issues network calls itself.
package filter

// Tri is a three-valued filter flag: true, false, or "don't care".
type Tri int

const (
	TriUnset Tri = iota
	TriTrue
	TriFalse
)

// Bool returns the flag value and whether it is set.
func (t Tri) Bool() (value, ok bool) {
	switch t {
	case TriTrue:
		return true, true
	case TriFalse:
		return false, true
	default:
		return false, false
	}
}

// Cycle advances the flag through the fixed unset -> true -> false ->
// unset click order used by the filter panel.
func (t Tri) Cycle() Tri {
	switch t {
	case TriUnset:
		return TriTrue
	case TriTrue:
		return TriFalse
	default:
		return TriUnset
	}
}

func (t Tri) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "any"
	}
}

// SelectionType narrows the business population to one scan or one city.
type SelectionType string

const (
	SelectionNone SelectionType = ""
	SelectionScan SelectionType = "scan"
	SelectionCity SelectionType = "city"
)

// ViewMode chooses between the tabular list and the map view.
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewMap  ViewMode = "map"
)

// CitySelection identifies a single scanned city.
type CitySelection struct {
	City    string
	State   string
	Country string
}

// Criteria is the full filter state. All fields are optional; the zero
// value means "all of the user's businesses, unfiltered".
type Criteria struct {
	SelectionType SelectionType
	ScanID        string
	CitySelection *CitySelection

	MinDPI *int
	MaxDPI *int

	Badges   []string
	Category string
	SortBy   string
	Search   string

	HasWebsite Tri
	IsSecure   Tri

	ViewMode ViewMode
}

// Clone returns a deep copy so callers can't mutate shared state.
func (c Criteria) Clone() Criteria {
	out := c
	if c.CitySelection != nil {
		sel := *c.CitySelection
		out.CitySelection = &sel
	}
	if c.MinDPI != nil {
		v := *c.MinDPI
		out.MinDPI = &v
	}
	if c.MaxDPI != nil {
		v := *c.MaxDPI
		out.MaxDPI = &v
	}
	if c.Badges != nil {
		out.Badges = append([]string(nil), c.Badges...)
	}
	return out
}

// normalize enforces the scope invariant: at most one of scan id and
// city selection is meaningful. Selecting one clears the other, and a
// stale identifier can never be resurrected by an unrelated update.
func (c *Criteria) normalize() {
	switch c.SelectionType {
	case SelectionScan:
		c.CitySelection = nil
		if c.ScanID == "" {
			c.SelectionType = SelectionNone
		}
	case SelectionCity:
		c.ScanID = ""
		if c.CitySelection == nil {
			c.SelectionType = SelectionNone
		}
	default:
		c.ScanID = ""
		c.CitySelection = nil
	}
}
