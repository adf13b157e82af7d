package listing

import "strings"

// Filter is the user's search, category and location criteria.
// An empty Category or Location behaves like All.
type Filter struct {
	Query    string `json:"q"`
	Category string `json:"category"`
	Location string `json:"location"`
}

// DefaultFilter is the filter a new browsing session starts with: the
// Hannam-dong board with every category.
func DefaultFilter() Filter {
	return Filter{Category: All, Location: "hannam"}
}

// Matches reports whether l is visible under f. It is the AND of the text,
// category and location criteria and never looks at availability.
func (f Filter) Matches(l Listing) bool {
	return f.matchesQuery(l) && f.matchesCategory(l) && f.matchesLocation(l)
}

func (f Filter) matchesQuery(l Listing) bool {
	return strings.Contains(strings.ToLower(l.Title), strings.ToLower(f.Query))
}

func (f Filter) matchesCategory(l Listing) bool {
	if f.Category == "" || f.Category == All {
		return true
	}
	return string(l.Category) == f.Category
}

// matchesLocation compares the listing's label with the label of the
// selected code. Unmapped codes match nothing.
func (f Filter) matchesLocation(l Listing) bool {
	if f.Location == "" || f.Location == All {
		return true
	}
	label, ok := DistrictLabel(f.Location)
	if !ok {
		return false
	}
	return l.Location == label
}
