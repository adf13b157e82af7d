package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatchesQuery(t *testing.T) {
	l := Listing{ID: "1", Title: "Power Drill Set", Category: CategoryTools, Location: "Hannam-dong"}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty query", "", true},
		{"exact title", "Power Drill Set", true},
		{"lower case substring", "drill", true},
		{"upper case substring", "DRILL SET", true},
		{"no match", "ladder", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter{Query: tt.query, Category: All, Location: All}
			assert.Equal(t, tt.want, f.Matches(l))
		})
	}
}

func TestFilterQueryProperty(t *testing.T) {
	queries := []string{"", "a", "tent", "TENT", "for 4", "MacBook", "zzz", "ladder"}
	for _, l := range Seed() {
		for _, q := range queries {
			f := Filter{Query: q, Category: All, Location: All}
			want := strings.Contains(strings.ToLower(l.Title), strings.ToLower(q))
			assert.Equal(t, want, f.Matches(l), "listing %s query %q", l.ID, q)
		}

		self := Filter{Query: l.Title, Category: All, Location: All}
		assert.True(t, self.Matches(l), "listing %s must match its own title", l.ID)
	}
}

func TestFilterCategoryExactMatch(t *testing.T) {
	l := Listing{ID: "1", Title: "Drill", Category: CategoryTools, Location: "Hannam-dong"}

	assert.True(t, Filter{Category: "tools", Location: All}.Matches(l))
	assert.False(t, Filter{Category: "tool", Location: All}.Matches(l))
	assert.False(t, Filter{Category: "Tools", Location: All}.Matches(l))
	assert.False(t, Filter{Category: "camping", Location: All}.Matches(l))
	assert.True(t, Filter{Category: All, Location: All}.Matches(l))
}

func TestFilterLocation(t *testing.T) {
	hannam := Listing{ID: "1", Title: "Tent", Category: CategoryCamping, Location: "Hannam-dong"}
	yongsan := Listing{ID: "2", Title: "Drill", Category: CategoryTools, Location: "Yongsan-gu"}

	tests := []struct {
		name     string
		location string
		listing  Listing
		want     bool
	}{
		{"all matches hannam", All, hannam, true},
		{"hannam code", "hannam", hannam, true},
		{"yongsan code rejects hannam", "yongsan", hannam, false},
		{"yongsan code", "yongsan", yongsan, true},
		{"gangnam code", "gangnam", yongsan, false},
		{"unmapped code", "busan", hannam, false},
		{"label is not a code", "Hannam-dong", hannam, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter{Category: All, Location: tt.location}
			assert.Equal(t, tt.want, f.Matches(tt.listing))
		})
	}
}

func TestFilterIgnoresAvailability(t *testing.T) {
	l := Listing{ID: "7", Title: "Ladder", Category: CategoryTools, Location: "Gangnam-gu", Available: false}
	f := Filter{Query: "ladder", Category: "tools", Location: "gangnam"}
	assert.True(t, f.Matches(l))
}

func TestZeroFilterMatchesEverything(t *testing.T) {
	for _, l := range Seed() {
		assert.True(t, Filter{}.Matches(l), "listing %s", l.ID)
	}
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, "", f.Query)
	assert.Equal(t, All, f.Category)
	assert.Equal(t, "hannam", f.Location)
}

func TestBrowseLocationsAreMapped(t *testing.T) {
	for _, code := range BrowseLocations {
		_, ok := DistrictLabel(code)
		assert.True(t, ok, "browse location %q has no label", code)
	}
}

func TestDistrictCodeRoundTrip(t *testing.T) {
	for _, d := range Districts() {
		code, ok := DistrictCode(d.Label)
		assert.True(t, ok)
		assert.Equal(t, d.Code, code)
	}
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Camping gear", CategoryCamping.Label())
	assert.Equal(t, "gadgets", Category("gadgets").Label())
	assert.True(t, ValidCategory("kitchen"))
	assert.False(t, ValidCategory("all"))
}
