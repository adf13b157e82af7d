// Package listing provides the rental catalog: listings, the filter
// predicate, the in-memory catalog store and its derived view.
package listing

import (
	"errors"
	"sort"
)

// ErrNotFound is returned when a listing id is not in the catalog.
var ErrNotFound = errors.New("listing not found")

// All is the filter sentinel that matches every category or location.
const All = "all"

// Listing is one catalog entry: an item a neighbor rents out.
type Listing struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Price      int64    `json:"price"`
	HourlyRate *int64   `json:"hourly_rate,omitempty"`
	Location   string   `json:"location"`
	TimeAgo    string   `json:"time_ago"`
	Image      string   `json:"image"`
	Category   Category `json:"category"`
	Available  bool     `json:"available"`
}

// clone returns a copy that shares no memory with l.
func (l Listing) clone() Listing {
	if l.HourlyRate != nil {
		rate := *l.HourlyRate
		l.HourlyRate = &rate
	}
	return l
}

// Category tags a listing with one of a fixed set of kinds.
type Category string

const (
	CategoryTools       Category = "tools"
	CategoryCamping     Category = "camping"
	CategoryFurniture   Category = "furniture"
	CategoryElectronics Category = "electronics"
	CategorySports      Category = "sports"
	CategoryKitchen     Category = "kitchen"
	CategoryCleaning    Category = "cleaning"
	CategoryOthers      Category = "others"
)

var categoryLabels = map[Category]string{
	CategoryTools:       "Tools",
	CategoryCamping:     "Camping gear",
	CategoryFurniture:   "Furniture",
	CategoryElectronics: "Electronics",
	CategorySports:      "Sports",
	CategoryKitchen:     "Kitchen",
	CategoryCleaning:    "Cleaning",
	CategoryOthers:      "Others",
}

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTools,
	CategoryCamping,
	CategoryFurniture,
	CategoryElectronics,
	CategorySports,
	CategoryKitchen,
	CategoryCleaning,
	CategoryOthers,
}

// BrowseCategories are the categories offered by the browse filter panel.
var BrowseCategories = []Category{
	CategoryTools,
	CategoryCamping,
	CategoryFurniture,
	CategoryElectronics,
}

// ValidCategory returns true if s is a known category.
func ValidCategory(s string) bool {
	_, ok := categoryLabels[Category(s)]
	return ok
}

// Label returns the display label for the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// District maps a location code to the label stored on listings.
type District struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// districts is the complete location code table. Listings carry the label;
// filters and registration forms carry the code.
var districts = map[string]string{
	"hannam":       "Hannam-dong",
	"gangnam":      "Gangnam-gu",
	"gangdong":     "Gangdong-gu",
	"gangbuk":      "Gangbuk-gu",
	"gangseo":      "Gangseo-gu",
	"gwanak":       "Gwanak-gu",
	"gwangjin":     "Gwangjin-gu",
	"guro":         "Guro-gu",
	"geumcheon":    "Geumcheon-gu",
	"nowon":        "Nowon-gu",
	"dobong":       "Dobong-gu",
	"dongdaemun":   "Dongdaemun-gu",
	"dongjak":      "Dongjak-gu",
	"mapo":         "Mapo-gu",
	"seodaemun":    "Seodaemun-gu",
	"seocho":       "Seocho-gu",
	"seongdong":    "Seongdong-gu",
	"seongbuk":     "Seongbuk-gu",
	"songpa":       "Songpa-gu",
	"yangcheon":    "Yangcheon-gu",
	"yeongdeungpo": "Yeongdeungpo-gu",
	"yongsan":      "Yongsan-gu",
	"eunpyeong":    "Eunpyeong-gu",
	"jongno":       "Jongno-gu",
	"jung":         "Jung-gu",
	"jungnang":     "Jungnang-gu",
}

// BrowseLocations are the location codes offered by the browse filter panel.
var BrowseLocations = []string{"hannam", "yongsan", "gangnam"}

// DistrictLabel returns the label for a location code.
func DistrictLabel(code string) (string, bool) {
	l, ok := districts[code]
	return l, ok
}

// DistrictCode returns the location code for a label.
func DistrictCode(label string) (string, bool) {
	for code, l := range districts {
		if l == label {
			return code, true
		}
	}
	return "", false
}

// Districts returns every district sorted by label.
func Districts() []District {
	out := make([]District, 0, len(districts))
	for code, label := range districts {
		out = append(out, District{Code: code, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
