// Package item provides the registered rental item model and data access.
package item

import (
	"database/sql"
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/evcraddock/rentshed/internal/listing"
)

var (
	// ErrNotFound is returned when an item does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrInvalid is returned when a registration fails validation.
	ErrInvalid = errors.New("invalid item")

	// ErrUnavailable is returned when every unit of an item is rented.
	ErrUnavailable = errors.New("item is not available")
)

// Status is the rental state of a registered item.
type Status string

const (
	StatusAvailable Status = "available"
	StatusRented    Status = "rented"
)

// Item is a member's registered rental item.
type Item struct {
	ID                string           `json:"id"`
	OwnerEmail        string           `json:"owner_email"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	ImageURL          string           `json:"image_url"`
	OriginalPrice     int64            `json:"original_price"`
	HourlyRate        *int64           `json:"hourly_rate,omitempty"`
	DailyRate         *int64           `json:"daily_rate,omitempty"`
	Quantity          int              `json:"quantity"`
	AvailableQuantity int              `json:"available_quantity"`
	Category          listing.Category `json:"category"`
	Location          string           `json:"location"`
	Status            Status           `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Listing converts the item into a catalog listing. The location code is
// replaced by its display label and the age is humanized relative to now.
func (it *Item) Listing(now time.Time) listing.Listing {
	loc, ok := listing.DistrictLabel(it.Location)
	if !ok {
		loc = it.Location
	}
	img := it.ImageURL
	if img == "" {
		img = listing.PlaceholderImage
	}
	return listing.Listing{
		ID:         it.ID,
		Title:      it.Title,
		Price:      it.OriginalPrice,
		HourlyRate: it.HourlyRate,
		Location:   loc,
		TimeAgo:    humanize.RelTime(it.CreatedAt, now, "ago", "from now"),
		Image:      img,
		Category:   it.Category,
		Available:  it.Status == StatusAvailable && it.AvailableQuantity > 0,
	}
}

// scanItem scans an item from a database row.
func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	var hourly, daily sql.NullInt64
	var category, status string

	err := row.Scan(
		&it.ID, &it.OwnerEmail, &it.Title, &it.Description, &it.ImageURL,
		&it.OriginalPrice, &hourly, &daily, &it.Quantity, &it.AvailableQuantity,
		&category, &it.Location, &status, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if hourly.Valid {
		it.HourlyRate = &hourly.Int64
	}
	if daily.Valid {
		it.DailyRate = &daily.Int64
	}
	it.Category = listing.Category(category)
	it.Status = Status(status)

	return &it, nil
}
