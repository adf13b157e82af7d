// Package rental records confirmed rentals of registered items.
package rental

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/rentshed/internal/db"
)

// ErrInvalidPeriod is returned when a rental ends before it starts.
var ErrInvalidPeriod = errors.New("rental must end after it starts")

// Status of a rental.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Rental is one member's rental of a registered item.
type Rental struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	ItemTitle   string    `json:"item_title,omitempty"`
	RenterEmail string    `json:"renter_email"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalCost   int64     `json:"total_cost"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Cost prices a rental period: whole days at the daily rate, then the
// remaining hours at the hourly rate, rounded up. A missing daily rate
// charges every hour; a missing hourly rate rounds up to a full day.
func Cost(start, end time.Time, hourly, daily *int64) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	hours := int64((d + time.Hour - 1) / time.Hour)

	switch {
	case hourly == nil && daily == nil:
		return 0
	case daily == nil:
		return hours * *hourly
	case hourly == nil:
		return ((hours + 23) / 24) * *daily
	}

	days, rest := hours/24, hours%24
	total := days * *daily
	extra := rest * *hourly
	if extra > *daily {
		extra = *daily
	}
	return total + extra
}

// Repository stores rentals.
type Repository struct {
	db *db.DB
}

// NewRepository creates a rental repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

// Create records a new active rental.
func (r *Repository) Create(rt *Rental) (*Rental, error) {
	if !rt.EndDate.After(rt.StartDate) {
		return nil, ErrInvalidPeriod
	}
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	if rt.Status == "" {
		rt.Status = StatusActive
	}
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO rentals (id, item_id, renter_email, start_date, end_date, total_cost, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.ItemID, rt.RenterEmail, rt.StartDate.UTC(), rt.EndDate.UTC(),
		rt.TotalCost, string(rt.Status), rt.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting rental: %w", err)
	}
	return rt, nil
}

// ListByRenter returns a member's rentals joined with the item title,
// newest first.
func (r *Repository) ListByRenter(email string) (rentals []*Rental, err error) {
	rows, err := r.db.Query(
		`SELECT r.id, r.item_id, i.title, r.renter_email, r.start_date, r.end_date,
		        r.total_cost, r.status, r.created_at
		FROM rentals r
		JOIN rental_items i ON i.id = r.item_id
		WHERE r.renter_email = ?
		ORDER BY r.created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rentals: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var rt Rental
		var status string
		if err := rows.Scan(
			&rt.ID, &rt.ItemID, &rt.ItemTitle, &rt.RenterEmail, &rt.StartDate, &rt.EndDate,
			&rt.TotalCost, &status, &rt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning rental: %w", err)
		}
		rt.Status = Status(status)
		rentals = append(rentals, &rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rentals: %w", err)
	}

	return rentals, nil
}
