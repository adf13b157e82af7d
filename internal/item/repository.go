package item

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/rentshed/internal/db"
)

// Repository provides CRUD operations for registered items.
type Repository struct {
	db *db.DB
}

// NewRepository creates an item repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

const insertSQL = `INSERT INTO rental_items
	(id, owner_email, title, description, image_url, original_price, hourly_rate, daily_rate,
	 quantity, available_quantity, category, location, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, owner_email, title, description, image_url, original_price, hourly_rate, daily_rate,
	quantity, available_quantity, category, location, status, created_at`

// Insert stores a new item and returns it as saved. A missing ID is
// generated.
func (r *Repository) Insert(it *Item) (*Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Status == "" {
		it.Status = StatusAvailable
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(insertSQL,
		it.ID, it.OwnerEmail, it.Title, it.Description, it.ImageURL,
		it.OriginalPrice, it.HourlyRate, it.DailyRate,
		it.Quantity, it.AvailableQuantity,
		string(it.Category), it.Location, string(it.Status), it.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting item: %w", err)
	}

	return r.GetByID(it.ID)
}

// GetByID returns an item by its ID.
func (r *Repository) GetByID(id string) (*Item, error) {
	query := fmt.Sprintf("SELECT %s FROM rental_items WHERE id = ?", selectColumns)
	it, err := scanItem(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying item %s: %w", id, err)
	}
	return it, nil
}

// ListByOwner returns the items a member registered, newest first.
func (r *Repository) ListByOwner(email string) ([]*Item, error) {
	query := fmt.Sprintf("SELECT %s FROM rental_items WHERE owner_email = ? ORDER BY created_at DESC", selectColumns)
	return r.list(query, email)
}

// ListAvailable returns every item that can still be rented, oldest first
// so new registrations append to the catalog.
func (r *Repository) ListAvailable() ([]*Item, error) {
	query := fmt.Sprintf("SELECT %s FROM rental_items WHERE status = ? ORDER BY created_at ASC", selectColumns)
	return r.list(query, string(StatusAvailable))
}

func (r *Repository) list(query string, args ...any) (items []*Item, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return items, nil
}

// MarkRented takes one unit of an item out of circulation. The item is
// marked rented once no units remain.
func (r *Repository) MarkRented(id string) error {
	result, err := r.db.Exec(
		`UPDATE rental_items
		SET available_quantity = available_quantity - 1,
		    status = CASE WHEN available_quantity - 1 <= 0 THEN ? ELSE status END
		WHERE id = ? AND available_quantity > 0`,
		string(StatusRented), id,
	)
	if err != nil {
		return fmt.Errorf("marking item rented: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return fmt.Errorf("item %s: %w", id, ErrUnavailable)
	}

	return nil
}

// Delete removes an item by ID. Its rentals cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM rental_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}

	return nil
}
