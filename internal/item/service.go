package item

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/media"
)

// RegisterRequest is the input for registering a new item.
type RegisterRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	OriginalPrice int64  `json:"original_price"`
	HourlyRate    *int64 `json:"hourly_rate,omitempty"`
	DailyRate     *int64 `json:"daily_rate,omitempty"`
	Quantity      int    `json:"quantity"`
	Category      string `json:"category"`
	Location      string `json:"location"`
}

// Service provides item business logic.
type Service struct {
	repo     *Repository
	uploader media.Uploader
}

// NewService creates an item service. uploader may be nil, in which case
// only remote image URLs are accepted.
func NewService(repo *Repository, uploader media.Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

// Repository returns the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Register validates the request, uploads a local image if one was given,
// and stores the item for owner.
func (s *Service) Register(ctx context.Context, owner string, req RegisterRequest) (*Item, error) {
	it, err := s.validate(owner, req)
	if err != nil {
		return nil, err
	}

	image := strings.TrimSpace(req.Image)
	switch {
	case image == "":
		it.ImageURL = listing.PlaceholderImage
	case media.IsRemote(image):
		it.ImageURL = image
	case s.uploader == nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalid, media.ErrNotConfigured)
	default:
		url, err := s.uploader.Upload(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("uploading image: %w", err)
		}
		it.ImageURL = url
	}

	saved, err := s.repo.Insert(it)
	if err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}

	slog.Info("item registered", "item", saved.ID, "owner", owner, "category", saved.Category)
	return saved, nil
}

func (s *Service) validate(owner string, req RegisterRequest) (*Item, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalid)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if req.OriginalPrice < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalid)
	}
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		return nil, fmt.Errorf("%w: hourly rate must not be negative", ErrInvalid)
	}
	if req.DailyRate != nil && *req.DailyRate < 0 {
		return nil, fmt.Errorf("%w: daily rate must not be negative", ErrInvalid)
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalid)
	}

	if !listing.ValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, req.Category)
	}

	loc, err := resolveLocation(req.Location)
	if err != nil {
		return nil, err
	}

	return &Item{
		OwnerEmail:        owner,
		Title:             title,
		Description:       strings.TrimSpace(req.Description),
		OriginalPrice:     req.OriginalPrice,
		HourlyRate:        req.HourlyRate,
		DailyRate:         req.DailyRate,
		Quantity:          qty,
		AvailableQuantity: qty,
		Category:          listing.Category(req.Category),
		Location:          loc,
		Status:            StatusAvailable,
	}, nil
}

// resolveLocation accepts a district code or its display label and
// returns the code.
func resolveLocation(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, ok := listing.DistrictLabel(s); ok {
		return s, nil
	}
	if code, ok := listing.DistrictCode(s); ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: unknown location %q", ErrInvalid, s)
}

// Listings returns the catalog form of every available item.
func (s *Service) Listings(now time.Time) ([]listing.Listing, error) {
	items, err := s.repo.ListAvailable()
	if err != nil {
		return nil, err
	}
	out := make([]listing.Listing, 0, len(items))
	for _, it := range items {
		out = append(out, it.Listing(now))
	}
	return out, nil
}

// SeedListings returns the static listings followed by the available
// registered items. It is the seed for new browsing sessions.
func (s *Service) SeedListings() ([]listing.Listing, error) {
	items, err := s.Listings(time.Now())
	if err != nil {
		return nil, fmt.Errorf("loading registered items: %w", err)
	}
	return append(listing.Seed(), items...), nil
}
