package item

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/media"
)

type fakeUploader struct {
	paths []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return "", f.err
	}
	return "https://res.cloudinary.com/demo/image/upload/rentshed/photo.jpg", nil
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Title:         "  Folding ladder  ",
		OriginalPrice: 60000,
		Category:      "tools",
		Location:      "gangnam",
	}
}

func TestRegisterValidation(t *testing.T) {
	neg := int64(-1)

	tests := []struct {
		name   string
		owner  string
		modify func(r *RegisterRequest)
	}{
		{"missing owner", "", func(r *RegisterRequest) {}},
		{"blank title", "a@example.com", func(r *RegisterRequest) { r.Title = "   " }},
		{"negative price", "a@example.com", func(r *RegisterRequest) { r.OriginalPrice = -5 }},
		{"negative hourly rate", "a@example.com", func(r *RegisterRequest) { r.HourlyRate = &neg }},
		{"negative daily rate", "a@example.com", func(r *RegisterRequest) { r.DailyRate = &neg }},
		{"negative quantity", "a@example.com", func(r *RegisterRequest) { r.Quantity = -2 }},
		{"unknown category", "a@example.com", func(r *RegisterRequest) { r.Category = "weapons" }},
		{"unknown location", "a@example.com", func(r *RegisterRequest) { r.Location = "busan" }},
	}

	svc := NewService(testRepo(t), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			_, err := svc.Register(context.Background(), tt.owner, req)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestRegisterDefaults(t *testing.T) {
	svc := NewService(testRepo(t), nil)

	it, err := svc.Register(context.Background(), "a@example.com", validRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if it.Title != "Folding ladder" {
		t.Errorf("title = %q, want trimmed", it.Title)
	}
	if it.Quantity != 1 || it.AvailableQuantity != 1 {
		t.Errorf("quantity = %d/%d, want 1/1", it.AvailableQuantity, it.Quantity)
	}
	if it.ImageURL != listing.PlaceholderImage {
		t.Errorf("image = %q, want placeholder", it.ImageURL)
	}
}

func TestRegisterAcceptsLocationLabel(t *testing.T) {
	svc := NewService(testRepo(t), nil)

	req := validRequest()
	req.Location = "Mapo-gu"
	it, err := svc.Register(context.Background(), "a@example.com", req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if it.Location != "mapo" {
		t.Errorf("location = %q, want mapo", it.Location)
	}
}

func TestRegisterImages(t *testing.T) {
	tests := []struct {
		name       string
		image      string
		uploader   *fakeUploader
		wantURL    string
		wantUpload bool
		wantErr    error
	}{
		{
			name:    "remote url passes through",
			image:   "https://images.example.com/ladder.jpg",
			wantURL: "https://images.example.com/ladder.jpg",
		},
		{
			name:       "local file is uploaded",
			image:      "/home/me/ladder.jpg",
			uploader:   &fakeUploader{},
			wantURL:    "https://res.cloudinary.com/demo/image/upload/rentshed/photo.jpg",
			wantUpload: true,
		},
		{
			name:    "local file without uploader",
			image:   "/home/me/ladder.jpg",
			wantErr: ErrInvalid,
		},
		{
			name:       "upload failure",
			image:      "/home/me/ladder.jpg",
			uploader:   &fakeUploader{err: errors.New("quota exceeded")},
			wantUpload: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var up media.Uploader
			if tt.uploader != nil {
				up = tt.uploader
			}
			svc := NewService(testRepo(t), up)

			req := validRequest()
			req.Image = tt.image
			it, err := svc.Register(context.Background(), "a@example.com", req)

			if tt.uploader != nil && (len(tt.uploader.paths) == 1) != tt.wantUpload {
				t.Errorf("uploads = %v, want upload %v", tt.uploader.paths, tt.wantUpload)
			}
			if tt.wantURL == "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			if it.ImageURL != tt.wantURL {
				t.Errorf("image = %q, want %q", it.ImageURL, tt.wantURL)
			}
		})
	}
}

func TestItemListing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rate := int64(2000)
	it := &Item{
		ID:                "abc",
		Title:             "Rice cooker",
		OriginalPrice:     90000,
		HourlyRate:        &rate,
		AvailableQuantity: 1,
		Category:          listing.CategoryKitchen,
		Location:          "yongsan",
		Status:            StatusAvailable,
		CreatedAt:         now.Add(-5 * time.Minute),
	}

	l := it.Listing(now)
	if l.Location != "Yongsan-gu" {
		t.Errorf("location = %q, want Yongsan-gu", l.Location)
	}
	if l.TimeAgo != "5 minutes ago" {
		t.Errorf("time ago = %q, want %q", l.TimeAgo, "5 minutes ago")
	}
	if l.Image != listing.PlaceholderImage {
		t.Errorf("image = %q, want placeholder", l.Image)
	}
	if !l.Available {
		t.Error("expected available listing")
	}

	// The converted listing is found by the catalog filter for its district.
	f := listing.Filter{Category: "kitchen", Location: "yongsan"}
	if !f.Matches(l) {
		t.Error("filter by code should match converted listing")
	}

	it.Status = StatusRented
	if it.Listing(now).Available {
		t.Error("rented item should convert to unavailable listing")
	}
}

func TestSeedListingsAppendsRegisteredItems(t *testing.T) {
	svc := NewService(testRepo(t), nil)
	if _, err := svc.Register(context.Background(), "a@example.com", validRequest()); err != nil {
		t.Fatalf("register: %v", err)
	}

	seed, err := svc.SeedListings()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	static := listing.Seed()
	if len(seed) != len(static)+1 {
		t.Fatalf("got %d listings, want %d", len(seed), len(static)+1)
	}
	for i := range static {
		if seed[i].ID != static[i].ID {
			t.Errorf("listing %d = %s, want static %s first", i, seed[i].ID, static[i].ID)
		}
	}
	last := seed[len(seed)-1]
	if last.Title != "Folding ladder" || last.Location != "Gangnam-gu" {
		t.Errorf("registered listing = %+v", last)
	}

	if _, err := listing.NewCatalog(seed); err != nil {
		t.Errorf("seed must build a catalog: %v", err)
	}
}
