package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evcraddock/rentshed/internal/auth"
	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/rental"
)

const maxUploadSize = 10 << 20

type addItemData struct {
	Categories []listing.Category
	Districts  []listing.District
	Form       item.RegisterRequest
	Error      string
}

type myPageData struct {
	Email    string
	Name     string
	Admin    bool
	Items    []*item.Item
	Rentals  []*rental.Rental
	Passkeys []auth.Passkey
}

// member returns the signed-in member's email, or writes 403 when the
// session belongs to someone who is no longer a member.
func (s *Server) member(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := auth.EmailFromContext(r.Context())
	if !s.members.IsAuthorized(email) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}
	return email, true
}

// handleAddItem renders the registration form and registers items.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	email, ok := s.member(w, r)
	if !ok {
		return
	}

	data := addItemData{
		Categories: listing.Categories,
		Districts:  listing.Districts(),
		Form:       item.RegisterRequest{Category: string(listing.CategoryTools), Location: "hannam", Quantity: 1},
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, "additem.html", data)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, cleanup, err := parseRegisterForm(r)
	defer cleanup()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		data.Error = err.Error()
		s.render(w, "additem.html", data)
		return
	}

	if _, err := s.items.Register(r.Context(), email, req); err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			slog.Error("registering item", "error", err)
		}
		w.WriteHeader(code)
		data.Form = req
		data.Error = err.Error()
		s.render(w, "additem.html", data)
		return
	}

	http.Redirect(w, r, "/mypage", http.StatusSeeOther)
}

// parseRegisterForm reads the add-item form. An uploaded photo is written
// to a temporary file that cleanup removes.
func parseRegisterForm(r *http.Request) (item.RegisterRequest, func(), error) {
	cleanup := func() {}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return item.RegisterRequest{}, cleanup, fmt.Errorf("reading form: %w", err)
	}

	req := item.RegisterRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Image:       strings.TrimSpace(r.FormValue("image_url")),
		Category:    r.FormValue("category"),
		Location:    r.FormValue("location"),
	}

	var err error
	if req.OriginalPrice, err = formInt(r, "original_price"); err != nil {
		return req, cleanup, err
	}
	if req.HourlyRate, err = formOptionalInt(r, "hourly_rate"); err != nil {
		return req, cleanup, err
	}
	if req.DailyRate, err = formOptionalInt(r, "daily_rate"); err != nil {
		return req, cleanup, err
	}
	qty, err := formInt(r, "quantity")
	if err != nil {
		return req, cleanup, err
	}
	req.Quantity = int(qty)

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return req, cleanup, nil
	}
	if err != nil {
		return req, cleanup, fmt.Errorf("reading image: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Warn("closing upload", "error", cerr)
		}
	}()

	tmp, err := os.CreateTemp("", "shed-*"+filepath.Ext(header.Filename))
	if err != nil {
		return req, cleanup, fmt.Errorf("storing image: %w", err)
	}
	cleanup = func() {
		if err := os.Remove(tmp.Name()); err != nil {
			slog.Warn("removing upload", "error", err)
		}
	}
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		return req, cleanup, fmt.Errorf("storing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return req, cleanup, fmt.Errorf("storing image: %w", err)
	}

	req.Image = tmp.Name()
	return req, cleanup, nil
}

func formInt(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", strings.ReplaceAll(name, "_", " "))
	}
	return n, nil
}

func formOptionalInt(r *http.Request, name string) (*int64, error) {
	if strings.TrimSpace(r.FormValue(name)) == "" {
		return nil, nil
	}
	n, err := formInt(r, name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// handleMyPage lists the member's registered items and rentals.
func (s *Server) handleMyPage(w http.ResponseWriter, r *http.Request) {
	email, ok := s.member(w, r)
	if !ok {
		return
	}

	items, err := s.items.Repository().ListByOwner(email)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading items: %v", err), http.StatusInternalServerError)
		return
	}
	rentals, err := s.rentals.ListByRenter(email)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error loading rentals: %v", err), http.StatusInternalServerError)
		return
	}

	data := myPageData{
		Email:   email,
		Admin:   s.members.IsAdmin(email),
		Items:   items,
		Rentals: rentals,
	}
	if m, err := s.members.GetByEmail(email); err == nil {
		data.Name = m.Name
	}
	if keys, err := s.passkeys.List(email); err != nil {
		slog.Warn("listing passkeys", "email", email, "error", err)
	} else {
		data.Passkeys = keys
	}

	s.render(w, "mypage.html", data)
}
