package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/rentshed/internal/auth"
	"github.com/evcraddock/rentshed/internal/email"
	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/rental"
	"github.com/evcraddock/rentshed/internal/session"
)

const boardCookie = "shed_board"

type categoryOption struct {
	Value string
	Label string
}

type boardData struct {
	session.State
	Categories []categoryOption
	Locations  []listing.District
	Popular    []string
	Email      string
}

// board returns the caller's browsing session, starting a new one and
// setting the cookie when the browser has none or it has expired.
func (s *Server) board(w http.ResponseWriter, r *http.Request) (*session.Controller, error) {
	var id string
	if c, err := r.Cookie(boardCookie); err == nil {
		id = c.Value
	}

	newID, ctrl, err := s.boards.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     boardCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cfg.Secure(),
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ctrl, nil
}

// handleBoard renders the browse page.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctrl, err := s.board(w, r)
	if err != nil {
		slog.Error("starting board", "error", err)
		http.Error(w, "Error loading listings", http.StatusInternalServerError)
		return
	}

	categories := []categoryOption{{Value: listing.All, Label: "All"}}
	for _, c := range listing.BrowseCategories {
		categories = append(categories, categoryOption{Value: string(c), Label: c.Label()})
	}

	locations := []listing.District{{Code: listing.All, Label: "All areas"}}
	for _, code := range listing.BrowseLocations {
		label, _ := listing.DistrictLabel(code)
		locations = append(locations, listing.District{Code: code, Label: label})
	}

	s.render(w, "index.html", boardData{
		State:      ctrl.Snapshot(),
		Categories: categories,
		Locations:  locations,
		Popular:    listing.PopularSearches,
		Email:      auth.EmailFromContext(r.Context()),
	})
}

// handleBoardAction routes POST /board/{action} form submissions. Every
// action redirects back to the board.
func (s *Server) handleBoardAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctrl, err := s.board(w, r)
	if err != nil {
		slog.Error("starting board", "error", err)
		http.Error(w, "Error loading listings", http.StatusInternalServerError)
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/board/")
	switch action {
	case "filter":
		if r.FormValue("reset") != "" {
			ctrl.ResetFilter()
			break
		}
		ctrl.SetFilter(listing.Filter{
			Query:    strings.TrimSpace(r.FormValue("q")),
			Category: r.FormValue("category"),
			Location: r.FormValue("location"),
		})
	case "open":
		err = openModal(ctrl, r.FormValue("modal"), r.FormValue("id"))
	case "close":
		ctrl.Close()
	case "chat":
		chat := ctrl.Chat()
		if chat == nil {
			err = fmt.Errorf("send message: %w", session.ErrInvalidTransition)
			break
		}
		chat.Send(r.FormValue("text"))
	case "rent":
		hours, _ := strconv.Atoi(r.FormValue("hours"))
		_, err = s.confirmRental(ctrl, r.FormValue("id"), auth.EmailFromContext(r.Context()), hours)
	case "map-key":
		err = ctrl.SaveMapAPIKey(r.FormValue("key"))
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// openModal applies an open event to the controller.
func openModal(ctrl *session.Controller, modal, id string) error {
	m, err := session.ParseModal(modal)
	if err != nil {
		return err
	}

	switch m {
	case session.ModalDetail:
		return ctrl.OpenDetail(id)
	case session.ModalChat:
		_, err := ctrl.OpenChat(id)
		return err
	case session.ModalMap:
		_, err := ctrl.OpenMap(id)
		return err
	case session.ModalAPIKeySetting:
		return ctrl.OpenSettings()
	default:
		return fmt.Errorf("cannot open %s: %w", m, session.ErrInvalidTransition)
	}
}

type rentResult struct {
	ListingID string         `json:"listing_id"`
	Confirmed bool           `json:"confirmed"`
	Rental    *rental.Rental `json:"rental,omitempty"`
}

// confirmRental marks the listing unavailable on the board. When a member
// rents a registered item that was still available, the rental is also
// recorded and one unit of the item is taken.
func (s *Server) confirmRental(ctrl *session.Controller, id, renter string, hours int) (rentResult, error) {
	res := rentResult{ListingID: id}

	res.Confirmed = ctrl.ConfirmRental(id)
	if !res.Confirmed || renter == "" {
		return res, nil
	}

	repo := s.items.Repository()
	it, err := repo.GetByID(id)
	if errors.Is(err, item.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, err
	}

	if err := repo.MarkRented(id); err != nil {
		if errors.Is(err, item.ErrUnavailable) {
			return res, nil
		}
		return res, err
	}

	if hours <= 0 {
		hours = 1
	}
	start := s.now().UTC()
	end := start.Add(time.Duration(hours) * time.Hour)

	rt, err := s.rentals.Create(&rental.Rental{
		ItemID:      it.ID,
		ItemTitle:   it.Title,
		RenterEmail: renter,
		StartDate:   start,
		EndDate:     end,
		TotalCost:   rental.Cost(start, end, it.HourlyRate, it.DailyRate),
	})
	if err != nil {
		return res, err
	}

	slog.Info("rental recorded", "item", it.ID, "renter", renter, "cost", rt.TotalCost)
	res.Rental = rt
	s.notifyOwner(it, rt)
	return res, nil
}

// notifyOwner emails the item's owner about a new rental. Failures are
// logged; the rental stands either way.
func (s *Server) notifyOwner(it *item.Item, rt *rental.Rental) {
	if s.notify == nil || it.OwnerEmail == "" || it.OwnerEmail == rt.RenterEmail {
		return
	}
	if updated, err := s.items.Repository().GetByID(it.ID); err == nil {
		it = updated
	}
	subject, body := email.FormatRentalNotice(it, rt, s.cfg.BaseURL)
	if err := s.notify([]string{it.OwnerEmail}, subject, body); err != nil {
		slog.Error("sending rental notice", "item", it.ID, "owner", it.OwnerEmail, "error", err)
		return
	}
	slog.Info("rental notice sent", "item", it.ID, "owner", it.OwnerEmail)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, listing.ErrNotFound), errors.Is(err, item.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, item.ErrUnavailable):
		return http.StatusConflict
	case errors.Is(err, session.ErrEmptyAPIKey), errors.Is(err, item.ErrInvalid),
		errors.Is(err, rental.ErrInvalidPeriod), errors.Is(err, session.ErrUnknownModal):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
	}
}
