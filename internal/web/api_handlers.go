package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/rentshed/internal/auth"
	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/session"
	"github.com/evcraddock/rentshed/internal/settings"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiDomainError writes err with the status its kind maps to.
func apiDomainError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
		apiError(w, "internal error", code)
		return
	}
	apiError(w, err.Error(), code)
}

type boardResponse struct {
	ID string `json:"id"`
	session.State
}

type listingsResponse struct {
	Filter   listing.Filter    `json:"filter"`
	Listings []listing.Listing `json:"listings"`
	Count    int               `json:"count"`
	Total    int               `json:"total"`
}

// handleAPIBoards routes /api/boards requests.
func (s *Server) handleAPIBoards(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/boards")
	path = strings.TrimPrefix(path, "/")

	// /api/boards: start a new board
	if path == "" {
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, ctrl, err := s.boards.Create()
		if err != nil {
			apiDomainError(w, err)
			return
		}
		apiJSON(w, boardResponse{ID: id, State: ctrl.Snapshot()}, http.StatusCreated)
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	ctrl, ok := s.boards.Get(id)
	if !ok {
		apiError(w, "board not found", http.StatusNotFound)
		return
	}

	switch {
	case rest == "":
		s.apiBoard(w, r, id, ctrl)
	case rest == "listings":
		s.apiListListings(w, r, ctrl)
	case strings.HasPrefix(rest, "listings/"):
		s.apiGetListing(w, r, ctrl, strings.TrimPrefix(rest, "listings/"))
	case rest == "rent":
		s.apiRent(w, r, ctrl)
	case rest == "open":
		s.apiOpen(w, r, ctrl)
	case rest == "close":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctrl.Close()
		apiJSON(w, ctrl.Snapshot(), http.StatusOK)
	case rest == "chat":
		s.apiChat(w, r, ctrl)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) apiBoard(w http.ResponseWriter, r *http.Request, id string, ctrl *session.Controller) {
	switch r.Method {
	case http.MethodGet:
		apiJSON(w, boardResponse{ID: id, State: ctrl.Snapshot()}, http.StatusOK)
	case http.MethodDelete:
		s.boards.Remove(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListListings returns the board's derived view. Query parameters that
// are present replace the matching filter criterion on the board.
func (s *Server) apiListListings(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	f := ctrl.Filter()
	if q.Has("q") {
		f.Query = q.Get("q")
	}
	if q.Has("category") {
		f.Category = q.Get("category")
	}
	if q.Has("location") {
		f.Location = q.Get("location")
	}
	ctrl.SetFilter(f)

	view := ctrl.View()
	apiJSON(w, listingsResponse{
		Filter:   f,
		Listings: view,
		Count:    len(view),
		Total:    ctrl.Catalog().Len(),
	}, http.StatusOK)
}

func (s *Server) apiGetListing(w http.ResponseWriter, r *http.Request, ctrl *session.Controller, id string) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	l, ok := ctrl.Catalog().Get(id)
	if !ok {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

func (s *Server) apiRent(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		ID    string `json:"id"`
		Hours int    `json:"hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.ID == "" {
		apiError(w, "id is required", http.StatusBadRequest)
		return
	}

	res, err := s.confirmRental(ctrl, body.ID, auth.EmailFromContext(r.Context()), body.Hours)
	if err != nil {
		apiDomainError(w, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

func (s *Server) apiOpen(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Modal string `json:"modal"`
		ID    string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := openModal(ctrl, body.Modal, body.ID); err != nil {
		apiDomainError(w, err)
		return
	}
	apiJSON(w, ctrl.Snapshot(), http.StatusOK)
}

// apiChat returns the active chat log, or appends a message on POST.
func (s *Server) apiChat(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	chat := ctrl.Chat()
	if chat == nil {
		apiError(w, "no chat open", http.StatusConflict)
		return
	}

	switch r.Method {
	case http.MethodGet:
		apiJSON(w, chat.Messages(), http.StatusOK)
	case http.MethodPost:
		var body chatFrame
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			apiError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if _, ok := chat.Send(body.Text); !ok {
			apiError(w, "message is empty", http.StatusBadRequest)
			return
		}
		apiJSON(w, chat.Messages(), http.StatusCreated)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type categoryResponse struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Browse bool   `json:"browse"`
}

// handleAPICatalog serves the fixed category and district tables.
func (s *Server) handleAPICatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/api/catalog/") {
	case "categories":
		browse := make(map[listing.Category]bool)
		for _, c := range listing.BrowseCategories {
			browse[c] = true
		}
		out := make([]categoryResponse, 0, len(listing.Categories))
		for _, c := range listing.Categories {
			out = append(out, categoryResponse{Value: string(c), Label: c.Label(), Browse: browse[c]})
		}
		apiJSON(w, out, http.StatusOK)
	case "districts":
		apiJSON(w, listing.Districts(), http.StatusOK)
	case "popular":
		apiJSON(w, listing.PopularSearches, http.StatusOK)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// handleAPIItems routes /api/items requests for the calling member.
func (s *Server) handleAPIItems(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())
	if !s.members.IsAuthorized(email) {
		apiError(w, "not a member", http.StatusForbidden)
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/items"), "/")
	if id != "" {
		s.apiItem(w, r, email, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := s.items.Repository().ListByOwner(email)
		if err != nil {
			apiDomainError(w, err)
			return
		}
		if items == nil {
			items = []*item.Item{}
		}
		apiJSON(w, items, http.StatusOK)
	case http.MethodPost:
		var req item.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		it, err := s.items.Register(r.Context(), email, req)
		if err != nil {
			apiDomainError(w, err)
			return
		}
		apiJSON(w, it, http.StatusCreated)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiItem(w http.ResponseWriter, r *http.Request, email, id string) {
	repo := s.items.Repository()
	it, err := repo.GetByID(id)
	if err != nil {
		apiDomainError(w, err)
		return
	}
	if it.OwnerEmail != email && !s.members.IsAdmin(email) {
		apiError(w, "item not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		apiJSON(w, it, http.StatusOK)
	case http.MethodDelete:
		if err := repo.Delete(id); err != nil {
			apiDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiListRentals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rentals, err := s.rentals.ListByRenter(auth.EmailFromContext(r.Context()))
	if err != nil {
		apiDomainError(w, err)
		return
	}
	if rentals == nil {
		apiJSON(w, []any{}, http.StatusOK)
		return
	}
	apiJSON(w, rentals, http.StatusOK)
}

// apiMapKey reports whether a map API key is saved, or saves one.
func (s *Server) apiMapKey(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		key, err := s.settings.MapAPIKey()
		if err != nil {
			apiDomainError(w, err)
			return
		}
		apiJSON(w, map[string]bool{"configured": key != ""}, http.StatusOK)
	case http.MethodPut:
		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			apiError(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		key := strings.TrimSpace(body.Key)
		if key == "" {
			apiError(w, session.ErrEmptyAPIKey.Error(), http.StatusBadRequest)
			return
		}
		if err := s.settings.SetMapAPIKey(key); err != nil {
			apiDomainError(w, err)
			return
		}
		apiJSON(w, map[string]bool{"configured": true}, http.StatusOK)
	case http.MethodDelete:
		if err := s.settings.Delete(settings.MapAPIKeyName); err != nil {
			apiDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type meResponse struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Admin  bool   `json:"admin"`
	Member bool   `json:"member"`
}

func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := auth.EmailFromContext(r.Context())
	resp := meResponse{
		Email:  email,
		Admin:  s.members.IsAdmin(email),
		Member: s.members.IsAuthorized(email),
	}
	m, err := s.members.GetByEmail(email)
	switch {
	case err == nil:
		resp.Name = m.Name
	case !errors.Is(err, auth.ErrMemberNotFound):
		apiDomainError(w, err)
		return
	}
	apiJSON(w, resp, http.StatusOK)
}
