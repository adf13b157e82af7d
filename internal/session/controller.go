package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/evcraddock/rentshed/internal/listing"
)

var (
	// ErrInvalidTransition is returned when an event is not allowed from
	// the current modal.
	ErrInvalidTransition = errors.New("invalid modal transition")

	// ErrEmptyAPIKey is returned when a blank map API key is saved.
	ErrEmptyAPIKey = errors.New("map API key is required")
)

// KeyStore persists the map service API key.
type KeyStore interface {
	MapAPIKey() (string, error)
	SetMapAPIKey(key string) error
}

// MemoryKeyStore keeps the map API key in memory.
type MemoryKeyStore struct {
	mu  sync.Mutex
	key string
}

func (s *MemoryKeyStore) MapAPIKey() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, nil
}

func (s *MemoryKeyStore) SetMapAPIKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	return nil
}

// State is an immutable snapshot for rendering.
type State struct {
	Filter   listing.Filter    `json:"filter"`
	Visible  []listing.Listing `json:"visible"`
	Total    int               `json:"total"`
	Modal    Modal             `json:"modal"`
	Selected *listing.Listing  `json:"selected,omitempty"`
	Messages []Message         `json:"messages,omitempty"`
	MapKey   string            `json:"-"`
}

// Controller owns one session's catalog, filter and selection. Every
// method is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	catalog  *listing.Catalog
	filter   listing.Filter
	modal    Modal
	selected string
	chat     *Chat
	keys     KeyStore
	chatOpts ChatOptions
}

// Options configures a Controller.
type Options struct {
	Keys KeyStore
	Chat ChatOptions
}

// NewController creates a controller over the catalog starting with the
// default filter and no modal.
func NewController(catalog *listing.Catalog, opts Options) *Controller {
	if opts.Keys == nil {
		opts.Keys = &MemoryKeyStore{}
	}
	return &Controller{
		catalog:  catalog,
		filter:   listing.DefaultFilter(),
		keys:     opts.Keys,
		chatOpts: opts.Chat,
	}
}

// Catalog returns the controller's catalog.
func (c *Controller) Catalog() *listing.Catalog {
	return c.catalog
}

// Filter returns the current filter.
func (c *Controller) Filter() listing.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetQuery updates the search text.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.Query = q
}

// SetCategory updates the category criterion.
func (c *Controller) SetCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.Category = category
}

// SetLocation updates the location criterion.
func (c *Controller) SetLocation(location string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.Location = location
}

// SetFilter replaces all three criteria.
func (c *Controller) SetFilter(f listing.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

// ResetFilter restores the default filter.
func (c *Controller) ResetFilter() {
	c.SetFilter(listing.DefaultFilter())
}

// View returns the listings visible under the current filter.
func (c *Controller) View() []listing.Listing {
	return c.catalog.View(c.Filter())
}

// Modal returns the active modal.
func (c *Controller) Modal() Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// Selected returns the selected listing, read fresh from the catalog.
func (c *Controller) Selected() (listing.Listing, bool) {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()

	if id == "" {
		return listing.Listing{}, false
	}
	return c.catalog.Get(id)
}

// Chat returns the active chat, or nil when the chat modal is closed.
func (c *Controller) Chat() *Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat
}

// OpenDetail shows the detail modal for a listing.
func (c *Controller) OpenDetail(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireModal("open detail", ModalNone); err != nil {
		return err
	}
	if err := c.selectLocked(id); err != nil {
		return err
	}
	c.modal = ModalDetail
	return nil
}

// OpenChat starts a chat with the listing's owner, from the board or from
// the detail modal.
func (c *Controller) OpenChat(id string) (*Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireModal("open chat", ModalNone, ModalDetail); err != nil {
		return nil, err
	}
	if err := c.selectLocked(id); err != nil {
		return nil, err
	}
	c.modal = ModalChat
	c.chat = NewChat(id, c.chatOpts)
	slog.Debug("chat opened", "listing", id)
	return c.chat, nil
}

// OpenMap shows the map for a listing. Without a saved API key the
// settings modal opens instead and the selection is left alone.
func (c *Controller) OpenMap(id string) (Modal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireModal("open map", ModalNone); err != nil {
		return c.modal, err
	}
	if _, ok := c.catalog.Get(id); !ok {
		return c.modal, fmt.Errorf("open map %q: %w", id, listing.ErrNotFound)
	}

	key, err := c.keys.MapAPIKey()
	if err != nil {
		return c.modal, fmt.Errorf("loading map API key: %w", err)
	}
	if key == "" {
		c.modal = ModalAPIKeySetting
		return c.modal, nil
	}

	c.selected = id
	c.modal = ModalMap
	return c.modal, nil
}

// OpenSettings shows the map API key settings.
func (c *Controller) OpenSettings() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireModal("open settings", ModalNone); err != nil {
		return err
	}
	c.modal = ModalAPIKeySetting
	return nil
}

// Close hides the active modal, clears the selection and cancels the
// chat's pending replies. Closing with no modal open is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if c.chat != nil {
		c.chat.Close()
		c.chat = nil
	}
	c.modal = ModalNone
	c.selected = ""
}

// MapAPIKey returns the saved map API key, empty when none is set.
func (c *Controller) MapAPIKey() (string, error) {
	return c.keys.MapAPIKey()
}

// SaveMapAPIKey stores a trimmed API key. When the settings modal is
// open it is closed afterwards.
func (c *Controller) SaveMapAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyAPIKey
	}
	if err := c.keys.SetMapAPIKey(key); err != nil {
		return fmt.Errorf("saving map API key: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == ModalAPIKeySetting {
		c.closeLocked()
	}
	return nil
}

// ConfirmRental marks a listing unavailable. It reports false for unknown
// ids and for listings already rented out.
func (c *Controller) ConfirmRental(id string) bool {
	ok := c.catalog.ConfirmRental(id)
	if ok {
		slog.Info("rental confirmed", "listing", id)
	}
	return ok
}

// Snapshot returns the state the rendering layer needs. Filter, modal,
// selection, listings and messages are read together under the session
// lock.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.catalog.Window(c.filter, c.selected)
	st := State{
		Filter:   c.filter,
		Visible:  w.Visible,
		Total:    w.Total,
		Modal:    c.modal,
		Selected: w.Selected,
	}
	if c.chat != nil {
		st.Messages = c.chat.Messages()
	}
	if c.modal == ModalMap {
		if key, err := c.keys.MapAPIKey(); err == nil {
			st.MapKey = key
		}
	}
	return st
}

func (c *Controller) requireModal(event string, allowed ...Modal) error {
	for _, m := range allowed {
		if c.modal == m {
			return nil
		}
	}
	return fmt.Errorf("%s while %s is open: %w", event, c.modal, ErrInvalidTransition)
}

func (c *Controller) selectLocked(id string) error {
	if _, ok := c.catalog.Get(id); !ok {
		return fmt.Errorf("select %q: %w", id, listing.ErrNotFound)
	}
	c.selected = id
	return nil
}
