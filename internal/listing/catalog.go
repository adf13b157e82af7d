package listing

import (
	"fmt"
	"sync"
)

// Catalog holds the listings of one browsing session in insertion order.
// It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	listings []Listing
	index    map[string]int
	used     map[string]struct{}
}

// NewCatalog creates a catalog seeded with the given listings, in order.
func NewCatalog(seed []Listing) (*Catalog, error) {
	c := &Catalog{
		listings: make([]Listing, 0, len(seed)),
		index:    make(map[string]int, len(seed)),
		used:     make(map[string]struct{}, len(seed)),
	}
	for _, l := range seed {
		if err := c.add(l); err != nil {
			return nil, fmt.Errorf("seeding catalog: %w", err)
		}
	}
	return c, nil
}

// Add appends a listing. Ids already seen by this catalog are rejected.
func (c *Catalog) Add(l Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(l)
}

func (c *Catalog) add(l Listing) error {
	if l.ID == "" {
		return fmt.Errorf("listing id is required")
	}
	if _, ok := c.used[l.ID]; ok {
		return fmt.Errorf("duplicate listing id %q", l.ID)
	}
	c.used[l.ID] = struct{}{}
	c.index[l.ID] = len(c.listings)
	c.listings = append(c.listings, l.clone())
	return nil
}

// Get returns the listing with the given id.
func (c *Catalog) Get(id string) (Listing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return Listing{}, false
	}
	return c.listings[i].clone(), true
}

// All returns a copy of every listing in insertion order.
func (c *Catalog) All() []Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Listing, len(c.listings))
	for i, l := range c.listings {
		out[i] = l.clone()
	}
	return out
}

// Len returns the number of listings.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listings)
}

// View returns the listings visible under f, in insertion order. The
// result is recomputed on every call and is never nil.
func (c *Catalog) View(f Filter) []Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewLocked(f)
}

func (c *Catalog) viewLocked(f Filter) []Listing {
	out := make([]Listing, 0, len(c.listings))
	for _, l := range c.listings {
		if f.Matches(l) {
			out = append(out, l.clone())
		}
	}
	return out
}

// Window is one consistent read of a catalog: the listings visible under a
// filter, the catalog size and the selected listing, if any.
type Window struct {
	Visible  []Listing
	Total    int
	Selected *Listing
}

// Window reads the view under f and the listing selectedID in one step, so
// a concurrent rental cannot land between them. An empty or unknown
// selectedID leaves Selected nil.
func (c *Catalog) Window(f Filter, selectedID string) Window {
	c.mu.RLock()
	defer c.mu.RUnlock()

	w := Window{Visible: c.viewLocked(f), Total: len(c.listings)}
	if i, ok := c.index[selectedID]; ok && selectedID != "" {
		l := c.listings[i].clone()
		w.Selected = &l
	}
	return w
}

// ConfirmRental marks the listing unavailable and reports whether it was
// available before. Unknown ids and listings already rented out are left
// untouched and report false.
func (c *Catalog) ConfirmRental(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok || !c.listings[i].Available {
		return false
	}
	c.listings[i].Available = false
	return true
}
