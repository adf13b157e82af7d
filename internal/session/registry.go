package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/rentshed/internal/listing"
)

// SeedFunc returns the listings a new session's catalog starts with.
type SeedFunc func() ([]listing.Listing, error)

// Registry tracks the browsing sessions of the web front-end, keyed by a
// random id handed to the browser in a cookie.
type Registry struct {
	mu     sync.Mutex
	boards map[string]*board
	seed   SeedFunc
	opts   Options
	now    func() time.Time
}

type board struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewRegistry creates a registry that seeds every new session with seed.
// opts.Keys is shared by every session read-only; keys saved through a
// session stay in that session.
func NewRegistry(seed SeedFunc, opts Options) *Registry {
	if seed == nil {
		seed = func() ([]listing.Listing, error) { return listing.Seed(), nil }
	}
	return &Registry{
		boards: make(map[string]*board),
		seed:   seed,
		opts:   opts,
		now:    time.Now,
	}
}

// Create starts a new session and returns its id.
func (r *Registry) Create() (string, *Controller, error) {
	listings, err := r.seed()
	if err != nil {
		return "", nil, fmt.Errorf("loading seed listings: %w", err)
	}
	catalog, err := listing.NewCatalog(listings)
	if err != nil {
		return "", nil, err
	}

	opts := r.opts
	opts.Keys = NewBoardKeyStore(r.opts.Keys)

	id := uuid.NewString()
	ctrl := NewController(catalog, opts)

	r.mu.Lock()
	r.boards[id] = &board{ctrl: ctrl, lastSeen: r.now()}
	r.mu.Unlock()

	slog.Debug("session created", "session", id, "listings", catalog.Len())
	return id, ctrl, nil
}

// Get returns the session with the given id and marks it as seen.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.boards[id]
	if !ok {
		return nil, false
	}
	b.lastSeen = r.now()
	return b.ctrl, true
}

// GetOrCreate returns the session for id, creating a new one when the id
// is empty or unknown. The returned id is the one to keep using.
func (r *Registry) GetOrCreate(id string) (string, *Controller, error) {
	if id != "" {
		if ctrl, ok := r.Get(id); ok {
			return id, ctrl, nil
		}
	}
	return r.Create()
}

// Remove ends a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	b, ok := r.boards[id]
	delete(r.boards, id)
	r.mu.Unlock()

	if ok {
		b.ctrl.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Sweep ends every session idle for longer than maxIdle and returns how
// many were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*board
	for id, b := range r.boards {
		if b.lastSeen.Before(cutoff) {
			stale = append(stale, b)
			delete(r.boards, id)
		}
	}
	r.mu.Unlock()

	for _, b := range stale {
		b.ctrl.Close()
	}
	if len(stale) > 0 {
		slog.Info("idle sessions swept", "count", len(stale))
	}
	return len(stale)
}
