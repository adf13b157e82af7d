// Package web provides the HTTP server and handlers for the rentshed
// marketplace: the browse board, member pages and the JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/evcraddock/rentshed/internal/auth"
	"github.com/evcraddock/rentshed/internal/config"
	"github.com/evcraddock/rentshed/internal/db"
	"github.com/evcraddock/rentshed/internal/email"
	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/logging"
	"github.com/evcraddock/rentshed/internal/media"
	"github.com/evcraddock/rentshed/internal/rental"
	"github.com/evcraddock/rentshed/internal/session"
	"github.com/evcraddock/rentshed/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the marketplace HTTP server.
type Server struct {
	cfg       config.Config
	boards    *session.Registry
	items     *item.Service
	rentals   *rental.Repository
	settings  *settings.Store
	members   *auth.MemberStore
	apiKeys   *auth.APIKeyStore
	sessions  *auth.SessionStore
	passkeys  *auth.PasskeyStore
	notify    email.Sender // nil when SMTP is not configured
	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
	now       func() time.Time
}

// NewServer creates a web server over the given database. uploader may be
// nil when image upload is not configured.
func NewServer(d *db.DB, cfg config.Config, uploader media.Uploader) (*Server, error) {
	funcMap := template.FuncMap{
		"formatPrice":   tmplFormatPrice,
		"formatRate":    tmplFormatRate,
		"categoryLabel": tmplCategoryLabel,
		"districtLabel": tmplDistrictLabel,
		"formatDate":    tmplFormatDate,
		"modalIs":       tmplModalIs,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	store := settings.NewStore(d)
	items := item.NewService(item.NewRepository(d), uploader)

	s := &Server{
		cfg:      cfg,
		items:    items,
		rentals:  rental.NewRepository(d),
		settings: store,
		members:  auth.NewMemberStore(d, cfg.AdminEmail),
		apiKeys:  auth.NewAPIKeyStore(d),
		sessions: auth.NewSessionStore(d, cfg.Secure()),
		passkeys: auth.NewPasskeyStore(d),
		notify:   email.NewSender(cfg.SMTP),
		boards: session.NewRegistry(items.SeedListings, session.Options{
			Keys: store,
			Chat: session.ChatOptions{ReplyDelay: cfg.ChatReplyDelay},
		}),
		templates: tmpl,
		mux:       http.NewServeMux(),
		now:       time.Now,
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("/health", handleHealth)
	s.mux.HandleFunc("/", s.handleBoard)
	s.mux.HandleFunc("/board/", s.handleBoardAction)
	s.mux.HandleFunc("/ws/chat", s.handleChatStream)

	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/logout", s.handleLogout)
	s.mux.HandleFunc("/items/new", s.handleAddItem)
	s.mux.HandleFunc("/mypage", s.handleMyPage)

	s.mux.HandleFunc("/api/boards", s.handleAPIBoards)
	s.mux.HandleFunc("/api/boards/", s.handleAPIBoards)
	s.mux.HandleFunc("/api/catalog/", s.handleAPICatalog)
	s.mux.HandleFunc("/api/items", s.handleAPIItems)
	s.mux.HandleFunc("/api/items/", s.handleAPIItems)
	s.mux.HandleFunc("/api/rentals", s.apiListRentals)
	s.mux.HandleFunc("/api/settings/map-key", s.apiMapKey)
	s.mux.HandleFunc("/api/me", s.apiMe)

	pk, err := newPasskeyHandlers(cfg.BaseURL, cfg.Secure(), s.passkeys, s.sessions, s.members)
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}
	s.mux.HandleFunc("/passkey/register/begin", pk.handleBeginRegistration)
	s.mux.HandleFunc("/passkey/register/finish", pk.handleFinishRegistration)
	s.mux.HandleFunc("/passkey/login/begin", pk.handleBeginLogin)
	s.mux.HandleFunc("/passkey/login/finish", pk.handleFinishLogin)
	s.mux.HandleFunc("/passkey/delete", pk.handleDelete)

	keys := &apikeyHandlers{apiKeys: s.apiKeys}
	s.mux.HandleFunc("/api/keys", keys.handleKeys)
	s.mux.HandleFunc("/api/keys/", keys.handleDeleteKey)

	s.handler = logging.RequestLogger(
		auth.RequireAuth(s.sessions, auth.RequireAPIKey(s.apiKeys, s.sessions, s.mux)),
	)

	return s, nil
}

// Boards returns the registry of browsing sessions.
func (s *Server) Boards() *session.Registry {
	return s.boards
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves HTTP on the configured port until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web UI", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// SweepBoards removes idle browsing sessions every interval until ctx is
// cancelled.
func (s *Server) SweepBoards(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.boards.Sweep(s.cfg.BoardIdle)
			if err := s.sessions.Cleanup(); err != nil {
				slog.Warn("cleaning up sessions", "error", err)
			}
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Template helper functions

func tmplFormatPrice(p int64) string {
	return humanize.Comma(p) + " won"
}

func tmplFormatRate(p *int64) string {
	if p == nil {
		return "—"
	}
	return humanize.Comma(*p) + " won/hr"
}

func tmplCategoryLabel(c listing.Category) string {
	return c.Label()
}

func tmplDistrictLabel(code string) string {
	if l, ok := listing.DistrictLabel(code); ok {
		return l
	}
	return code
}

func tmplFormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

func tmplModalIs(m session.Modal, name string) bool {
	return strings.EqualFold(m.String(), name)
}
