package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/evcraddock/rentshed/internal/auth"
)

const (
	ceremonyCookie  = "shed_passkey"
	ceremonyTimeout = 5 * time.Minute
	defaultBaseURL  = "http://localhost:8080"
)

type ceremony struct {
	data    *webauthn.SessionData
	started time.Time
}

// passkeyHandlers serves passkey registration for signed-in members and
// passkey sign-in from the login page.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions *auth.SessionStore
	members  *auth.MemberStore
	secure   bool

	// In-flight ceremonies. Registrations are keyed by member email,
	// logins by the id in the ceremony cookie.
	mu            sync.Mutex
	registrations map[string]ceremony
	logins        map[string]ceremony
	now           func() time.Time
}

func newPasskeyHandlers(baseURL string, secure bool, passkeys *auth.PasskeyStore, sessions *auth.SessionStore, members *auth.MemberStore) (*passkeyHandlers, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "rentshed",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimSuffix(baseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:           wan,
		passkeys:      passkeys,
		sessions:      sessions,
		members:       members,
		secure:        secure,
		registrations: make(map[string]ceremony),
		logins:        make(map[string]ceremony),
		now:           time.Now,
	}, nil
}

// put stores a ceremony and drops any that have timed out.
func (h *passkeyHandlers) put(m map[string]ceremony, key string, data *webauthn.SessionData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	for k, c := range m {
		if now.Sub(c.started) > ceremonyTimeout {
			delete(m, k)
		}
	}
	m[key] = ceremony{data: data, started: now}
}

// take removes and returns a ceremony that has not timed out.
func (h *passkeyHandlers) take(m map[string]ceremony, key string) (*webauthn.SessionData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := m[key]
	if !ok {
		return nil, false
	}
	delete(m, key)
	if h.now().Sub(c.started) > ceremonyTimeout {
		return nil, false
	}
	return c.data, true
}

// memberEmail returns the signed-in member, or writes 401.
func (h *passkeyHandlers) memberEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := h.sessions.Validate(r)
	if err != nil || !h.members.IsAuthorized(email) {
		apiError(w, "sign in first", http.StatusUnauthorized)
		return "", false
	}
	return email, true
}

// handleBeginRegistration starts registering a passkey from the member page.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, ok := h.memberEmail(w, r)
	if !ok {
		return
	}

	user, err := h.passkeys.User(email)
	if err != nil {
		slog.Error("loading passkeys", "email", email, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	exclude := make([]protocol.CredentialDescriptor, 0, len(user.WebAuthnCredentials()))
	for _, c := range user.WebAuthnCredentials() {
		exclude = append(exclude, c.Descriptor())
	}

	creation, data, err := h.wan.BeginRegistration(user, webauthn.WithExclusions(exclude))
	if err != nil {
		slog.Error("beginning passkey registration", "email", email, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.put(h.registrations, email, data)
	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration verifies the authenticator's response and saves
// the credential under the ?name= label.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, ok := h.memberEmail(w, r)
	if !ok {
		return
	}

	data, ok := h.take(h.registrations, email)
	if !ok {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	user, err := h.passkeys.User(email)
	if err != nil {
		slog.Error("loading passkeys", "email", email, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(user, *data, r)
	if err != nil {
		slog.Warn("passkey registration failed", "email", email, "error", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.passkeys.Save(email, name, credential); err != nil {
		slog.Error("saving passkey", "email", email, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleBeginLogin starts a discoverable passkey sign-in.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	assertion, data, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	h.put(h.logins, id, data)
	http.SetCookie(w, &http.Cookie{
		Name:     ceremonyCookie,
		Value:    id,
		Path:     "/passkey/login",
		MaxAge:   int(ceremonyTimeout / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin verifies the assertion and signs the member in.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie(ceremonyCookie)
	if err != nil {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: ceremonyCookie, Path: "/passkey/login", MaxAge: -1})

	data, ok := h.take(h.logins, cookie.Value)
	if !ok {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var email string
	lookup := func(rawID, userHandle []byte) (webauthn.User, error) {
		found, err := h.passkeys.EmailForHandle(userHandle)
		if err != nil {
			return nil, err
		}
		if found == "" || !h.members.IsAuthorized(found) {
			return nil, protocol.ErrBadRequest.WithDetails("unknown member")
		}
		user, err := h.passkeys.User(found)
		if err != nil {
			return nil, err
		}
		email = found
		return user, nil
	}

	_, credential, err := h.wan.FinishPasskeyLogin(lookup, *data, r)
	if err != nil {
		slog.Warn("passkey login failed", "error", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	if err := h.passkeys.MarkUsed(credential); err != nil {
		slog.Warn("recording passkey use", "email", email, "error", err)
	}

	if err := h.sessions.Create(w, email); err != nil {
		slog.Error("creating session", "email", email, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("member signed in", "email", email, "method", "passkey")
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleDelete removes one of the member's passkeys from the member page.
func (h *passkeyHandlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, err := h.sessions.Validate(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.passkeys.Delete(r.FormValue("id"), email); err != nil {
		slog.Warn("deleting passkey", "email", email, "error", err)
		http.Error(w, "Passkey not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/mypage", http.StatusSeeOther)
}
