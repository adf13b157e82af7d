package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

type ctxKey struct{}

// WithEmail returns a context carrying the authenticated member's email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

// EmailFromContext returns the authenticated member's email, if any.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(ctxKey{}).(string)
	return email
}

// RequireAuth is middleware that redirects unauthenticated requests for
// member pages to the login page. Browsing the board is public.
func RequireAuth(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := sessions.Validate(r)
		if err == nil {
			r = r.WithContext(WithEmail(r.Context(), email))
		}

		if !isMemberPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimiter tracks failed API key attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

var apiKeyLimiter = &rateLimiter{
	attempts: make(map[string][]time.Time),
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	rl.attempts[ip] = valid
	return valid
}

// limited reports whether ip has too many recent failures.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip, time.Now())) >= rateLimitMaxFail
}

// recordFailure records a failed attempt.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	rl.attempts[ip] = append(rl.prune(ip, now), now)
}

// RequireAPIKey is middleware that validates Bearer token auth for member
// API routes. Board and catalog API routes are public. A valid session
// cookie is accepted in place of a key so the web UI can call the API.
// Returns 401 for missing/invalid keys, 429 for rate-limited IPs.
func RequireAPIKey(apiKeys *APIKeyStore, sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtectedAPIPath(r.URL.Path) {
			// Public routes still learn who is calling when a key is sent.
			if key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				if email, err := apiKeys.Validate(key); err == nil && email != "" {
					r = r.WithContext(WithEmail(r.Context(), email))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			if email, err := sessions.Validate(r); err == nil {
				next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
				return
			}
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		ip := clientIP(r)
		if apiKeyLimiter.limited(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		email, err := apiKeys.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if email == "" {
			apiKeyLimiter.recordFailure(ip)
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func isMemberPath(path string) bool {
	return path == "/mypage" || path == "/items/new" || strings.HasPrefix(path, "/items/")
}

func isProtectedAPIPath(path string) bool {
	for _, p := range []string{"/api/items", "/api/rentals", "/api/settings", "/api/keys", "/api/me"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
