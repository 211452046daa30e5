package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

type ctxKey string

const (
	sessionCookieName = "session"
	identityCtxKey    = ctxKey("identity")

	// SessionTTL is the lifetime of the session cookie.
	SessionTTL = 14 * 24 * time.Hour
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("auth: not authenticated")

// Sessions signs and verifies the session cookie. The cookie value is
// "<userID>.<base64url(hmac-sha256(userID))>".
type Sessions struct {
	secret []byte
}

func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret)}
}

func (s *Sessions) sign(userID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie with the user id.
func (s *Sessions) CreateSession(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    userID + "." + s.sign(userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(SessionTTL),
	})
}

// ClearSession deletes the session cookie.
func (s *Sessions) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the user id.
func (s *Sessions) ParseSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	uid, sig, ok := strings.Cut(c.Value, ".")
	if !ok || uid == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(uid))) {
		return "", false
	}
	return uid, true
}

// WithIdentity stores the authenticated identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromContext extracts the identity placed by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok && id.ID != ""
}

// Middleware resolves the caller once per request, from a bearer token when
// present and from the session cookie otherwise, and attaches the identity
// to the request context. Unknown users are treated as anonymous.
type Middleware struct {
	sessions *Sessions
	tokens   *Tokens
	users    UserFinder
}

func NewMiddleware(sessions *Sessions, tokens *Tokens, users UserFinder) *Middleware {
	return &Middleware{sessions: sessions, tokens: tokens, users: users}
}

func (m *Middleware) userID(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || m.tokens == nil {
			return "", false
		}
		uid, err := m.tokens.Parse(strings.TrimSpace(raw))
		return uid, err == nil
	}
	if m.sessions == nil {
		return "", false
	}
	return m.sessions.ParseSession(r)
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := m.userID(r); ok {
			u, err := m.users.FindByID(r.Context(), uid)
			if err == nil {
				r = r.WithContext(WithIdentity(r.Context(), identityOf(u)))
			} else if m.sessions != nil {
				// Session refers to a user that no longer exists.
				m.sessions.ClearSession(w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth returns 401 JSON when no identity was resolved.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"User not authenticated"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
