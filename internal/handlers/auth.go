package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-billing/auth"
	"github.com/diewo77/go-billing/httpx"
	"github.com/diewo77/go-billing/i18n"
	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/store"
	"github.com/diewo77/go-billing/validation"
	"golang.org/x/crypto/bcrypt"
)

// Accounts is the user persistence behind signup and login.
type Accounts interface {
	Register(ctx context.Context, u models.User, passwordHash string) (models.User, error)
	Credentials(ctx context.Context, email string) (models.User, string, error)
}

type AuthHandler struct {
	users    Accounts
	sessions *auth.Sessions
	tokens   *auth.Tokens
}

func NewAuthHandler(users Accounts, sessions *auth.Sessions, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, tokens: tokens}
}

type credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type sessionResponse struct {
	User  auth.Identity `json:"user"`
	Token string        `json:"token"`
}

// open sets the session cookie and returns a bearer token for API clients.
func (h *AuthHandler) open(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	token, err := h.tokens.Issue(u.ID, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.sessions.CreateSession(w, u.ID)
	httpx.JSON(w, status, sessionResponse{
		User:  auth.Identity{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName},
		Token: token,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := httpx.Decode(r, &c); err != nil {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}

	var v validation.Violations
	validation.Required("email", c.Email, &v)
	validation.Email("email", c.Email, &v)
	validation.Required("password", c.Password, &v)
	if !v.Empty() {
		l := lang(r)
		badRequest(w, r, "Validation failed", v.Messages(func(code string) string { return i18n.T(l, code) }))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.users.Register(r.Context(), models.User{
		Email:     strings.TrimSpace(c.Email),
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}, string(hashedPassword))
	if errors.Is(err, store.ErrDuplicateEmail) {
		badRequest(w, r, "Email already exists", nil)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.open(w, r, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := httpx.Decode(r, &c); err != nil {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}

	u, hash, err := h.users.Credentials(r.Context(), c.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	if err != nil || hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(c.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, i18n.T(lang(r), "Invalid credentials"), nil)
		return
	}
	h.open(w, r, http.StatusOK, u)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
