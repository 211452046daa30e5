package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/go-billing/httpx"
	"github.com/diewo77/go-billing/i18n"
	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/validation"
)

// ClientUseCases manages the caller's client book.
type ClientUseCases interface {
	CreateClient(ctx context.Context, info models.ClientInfo) (models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
}

type ClientHandler struct {
	uc ClientUseCases
}

func NewClientHandler(uc ClientUseCases) *ClientHandler {
	return &ClientHandler{uc: uc}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	cs, err := h.uc.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cs)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var info models.ClientInfo
	if err := httpx.Decode(r, &info); err != nil {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}

	var v validation.Violations
	validation.Required("firstname", info.Firstname, &v)
	validation.Required("lastname", info.Lastname, &v)
	validation.Email("email", info.Email, &v)
	if !v.Empty() {
		l := lang(r)
		badRequest(w, r, "Validation failed", v.Messages(func(code string) string { return i18n.T(l, code) }))
		return
	}

	c, err := h.uc.CreateClient(r.Context(), info)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}
