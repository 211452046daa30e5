package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/go-billing/httpx"
	"github.com/diewo77/go-billing/internal/export"
	"github.com/diewo77/go-billing/internal/metrics"
	"github.com/diewo77/go-billing/internal/models"
)

// InvoiceUseCases is what InvoiceHandler needs from the guarded services.
type InvoiceUseCases interface {
	GetInvoiceByID(ctx context.Context, id string) (models.Invoice, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	ListOverdueInvoices(ctx context.Context) ([]models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id, status string) (models.Invoice, error)
	SendInvoice(ctx context.Context, id string) (models.Invoice, error)
}

type InvoiceHandler struct {
	uc  InvoiceUseCases
	now func() time.Time
}

func NewInvoiceHandler(uc InvoiceUseCases) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, now: time.Now}
}

// invoiceView adds due date information relative to the request time.
type invoiceView struct {
	models.Invoice
	TaxAmount    string `json:"tax_amount"`
	IsOverdue    bool   `json:"is_overdue"`
	DaysUntilDue int    `json:"days_until_due"`
}

func (h *InvoiceHandler) view(inv models.Invoice) invoiceView {
	now := h.now()
	return invoiceView{
		Invoice:      inv,
		TaxAmount:    inv.TaxAmount().StringFixed(2),
		IsOverdue:    inv.IsOverdue(now),
		DaysUntilDue: inv.DaysUntilDue(now),
	}
}

func (h *InvoiceHandler) views(invs []models.Invoice) []invoiceView {
	out := make([]invoiceView, len(invs))
	for i, inv := range invs {
		out[i] = h.view(inv)
	}
	return out
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invs, err := h.uc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.views(invs))
}

func (h *InvoiceHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	invs, err := h.uc.ListOverdueInvoices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.views(invs))
}

func (h *InvoiceHandler) View(w http.ResponseWriter, r *http.Request) {
	inv, err := h.uc.GetInvoiceByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}
	inv, err := h.uc.UpdateInvoiceStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, fmt.Sprintf("Invoice status updated to %s", inv.Status), h.view(inv))
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	inv, err := h.uc.SendInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, fmt.Sprintf("Invoice status updated to %s", inv.Status), h.view(inv))
}

func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.uc.GetInvoiceByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := export.InvoicePDF(inv)
	if err != nil {
		metrics.IncExport("pdf", "error")
		writeError(w, r, err)
		return
	}
	metrics.IncExport("pdf", "")
	writeFile(w, "application/pdf", fmt.Sprintf("facture-%s.pdf", inv.InvoiceNumber), body)
}

func (h *InvoiceHandler) Register(w http.ResponseWriter, r *http.Request) {
	invs, err := h.uc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := h.now()
	body, err := export.InvoiceRegisterXLSX(invs, now)
	if err != nil {
		metrics.IncExport("xlsx", "error")
		writeError(w, r, err)
		return
	}
	metrics.IncExport("xlsx", "")
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("factures-%s.xlsx", now.Format("2006-01-02")), body)
}
