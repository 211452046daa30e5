package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diewo77/go-billing/httpx"
	"github.com/diewo77/go-billing/internal/export"
	"github.com/diewo77/go-billing/internal/metrics"
	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/services"
)

// QuotationUseCases is what QuotationHandler needs from the guarded services.
type QuotationUseCases interface {
	CreateQuotation(ctx context.Context, in services.CreateQuotationInput) (models.Quotation, error)
	UpdateQuotationStatus(ctx context.Context, id, status string) (models.Quotation, error)
	GetQuotationByID(ctx context.Context, id string) (models.Quotation, error)
	ListQuotations(ctx context.Context) ([]models.Quotation, error)
	ListAcceptedQuotations(ctx context.Context) ([]services.AcceptedQuotation, error)
	GenerateInvoice(ctx context.Context, in services.GenerateInvoiceInput) (models.Invoice, error)
	CreateDraftInvoice(ctx context.Context, quotationID string) (models.Invoice, error)
}

type QuotationHandler struct {
	uc QuotationUseCases
}

func NewQuotationHandler(uc QuotationUseCases) *QuotationHandler {
	return &QuotationHandler{uc: uc}
}

// quotationView adds the computed totals to a quotation.
type quotationView struct {
	models.Quotation
	TotalWithoutTaxes string `json:"total_without_taxes"`
	TotalWithTaxes    string `json:"total_with_taxes"`
}

func viewQuotation(q models.Quotation) quotationView {
	return quotationView{
		Quotation:         q,
		TotalWithoutTaxes: q.TotalWithoutTaxes().StringFixed(2),
		TotalWithTaxes:    q.TotalWithTaxes().StringFixed(2),
	}
}

func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateQuotationInput
	if err := httpx.Decode(r, &in); err != nil {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}
	q, err := h.uc.CreateQuotation(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewQuotation(q))
}

func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	qs, err := h.uc.ListQuotations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]quotationView, len(qs))
	for i, q := range qs {
		out[i] = viewQuotation(q)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *QuotationHandler) Accepted(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.ListAcceptedQuotations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *QuotationHandler) View(w http.ResponseWriter, r *http.Request) {
	q, err := h.uc.GetQuotationByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewQuotation(q))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *QuotationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.Decode(r, &req); err != nil {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}
	q, err := h.uc.UpdateQuotationStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewQuotation(q))
}

type convertRequest struct {
	DueDate       string  `json:"due_date"`
	InvoiceNumber *string `json:"invoice_number"`
}

// Convert generates the invoice of an accepted quotation. Without a body the
// default payment term and an automatic number are used.
func (h *QuotationHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req convertRequest
	if err := httpx.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, r, "invalid_body", []string{err.Error()})
		return
	}

	var inv models.Invoice
	var err error
	if req.DueDate == "" && req.InvoiceNumber == nil {
		inv, err = h.uc.CreateDraftInvoice(r.Context(), id)
	} else {
		in := services.GenerateInvoiceInput{QuotationID: id, InvoiceNumber: req.InvoiceNumber}
		if req.DueDate != "" {
			due, perr := parseDate(req.DueDate)
			if perr != nil {
				badRequest(w, r, "invalid_date", nil)
				return
			}
			in.DueDate = due
		}
		inv, err = h.uc.GenerateInvoice(r.Context(), in)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, "Invoice generated successfully", inv)
}

func (h *QuotationHandler) PDF(w http.ResponseWriter, r *http.Request) {
	q, err := h.uc.GetQuotationByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := export.QuotationPDF(q)
	if err != nil {
		metrics.IncExport("pdf", "error")
		writeError(w, r, err)
		return
	}
	metrics.IncExport("pdf", "")
	writeFile(w, "application/pdf", fmt.Sprintf("devis-%s.pdf", shortID(q.ID)), body)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeFile(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
