package services

import (
	"context"

	"github.com/diewo77/go-billing/internal/models"
)

// AcceptedQuotation is an accepted quotation with its invoice, if any.
type AcceptedQuotation struct {
	Quotation  models.Quotation `json:"quotation"`
	HasInvoice bool             `json:"has_invoice"`
	InvoiceID  *string          `json:"invoice_id"`
	Invoice    *models.Invoice  `json:"invoice"`
}

// QueryService answers read-only questions spanning quotations and invoices.
type QueryService struct {
	quotations QuotationRepository
	invoices   InvoiceRepository
}

func NewQueryService(quotations QuotationRepository, invoices InvoiceRepository) *QueryService {
	return &QueryService{quotations: quotations, invoices: invoices}
}

// ListAcceptedQuotations returns userID's accepted quotations, each linked to
// its invoice when one was generated. The result is never nil.
func (s *QueryService) ListAcceptedQuotations(ctx context.Context, userID string) ([]AcceptedQuotation, error) {
	qs, err := s.quotations.FindByUserAndStatus(ctx, userID, models.QuotationStatusAccepted)
	if err != nil {
		return nil, unexpected("Failed to list accepted quotations", err)
	}
	out := make([]AcceptedQuotation, 0, len(qs))
	if len(qs) == 0 {
		return out, nil
	}

	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	byQuotation, err := s.invoices.FindByQuotationIDs(ctx, ids)
	if err != nil {
		return nil, unexpected("Failed to load invoices", err)
	}

	for _, q := range qs {
		item := AcceptedQuotation{Quotation: q}
		if inv, ok := byQuotation[q.ID]; ok {
			id := inv.ID
			item.HasInvoice = true
			item.InvoiceID = &id
			item.Invoice = &inv
		}
		out = append(out, item)
	}
	return out, nil
}
