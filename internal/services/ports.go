package services

import (
	"context"
	"time"

	"github.com/diewo77/go-billing/internal/models"
)

// QuotationRepository is the quotation persistence the use cases need.
type QuotationRepository interface {
	Save(ctx context.Context, q models.Quotation) (models.Quotation, error)
	FindByID(ctx context.Context, id string) (models.Quotation, error)
	FindByUser(ctx context.Context, userID string) ([]models.Quotation, error)
	FindByUserAndStatus(ctx context.Context, userID string, status models.QuotationStatus) ([]models.Quotation, error)
	Update(ctx context.Context, q models.Quotation) (models.Quotation, error)
}

// InvoiceRepository is the invoice persistence the use cases need. Save must
// enforce one invoice per quotation and unique numbers.
type InvoiceRepository interface {
	Save(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	Update(ctx context.Context, inv models.Invoice) (models.Invoice, error)
	FindByID(ctx context.Context, id string) (models.Invoice, error)
	FindByQuotationID(ctx context.Context, quotationID string) (models.Invoice, error)
	FindByInvoiceNumber(ctx context.Context, number string) (models.Invoice, error)
	FindByUser(ctx context.Context, userID string) ([]models.Invoice, error)
	FindByQuotationIDs(ctx context.Context, quotationIDs []string) (map[string]models.Invoice, error)
	FindOverdueByUser(ctx context.Context, userID string, now time.Time) ([]models.Invoice, error)
	GenerateUniqueInvoiceNumber(ctx context.Context, now time.Time) (string, error)
}

// ClientLookup resolves a client of the client book.
type ClientLookup interface {
	FindByID(ctx context.Context, id string) (models.Client, error)
}

// ClientBook is a ClientLookup that can also register and remove clients.
type ClientBook interface {
	ClientLookup
	Create(ctx context.Context, c models.Client) (models.Client, error)
	Delete(ctx context.Context, id string) error
}
