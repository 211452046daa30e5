// Package store persists quotations, invoices, clients and users with gorm.
// Domain values from internal/models are mapped to flat records here; the
// models package stays free of persistence concerns.
package store

import (
	"time"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/shopspring/decimal"
)

// clientColumns is the client snapshot embedded in quotations and invoices.
type clientColumns struct {
	ID           string `gorm:"size:36"`
	Firstname    string `gorm:"size:255"`
	Lastname     string `gorm:"size:255"`
	ActivityName string `gorm:"size:255"`
	Address      string `gorm:"size:500"`
	Phone        string `gorm:"size:50"`
	Email        string `gorm:"size:255"`
	LegalStatus  string `gorm:"size:100"`
}

func toClientColumns(c models.ClientInfo) clientColumns {
	return clientColumns(c)
}

func (c clientColumns) toModel() models.ClientInfo {
	return models.ClientInfo(c)
}

// LineColumns is shared by quotation and invoice lines. It is exported so
// gorm picks up the embedded columns.
type LineColumns struct {
	Position           int             `gorm:"not null"`
	ProductID          string          `gorm:"size:64"`
	ProductName        string          `gorm:"size:255;not null"`
	ProductDescription string          `gorm:"type:text"`
	Quantity           int             `gorm:"not null"`
	UnitPrice          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalPrice         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}

func toLineColumns(pos int, l models.Line) LineColumns {
	return LineColumns{
		Position:           pos,
		ProductID:          l.ProductID,
		ProductName:        l.ProductName,
		ProductDescription: l.ProductDescription,
		Quantity:           l.Quantity,
		UnitPrice:          l.UnitPrice,
		TotalPrice:         l.TotalPrice,
	}
}

func (l LineColumns) toModel() models.Line {
	return models.Line{
		ProductID:          l.ProductID,
		ProductName:        l.ProductName,
		ProductDescription: l.ProductDescription,
		Quantity:           l.Quantity,
		UnitPrice:          l.UnitPrice,
		TotalPrice:         l.TotalPrice,
	}
}

type quotationRecord struct {
	ID        string          `gorm:"primaryKey;size:36"`
	UserID    string          `gorm:"size:36;index;not null"`
	Version   int             `gorm:"not null;default:1"`
	Status    string          `gorm:"size:20;not null;index"`
	Date      time.Time       `gorm:"not null"`
	TaxRate   decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Client    clientColumns   `gorm:"embedded;embeddedPrefix:client_"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []quotationLineRecord `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
}

func (quotationRecord) TableName() string { return "quotations" }

type quotationLineRecord struct {
	ID          uint   `gorm:"primaryKey"`
	QuotationID string `gorm:"size:36;index;not null"`
	LineColumns `gorm:"embedded"`
}

func (quotationLineRecord) TableName() string { return "quotation_lines" }

func toQuotationRecord(q models.Quotation) quotationRecord {
	rec := quotationRecord{
		ID:      q.ID,
		UserID:  q.UserID,
		Version: q.Version,
		Status:  string(q.Status),
		Date:    q.Date,
		TaxRate: q.TaxRate,
		Client:  toClientColumns(q.Client),
	}
	for i, l := range q.Lines {
		rec.Lines = append(rec.Lines, quotationLineRecord{QuotationID: q.ID, LineColumns: toLineColumns(i, l)})
	}
	return rec
}

func (r quotationRecord) toModel() models.Quotation {
	q := models.Quotation{
		ID:      r.ID,
		Version: r.Version,
		Status:  models.QuotationStatus(r.Status),
		Client:  r.Client.toModel(),
		Date:    r.Date,
		TaxRate: r.TaxRate,
		UserID:  r.UserID,
		Lines:   make([]models.Line, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		q.Lines = append(q.Lines, l.toModel())
	}
	return q
}

// invoiceRecord carries the unique indexes that make the store the arbiter of
// "one invoice per quotation" and "unique invoice number".
type invoiceRecord struct {
	ID                string          `gorm:"primaryKey;size:36"`
	InvoiceNumber     string          `gorm:"size:32;not null;uniqueIndex:idx_invoices_invoice_number"`
	Status            string          `gorm:"size:20;not null;index"`
	Date              time.Time       `gorm:"not null"`
	DueDate           time.Time       `gorm:"not null;index"`
	QuotationID       string          `gorm:"size:36;not null;uniqueIndex:idx_invoices_quotation_id"`
	QuotationDate     time.Time       `gorm:"not null"`
	QuotationTaxRate  decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Client            clientColumns   `gorm:"embedded;embeddedPrefix:client_"`
	TotalExcludingTax decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalIncludingTax decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	TaxRate           decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	PaidDate          *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Lines []invoiceLineRecord `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

func (invoiceRecord) TableName() string { return "invoices" }

type invoiceLineRecord struct {
	ID          uint   `gorm:"primaryKey"`
	InvoiceID   string `gorm:"size:36;index;not null"`
	LineColumns `gorm:"embedded"`
}

func (invoiceLineRecord) TableName() string { return "invoice_lines" }

func toInvoiceRecord(inv models.Invoice) invoiceRecord {
	rec := invoiceRecord{
		ID:                inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		Status:            string(inv.Status),
		Date:              inv.Date,
		DueDate:           inv.DueDate,
		QuotationID:       inv.QuotationID,
		QuotationDate:     inv.Quotation.Date,
		QuotationTaxRate:  inv.Quotation.TaxRate,
		Client:            toClientColumns(inv.Client),
		TotalExcludingTax: inv.TotalExcludingTax,
		TotalIncludingTax: inv.TotalIncludingTax,
		TaxRate:           inv.TaxRate,
		PaidDate:          inv.PaidDate,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
	for i, l := range inv.Quotation.Lines {
		rec.Lines = append(rec.Lines, invoiceLineRecord{InvoiceID: inv.ID, LineColumns: toLineColumns(i, l)})
	}
	return rec
}

func (r invoiceRecord) toModel() models.Invoice {
	inv := models.Invoice{
		ID:            r.ID,
		InvoiceNumber: r.InvoiceNumber,
		Status:        models.InvoiceStatus(r.Status),
		Date:          r.Date,
		DueDate:       r.DueDate,
		QuotationID:   r.QuotationID,
		Quotation: models.QuotationSnapshot{
			ID:      r.QuotationID,
			TaxRate: r.QuotationTaxRate,
			Date:    r.QuotationDate,
			Lines:   make([]models.Line, 0, len(r.Lines)),
		},
		Client:            r.Client.toModel(),
		TotalExcludingTax: r.TotalExcludingTax,
		TotalIncludingTax: r.TotalIncludingTax,
		TaxRate:           r.TaxRate,
		PaidDate:          r.PaidDate,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	for _, l := range r.Lines {
		inv.Quotation.Lines = append(inv.Quotation.Lines, l.toModel())
	}
	return inv
}

type clientRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	UserID       string `gorm:"size:36;index;not null"`
	Firstname    string `gorm:"size:255;not null"`
	Lastname     string `gorm:"size:255;not null"`
	ActivityName string `gorm:"size:255"`
	Address      string `gorm:"size:500"`
	Phone        string `gorm:"size:50"`
	Email        string `gorm:"size:255"`
	LegalStatus  string `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (clientRecord) TableName() string { return "clients" }

func toClientRecord(c models.Client) clientRecord {
	return clientRecord{
		ID:           c.ID,
		UserID:       c.UserID,
		Firstname:    c.Firstname,
		Lastname:     c.Lastname,
		ActivityName: c.ActivityName,
		Address:      c.Address,
		Phone:        c.Phone,
		Email:        c.Email,
		LegalStatus:  c.LegalStatus,
	}
}

func (r clientRecord) toModel() models.Client {
	return models.Client{
		ClientInfo: models.ClientInfo{
			ID:           r.ID,
			Firstname:    r.Firstname,
			Lastname:     r.Lastname,
			ActivityName: r.ActivityName,
			Address:      r.Address,
			Phone:        r.Phone,
			Email:        r.Email,
			LegalStatus:  r.LegalStatus,
		},
		UserID: r.UserID,
	}
}

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex:idx_users_email;size:255;not null"`
	FirstName    string `gorm:"size:255"`
	LastName     string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255;not null;default:''"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toModel() models.User {
	return models.User{ID: r.ID, Email: r.Email, FirstName: r.FirstName, LastName: r.LastName, CreatedAt: r.CreatedAt}
}

// Models returns the records to pass to AutoMigrate, parents first.
func Models() []any {
	return []any{
		&userRecord{},
		&clientRecord{},
		&quotationRecord{},
		&quotationLineRecord{},
		&invoiceRecord{},
		&invoiceLineRecord{},
	}
}
