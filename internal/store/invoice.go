package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceStore persists invoices. Uniqueness of quotation_id and
// invoice_number is enforced by unique indexes, not by prior reads.
type InvoiceStore struct {
	db *gorm.DB
}

func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// Save inserts a new invoice with its frozen lines. A unique constraint
// violation is reported as ErrDuplicateInvoice or ErrDuplicateInvoiceNumber.
func (s *InvoiceStore) Save(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	rec := toInvoiceRecord(inv)
	err := s.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return rec.toModel(), nil
	}
	if !isUniqueViolation(err) {
		return models.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	// The quotation constraint wins when both collide.
	var count int64
	if cerr := s.db.WithContext(ctx).Model(&invoiceRecord{}).Where("quotation_id = ?", inv.QuotationID).Count(&count).Error; cerr == nil && count > 0 {
		return models.Invoice{}, ErrDuplicateInvoice
	}
	return models.Invoice{}, ErrDuplicateInvoiceNumber
}

// Update persists status, paid date and timestamps of an existing invoice.
// Snapshot columns are frozen at generation time and never rewritten.
func (s *InvoiceStore) Update(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	res := s.db.WithContext(ctx).Model(&invoiceRecord{}).Where("id = ?", inv.ID).
		Select("status", "paid_date", "due_date", "updated_at").
		Updates(map[string]any{
			"status":     string(inv.Status),
			"paid_date":  inv.PaidDate,
			"due_date":   inv.DueDate,
			"updated_at": inv.UpdatedAt,
		})
	if res.Error != nil {
		return models.Invoice{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Invoice{}, ErrNotFound
	}
	return s.FindByID(ctx, inv.ID)
}

func (s *InvoiceStore) first(db *gorm.DB) (models.Invoice, error) {
	var rec invoiceRecord
	if err := db.Preload("Lines", orderedLines).First(&rec).Error; err != nil {
		return models.Invoice{}, notFound(err)
	}
	return rec.toModel(), nil
}

func (s *InvoiceStore) find(db *gorm.DB) ([]models.Invoice, error) {
	var recs []invoiceRecord
	if err := db.Preload("Lines", orderedLines).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Invoice, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *InvoiceStore) FindByID(ctx context.Context, id string) (models.Invoice, error) {
	return s.first(s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *InvoiceStore) FindByQuotationID(ctx context.Context, quotationID string) (models.Invoice, error) {
	return s.first(s.db.WithContext(ctx).Where("quotation_id = ?", quotationID))
}

func (s *InvoiceStore) FindByInvoiceNumber(ctx context.Context, number string) (models.Invoice, error) {
	return s.first(s.db.WithContext(ctx).Where("invoice_number = ?", number))
}

func (s *InvoiceStore) FindAll(ctx context.Context) ([]models.Invoice, error) {
	return s.find(s.db.WithContext(ctx).Order("date DESC"))
}

// byOwner scopes invoices to those whose quotation belongs to userID.
func byOwner(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("invoices.quotation_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&quotationRecord{}).Select("id").Where("user_id = ?", userID))
	}
}

func (s *InvoiceStore) FindByUser(ctx context.Context, userID string) ([]models.Invoice, error) {
	return s.find(s.db.WithContext(ctx).Scopes(byOwner(userID)).Order("date DESC"))
}

// FindByQuotationIDs returns invoices keyed by quotation id.
func (s *InvoiceStore) FindByQuotationIDs(ctx context.Context, quotationIDs []string) (map[string]models.Invoice, error) {
	out := make(map[string]models.Invoice, len(quotationIDs))
	if len(quotationIDs) == 0 {
		return out, nil
	}
	invs, err := s.find(s.db.WithContext(ctx).Where("quotation_id IN ?", quotationIDs))
	if err != nil {
		return nil, err
	}
	for _, inv := range invs {
		out[inv.QuotationID] = inv
	}
	return out, nil
}

func (s *InvoiceStore) FindByClientID(ctx context.Context, clientID string) ([]models.Invoice, error) {
	return s.find(s.db.WithContext(ctx).Where("client_id = ?", clientID).Order("date DESC"))
}

func overdueAt(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("invoices.status <> ? AND invoices.due_date < ?", string(models.InvoiceStatusPaid), now).
			Order("invoices.due_date ASC")
	}
}

// FindOverdue returns unpaid invoices past due at now, oldest due date first.
func (s *InvoiceStore) FindOverdue(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	return s.find(s.db.WithContext(ctx).Scopes(overdueAt(now)))
}

func (s *InvoiceStore) FindOverdueByUser(ctx context.Context, userID string, now time.Time) ([]models.Invoice, error) {
	return s.find(s.db.WithContext(ctx).Scopes(byOwner(userID), overdueAt(now)))
}

func (s *InvoiceStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&invoiceRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes an invoice and its lines.
func (s *InvoiceStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&invoiceLineRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&invoiceRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GenerateUniqueInvoiceNumber returns the next FAC-YYYYMM-NNNNNN number for
// the month of now. Concurrent callers may get the same number; Save rejects
// the loser with ErrDuplicateInvoiceNumber.
func (s *InvoiceStore) GenerateUniqueInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	var numbers []string
	err := s.db.WithContext(ctx).Model(&invoiceRecord{}).
		Where("invoice_number LIKE ?", models.InvoiceNumberPrefix(now)+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return models.NextInvoiceNumber(now, numbers), nil
}
