package store

import (
	"context"
	"fmt"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotationStore persists quotations with their lines.
type QuotationStore struct {
	db *gorm.DB
}

func NewQuotationStore(db *gorm.DB) *QuotationStore {
	return &QuotationStore{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// Save inserts a new quotation. An empty ID is replaced by a fresh uuid.
func (s *QuotationStore) Save(ctx context.Context, q models.Quotation) (models.Quotation, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	rec := toQuotationRecord(q)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Quotation{}, fmt.Errorf("save quotation: %w", err)
	}
	return rec.toModel(), nil
}

func (s *QuotationStore) FindByID(ctx context.Context, id string) (models.Quotation, error) {
	var rec quotationRecord
	err := s.db.WithContext(ctx).Preload("Lines", orderedLines).Where("id = ?", id).First(&rec).Error
	if err != nil {
		return models.Quotation{}, notFound(err)
	}
	return rec.toModel(), nil
}

func (s *QuotationStore) FindAll(ctx context.Context) ([]models.Quotation, error) {
	return s.find(s.db.WithContext(ctx))
}

func (s *QuotationStore) FindByUser(ctx context.Context, userID string) ([]models.Quotation, error) {
	return s.find(s.db.WithContext(ctx).Where("user_id = ?", userID))
}

// FindByUserAndStatus narrows FindByUser to a single status.
func (s *QuotationStore) FindByUserAndStatus(ctx context.Context, userID string, status models.QuotationStatus) ([]models.Quotation, error) {
	return s.find(s.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, string(status)))
}

func (s *QuotationStore) find(db *gorm.DB) ([]models.Quotation, error) {
	var recs []quotationRecord
	if err := db.Preload("Lines", orderedLines).Order("date DESC, id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Quotation, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toModel())
	}
	return out, nil
}

// Update overwrites an existing quotation and replaces its lines.
func (s *QuotationStore) Update(ctx context.Context, q models.Quotation) (models.Quotation, error) {
	rec := toQuotationRecord(q)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing quotationRecord
		if err := tx.Select("id", "created_at").Where("id = ?", q.ID).First(&existing).Error; err != nil {
			return notFound(err)
		}
		rec.CreatedAt = existing.CreatedAt
		lines := rec.Lines
		rec.Lines = nil
		if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("quotation_id = ?", q.ID).Delete(&quotationLineRecord{}).Error; err != nil {
			return err
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		rec.Lines = lines
		return nil
	})
	if err != nil {
		return models.Quotation{}, err
	}
	return rec.toModel(), nil
}
