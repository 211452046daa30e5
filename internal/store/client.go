package store

import (
	"context"
	"fmt"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientStore is the client book. It also serves as the ClientLookup used to
// hydrate quotation snapshots at read time.
type ClientStore struct {
	db *gorm.DB
}

func NewClientStore(db *gorm.DB) *ClientStore {
	return &ClientStore{db: db}
}

func (s *ClientStore) Create(ctx context.Context, c models.Client) (models.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	rec := toClientRecord(c)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Client{}, fmt.Errorf("create client: %w", err)
	}
	return rec.toModel(), nil
}

func (s *ClientStore) FindByID(ctx context.Context, id string) (models.Client, error) {
	var rec clientRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return models.Client{}, notFound(err)
	}
	return rec.toModel(), nil
}

// Delete removes a client. Deleting an unknown id is not an error.
func (s *ClientStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&clientRecord{}).Error; err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

func (s *ClientStore) FindByUser(ctx context.Context, userID string) ([]models.Client, error) {
	var recs []clientRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("lastname, firstname").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toModel())
	}
	return out, nil
}
