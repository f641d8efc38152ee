package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"procurement-backend/internal/domain/purchasing"
	"procurement-backend/internal/domain/routing"
)

type PurchasingRepository struct{ db *gorm.DB }

func NewPurchasingRepository(db *gorm.DB) *PurchasingRepository {
	return &PurchasingRepository{db: db}
}

func (r *PurchasingRepository) Create(ctx context.Context, p *purchasing.Purchasing) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PurchasingRepository) GetByID(ctx context.Context, id uint64) (*purchasing.Purchasing, error) {
	var out purchasing.Purchasing
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *PurchasingRepository) GetByPurchasingID(ctx context.Context, purchasingID string) (*purchasing.Purchasing, error) {
	var out purchasing.Purchasing
	res := r.db.WithContext(ctx).Where("purchasing_id = ?", purchasingID).First(&out)
	return &out, res.Error
}

func (r *PurchasingRepository) SetStatus(ctx context.Context, id uint64, col purchasing.Column, s routing.Status) error {
	if !col.Valid() {
		return fmt.Errorf("unknown purchasing column %q", col)
	}
	res := r.db.WithContext(ctx).
		Model(&purchasing.Purchasing{}).
		Where("id = ?", id).
		Update(string(col), s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return purchasing.ErrNotFound
	}
	return nil
}
