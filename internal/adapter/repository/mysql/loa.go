package mysql

import (
	"context"

	"gorm.io/gorm"

	"procurement-backend/internal/domain/loa"
)

type ChainConfigRepository struct{ db *gorm.DB }

func NewChainConfigRepository(db *gorm.DB) *ChainConfigRepository {
	return &ChainConfigRepository{db: db}
}

func (r *ChainConfigRepository) Create(ctx context.Context, c *loa.ChainConfig) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ChainConfigRepository) Deactivate(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Model(&loa.ChainConfig{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loa.ErrBandNotFound
	}
	return nil
}

func (r *ChainConfigRepository) ListActive(ctx context.Context, subModuleID uint64, divisionID *uint64) ([]loa.ChainConfig, error) {
	q := r.db.WithContext(ctx).Where("sub_module_id = ? AND active = ?", subModuleID, true)
	if divisionID == nil {
		q = q.Where("division_id IS NULL")
	} else {
		q = q.Where("division_id = ?", *divisionID)
	}
	var out []loa.ChainConfig
	res := q.Order("level ASC, min_amount ASC, id ASC").Find(&out)
	return out, res.Error
}
