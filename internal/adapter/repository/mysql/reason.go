package mysql

import (
	"context"

	"gorm.io/gorm"

	"procurement-backend/internal/domain/reason"
)

type ReasonRepository struct{ db *gorm.DB }

func NewReasonRepository(db *gorm.DB) *ReasonRepository { return &ReasonRepository{db: db} }

func (r *ReasonRepository) Create(ctx context.Context, rr *reason.RejectionReason) error {
	return r.db.WithContext(ctx).Create(rr).Error
}

func (r *ReasonRepository) GetActive(ctx context.Context, id uint64) (*reason.RejectionReason, error) {
	var out reason.RejectionReason
	res := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&out)
	return &out, res.Error
}
