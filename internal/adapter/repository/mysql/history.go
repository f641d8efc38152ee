package mysql

import (
	"context"

	"gorm.io/gorm"

	"procurement-backend/internal/domain/history"
)

type HistoryRepository struct{ db *gorm.DB }

func NewHistoryRepository(db *gorm.DB) *HistoryRepository { return &HistoryRepository{db: db} }

func (r *HistoryRepository) Append(ctx context.Context, a *history.Action) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *HistoryRepository) ListByDocument(ctx context.Context, documentID uint64) ([]history.Action, error) {
	var out []history.Action
	res := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("id ASC").Find(&out)
	return out, res.Error
}
