package mysql

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"procurement-backend/internal/domain/budget"
)

type BudgetRepository struct{ db *gorm.DB }

func NewBudgetRepository(db *gorm.DB) *BudgetRepository { return &BudgetRepository{db: db} }

func (r *BudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BudgetRepository) ApprovedFor(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error) {
	col, ok := budget.MonthColumn(month)
	if !ok {
		return decimal.Zero, fmt.Errorf("month %d out of range", month)
	}
	q := r.db.WithContext(ctx).
		Model(&budget.Budget{}).
		Select("COALESCE(SUM("+col+"), 0)").
		Where("chart_of_account_id = ? AND year = ?", coaID, year)
	if divisionID != nil {
		q = q.Where("division_id = ?", *divisionID)
	}
	return sumRow(q)
}

func (r *BudgetRepository) AvailedFor(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).
		Model(&budget.Availment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("chart_of_account_id = ? AND year = ? AND month = ?", coaID, year, month)
	if divisionID != nil {
		q = q.Where("division_id = ?", *divisionID)
	}
	return sumRow(q)
}

func (r *BudgetRepository) Avail(ctx context.Context, a *budget.Availment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func sumRow(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
