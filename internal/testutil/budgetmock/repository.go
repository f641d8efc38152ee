package budgetmock

import (
	"context"

	"github.com/shopspring/decimal"

	domain "procurement-backend/internal/domain/budget"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies budget.Repository.
// Unset sums return zero.
type Repo struct {
	CreateFn      func(ctx context.Context, b *domain.Budget) error
	ApprovedForFn func(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error)
	AvailedForFn  func(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error)
	AvailFn       func(ctx context.Context, a *domain.Availment) error
}

func (m *Repo) Create(ctx context.Context, b *domain.Budget) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) ApprovedFor(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error) {
	if m.ApprovedForFn != nil {
		return m.ApprovedForFn(ctx, coaID, divisionID, year, month)
	}
	return decimal.Zero, nil
}

func (m *Repo) AvailedFor(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error) {
	if m.AvailedForFn != nil {
		return m.AvailedForFn(ctx, coaID, divisionID, year, month)
	}
	return decimal.Zero, nil
}

func (m *Repo) Avail(ctx context.Context, a *domain.Availment) error {
	if m.AvailFn != nil {
		return m.AvailFn(ctx, a)
	}
	return nil
}
