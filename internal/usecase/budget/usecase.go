package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/usecase/apperr"
)

type Query struct {
	ChartOfAccountID uint64
	DivisionID       *uint64 // nil sums every division
	Year             int
	Month            int
	Pending          decimal.Decimal // amount about to be committed
}

type Status struct {
	ApprovedBudget decimal.Decimal `json:"approved_budget"`
	TotalAvailed   decimal.Decimal `json:"total_availed"`
	Pending        decimal.Decimal `json:"pending"`
	Remaining      decimal.Decimal `json:"remaining"`
}

// Sufficient reports whether committing Pending keeps the month non-negative.
func (s Status) Sufficient() bool { return !s.Remaining.IsNegative() }

type Usecase struct{ repo budget.Repository }

func NewUsecase(r budget.Repository) *Usecase { return &Usecase{repo: r} }

func (u *Usecase) Status(ctx context.Context, q Query) (Status, error) {
	return Check(ctx, u.repo, q)
}

// Check computes remaining = approved - availed - pending against repo.
func Check(ctx context.Context, repo budget.Repository, q Query) (Status, error) {
	if q.ChartOfAccountID == 0 {
		return Status{}, apperr.Invalid("chart_of_account_id", "is required")
	}
	if q.Month < 1 || q.Month > 12 {
		return Status{}, apperr.Invalid("month", "must be between 1 and 12")
	}
	if q.Year < 1 {
		return Status{}, apperr.Invalid("year", "is required")
	}
	if q.Pending.IsNegative() {
		return Status{}, apperr.Invalid("pending", "must not be negative")
	}
	approved, err := repo.ApprovedFor(ctx, q.ChartOfAccountID, q.DivisionID, q.Year, q.Month)
	if err != nil {
		return Status{}, fmt.Errorf("approved budget: %w", err)
	}
	availed, err := repo.AvailedFor(ctx, q.ChartOfAccountID, q.DivisionID, q.Year, q.Month)
	if err != nil {
		return Status{}, fmt.Errorf("availed budget: %w", err)
	}
	return Status{
		ApprovedBudget: approved,
		TotalAvailed:   availed,
		Pending:        q.Pending,
		Remaining:      approved.Sub(availed).Sub(q.Pending),
	}, nil
}
