package budget

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInsufficientBudget = errors.New("insufficient budget for chart of account")

// Table: budgets. Approved amounts per division, year and chart of accounts,
// one column per month.
type Budget struct {
	ID               uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	DivisionID       uint64          `gorm:"column:division_id;not null;uniqueIndex:ux_budgets_scope,priority:1" json:"division_id"`
	Year             int             `gorm:"column:year;not null;uniqueIndex:ux_budgets_scope,priority:2" json:"year"`
	ChartOfAccountID uint64          `gorm:"column:chart_of_account_id;not null;uniqueIndex:ux_budgets_scope,priority:3" json:"chart_of_account_id"`
	Jan              decimal.Decimal `gorm:"column:month_01;type:decimal(20,2);not null;default:0" json:"jan"`
	Feb              decimal.Decimal `gorm:"column:month_02;type:decimal(20,2);not null;default:0" json:"feb"`
	Mar              decimal.Decimal `gorm:"column:month_03;type:decimal(20,2);not null;default:0" json:"mar"`
	Apr              decimal.Decimal `gorm:"column:month_04;type:decimal(20,2);not null;default:0" json:"apr"`
	May              decimal.Decimal `gorm:"column:month_05;type:decimal(20,2);not null;default:0" json:"may"`
	Jun              decimal.Decimal `gorm:"column:month_06;type:decimal(20,2);not null;default:0" json:"jun"`
	Jul              decimal.Decimal `gorm:"column:month_07;type:decimal(20,2);not null;default:0" json:"jul"`
	Aug              decimal.Decimal `gorm:"column:month_08;type:decimal(20,2);not null;default:0" json:"aug"`
	Sep              decimal.Decimal `gorm:"column:month_09;type:decimal(20,2);not null;default:0" json:"sep"`
	Oct              decimal.Decimal `gorm:"column:month_10;type:decimal(20,2);not null;default:0" json:"oct"`
	Nov              decimal.Decimal `gorm:"column:month_11;type:decimal(20,2);not null;default:0" json:"nov"`
	Dec              decimal.Decimal `gorm:"column:month_12;type:decimal(20,2);not null;default:0" json:"dec"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Budget) TableName() string { return "budgets" }

var monthColumns = [12]string{
	"month_01", "month_02", "month_03", "month_04", "month_05", "month_06",
	"month_07", "month_08", "month_09", "month_10", "month_11", "month_12",
}

// MonthColumn maps 1..12 to the budget column; ok is false outside that range.
func MonthColumn(month int) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	return monthColumns[month-1], true
}

// Table: budget_availments. Money already committed against a budget month.
type Availment struct {
	ID               uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ChartOfAccountID uint64          `gorm:"column:chart_of_account_id;not null;index:idx_availments_period,priority:1" json:"chart_of_account_id"`
	Year             int             `gorm:"column:year;not null;index:idx_availments_period,priority:2" json:"year"`
	Month            int             `gorm:"column:month;not null;index:idx_availments_period,priority:3" json:"month"`
	DivisionID       *uint64         `gorm:"column:division_id" json:"division_id,omitempty"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	DocumentID       *uint64         `gorm:"column:document_id;uniqueIndex" json:"-"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Availment) TableName() string { return "budget_availments" }

type Repository interface {
	Create(ctx context.Context, b *Budget) error
	// ApprovedFor sums the month column across matching budget rows; a nil
	// division sums every division.
	ApprovedFor(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error)
	AvailedFor(ctx context.Context, coaID uint64, divisionID *uint64, year, month int) (decimal.Decimal, error)
	Avail(ctx context.Context, a *Availment) error
}
