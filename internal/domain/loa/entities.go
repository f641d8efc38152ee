package loa

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"procurement-backend/internal/domain/routing"
)

var (
	ErrConfigurationNotFound = errors.New("no approval chain configured for amount")
	ErrBandNotFound          = errors.New("no active approval band with this id")
)

// Table: loa_configs. One limit-of-authority band for a sub-module, optionally
// scoped to a division. MaxAmount nil means unbounded.
type ChainConfig struct {
	ID          uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SubModuleID uint64           `gorm:"column:sub_module_id;not null;index:idx_loa_scope" json:"sub_module_id"`
	DivisionID  *uint64          `gorm:"column:division_id;index:idx_loa_scope" json:"division_id,omitempty"`
	Level       int              `gorm:"column:level;not null" json:"level"`
	MinAmount   decimal.Decimal  `gorm:"column:min_amount;type:decimal(20,2);not null" json:"min_amount"`
	MaxAmount   *decimal.Decimal `gorm:"column:max_amount;type:decimal(20,2)" json:"max_amount,omitempty"`
	Reviewer1ID *string          `gorm:"column:reviewer1_id;size:64" json:"reviewer1_id,omitempty"`
	Reviewer2ID *string          `gorm:"column:reviewer2_id;size:64" json:"reviewer2_id,omitempty"`
	Approver1ID *string          `gorm:"column:approver1_id;size:64;not null" json:"approver1_id"`
	Approver2ID *string          `gorm:"column:approver2_id;size:64" json:"approver2_id,omitempty"`
	Approver3ID *string          `gorm:"column:approver3_id;size:64" json:"approver3_id,omitempty"`
	Active      bool             `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ChainConfig) TableName() string { return "loa_configs" }

func (c *ChainConfig) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(c.MinAmount) {
		return false
	}
	return c.MaxAmount == nil || amount.LessThanOrEqual(*c.MaxAmount)
}

// Overlaps reports whether the two inclusive ranges share any amount.
func (c *ChainConfig) Overlaps(o *ChainConfig) bool {
	if c.MaxAmount != nil && c.MaxAmount.LessThan(o.MinAmount) {
		return false
	}
	if o.MaxAmount != nil && o.MaxAmount.LessThan(c.MinAmount) {
		return false
	}
	return true
}

func (c *ChainConfig) Chain() routing.Chain {
	return routing.Chain{
		Reviewer1ID: c.Reviewer1ID,
		Reviewer2ID: c.Reviewer2ID,
		Approver1ID: c.Approver1ID,
		Approver2ID: c.Approver2ID,
		Approver3ID: c.Approver3ID,
	}
}

type Repository interface {
	Create(ctx context.Context, c *ChainConfig) error
	// ListActive returns active bands for exactly this scope (nil division =
	// global rows only), ordered by level then min amount.
	ListActive(ctx context.Context, subModuleID uint64, divisionID *uint64) ([]ChainConfig, error)
	// Deactivate retires an active band; ErrBandNotFound if there is none.
	Deactivate(ctx context.Context, id uint64) error
}
