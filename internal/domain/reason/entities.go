package reason

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("rejection reason not found")

// Table: rejection_reasons
type RejectionReason struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Label  string `gorm:"column:label;size:255;not null" json:"label"`
	Active bool   `gorm:"column:active;not null;default:true" json:"active"`
}

func (RejectionReason) TableName() string { return "rejection_reasons" }

type Repository interface {
	Create(ctx context.Context, r *RejectionReason) error
	GetActive(ctx context.Context, id uint64) (*RejectionReason, error)
}
