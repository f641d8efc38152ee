package purchasing

import (
	"context"
	"errors"
	"time"

	"procurement-backend/internal/domain/routing"
)

var ErrNotFound = errors.New("purchasing not found")

// Column names the final-status column a module family reports into.
type Column string

const (
	ColumnRequisition  Column = "requisition_status"
	ColumnCanvass      Column = "canvass_status"
	ColumnRequest      Column = "request_status"
	ColumnOrder        Column = "order_status"
	ColumnRFP          Column = "rfp_status"
	ColumnCheckVoucher Column = "check_voucher_status"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnRequisition, ColumnCanvass, ColumnRequest, ColumnOrder, ColumnRFP, ColumnCheckVoucher:
		return true
	}
	return false
}

// Table: purchasings. One row per business transaction, shared by every
// document created for it. A nil status means the stage was never reached.
type Purchasing struct {
	ID                 uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PurchasingID       string          `gorm:"column:purchasing_id;type:char(32);not null;uniqueIndex" json:"purchasing_id"`
	CreatedBy          string          `gorm:"column:created_by;size:64;not null" json:"created_by"`
	RequisitionStatus  *routing.Status `gorm:"column:requisition_status" json:"requisition_status"`
	CanvassStatus      *routing.Status `gorm:"column:canvass_status" json:"canvass_status"`
	RequestStatus      *routing.Status `gorm:"column:request_status" json:"request_status"`
	OrderStatus        *routing.Status `gorm:"column:order_status" json:"order_status"`
	RFPStatus          *routing.Status `gorm:"column:rfp_status" json:"rfp_status"`
	CheckVoucherStatus *routing.Status `gorm:"column:check_voucher_status" json:"check_voucher_status"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Purchasing) TableName() string { return "purchasings" }

type Repository interface {
	Create(ctx context.Context, p *Purchasing) error
	GetByID(ctx context.Context, id uint64) (*Purchasing, error)
	GetByPurchasingID(ctx context.Context, purchasingID string) (*Purchasing, error)
	SetStatus(ctx context.Context, id uint64, col Column, s routing.Status) error
}
