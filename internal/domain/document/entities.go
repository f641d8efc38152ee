package document

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"procurement-backend/internal/domain/routing"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrAlreadyFinalized = routing.ErrAlreadyFinalized
	ErrNotSubmitted     = errors.New("document is still a draft")
	ErrNotDraft         = errors.New("document is not a draft")
)

type Priority int8

const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

// Table: documents. Every module shares this row shape; Type tells them apart.
type Document struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ReferenceNo  string `gorm:"column:reference_no;size:40;not null;uniqueIndex:ux_documents_reference_no" json:"reference_no"`
	Type         Type   `gorm:"column:type;size:32;not null;index:idx_documents_type" json:"type"`
	PurchasingID uint64 `gorm:"column:purchasing_id;not null;index" json:"-"`
	// Set on documents created by an approval cascade; unique so a parent
	// spawns at most one child.
	ParentID  *uint64 `gorm:"column:parent_id;uniqueIndex:ux_documents_parent_id" json:"-"`
	CreatedBy string  `gorm:"column:created_by;size:64;not null;index" json:"created_by"`

	Priority         Priority        `gorm:"column:priority;not null;default:2" json:"priority"`
	DivisionID       *uint64         `gorm:"column:division_id" json:"division_id,omitempty"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	ChartOfAccountID *uint64         `gorm:"column:chart_of_account_id" json:"chart_of_account_id,omitempty"`
	BudgetYear       int             `gorm:"column:budget_year" json:"budget_year,omitempty"`
	BudgetMonth      int             `gorm:"column:budget_month" json:"budget_month,omitempty"`

	Reviewer1ID *string `gorm:"column:reviewer1_id;size:64" json:"reviewer1_id,omitempty"`
	Reviewer2ID *string `gorm:"column:reviewer2_id;size:64" json:"reviewer2_id,omitempty"`
	Approver1ID *string `gorm:"column:approver1_id;size:64;not null" json:"approver1_id"`
	Approver2ID *string `gorm:"column:approver2_id;size:64" json:"approver2_id,omitempty"`
	Approver3ID *string `gorm:"column:approver3_id;size:64" json:"approver3_id,omitempty"`

	Reviewer1Status routing.Status `gorm:"column:reviewer1_status;not null;default:0" json:"reviewer1_status"`
	Reviewer2Status routing.Status `gorm:"column:reviewer2_status;not null;default:0" json:"reviewer2_status"`
	Approver1Status routing.Status `gorm:"column:approver1_status;not null;default:0" json:"approver1_status"`
	Approver2Status routing.Status `gorm:"column:approver2_status;not null;default:0" json:"approver2_status"`
	Approver3Status routing.Status `gorm:"column:approver3_status;not null;default:0" json:"approver3_status"`

	FinalStatus      routing.Status     `gorm:"column:final_status;not null;default:0;index:idx_documents_next" json:"final_status"`
	NextAction       routing.NextAction `gorm:"column:next_action;size:16;not null" json:"next_action"`
	NextActionUserID *string            `gorm:"column:next_action_user_id;size:64;index:idx_documents_next" json:"next_action_user_id"`

	IsDraft         bool           `gorm:"column:is_draft;not null;default:false" json:"is_draft"`
	DeclineReasonID *uint64        `gorm:"column:decline_reason_id" json:"decline_reason_id,omitempty"`
	Remarks         string         `gorm:"column:remarks;type:text" json:"remarks,omitempty"`
	Payload         datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) Chain() routing.Chain {
	return routing.Chain{
		Reviewer1ID: d.Reviewer1ID,
		Reviewer2ID: d.Reviewer2ID,
		Approver1ID: d.Approver1ID,
		Approver2ID: d.Approver2ID,
		Approver3ID: d.Approver3ID,
	}
}

func (d *Document) SetChain(c routing.Chain) {
	d.Reviewer1ID = c.Reviewer1ID
	d.Reviewer2ID = c.Reviewer2ID
	d.Approver1ID = c.Approver1ID
	d.Approver2ID = c.Approver2ID
	d.Approver3ID = c.Approver3ID
}

func (d *Document) Statuses() [routing.SlotCount]routing.Status {
	return [routing.SlotCount]routing.Status{
		d.Reviewer1Status, d.Reviewer2Status, d.Approver1Status, d.Approver2Status, d.Approver3Status,
	}
}

func (d *Document) State() routing.State {
	return routing.State{Chain: d.Chain(), Statuses: d.Statuses()}
}

// Apply copies a routing outcome onto the row.
func (d *Document) Apply(out routing.Outcome) {
	d.Reviewer1Status = out.Statuses[routing.SlotReviewer1]
	d.Reviewer2Status = out.Statuses[routing.SlotReviewer2]
	d.Approver1Status = out.Statuses[routing.SlotApprover1]
	d.Approver2Status = out.Statuses[routing.SlotApprover2]
	d.Approver3Status = out.Statuses[routing.SlotApprover3]
	d.FinalStatus = out.Final
	d.NextAction = out.NextAction
	d.NextActionUserID = out.NextActionUserID
}

// Route resets the document to the start of its chain.
func (d *Document) Route(p routing.Policy) {
	d.Reviewer1Status, d.Reviewer2Status = routing.StatusPending, routing.StatusPending
	d.Approver1Status, d.Approver2Status, d.Approver3Status = routing.StatusPending, routing.StatusPending, routing.StatusPending
	d.FinalStatus = routing.StatusPending
	if d.IsDraft {
		d.NextAction, d.NextActionUserID = routing.NextActionNone, nil
		return
	}
	d.NextAction, d.NextActionUserID = d.State().Pending(p)
}

// Finalized reports whether the document accepts no more decisions.
func (d *Document) Finalized() bool { return d.FinalStatus != routing.StatusPending }
