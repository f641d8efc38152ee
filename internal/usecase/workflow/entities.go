package workflow

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/usecase/apperr"
)

type ValidationError = apperr.ValidationError

type CreateInput struct {
	Type             document.Type
	CreatedBy        string
	DivisionID       *uint64
	Amount           decimal.Decimal
	Priority         document.Priority // zero means normal
	ChartOfAccountID *uint64
	BudgetYear       int    // zero means the creation year
	BudgetMonth      int    // zero means the creation month
	PurchasingID     string // join an existing transaction; empty starts a new one
	Draft            bool
	Remarks          string
	Payload          json.RawMessage
}

type DecideInput struct {
	ReferenceNo string
	ActorID     string
	Decision    routing.Decision
	ReasonID    *uint64
	Amount      *decimal.Decimal // when set, must match the stored amount
	Remarks     string
}

type DocumentDTO struct {
	*document.Document
	PurchasingID string                  `json:"purchasing_id"`
	Viewer       *routing.Classification `json:"viewer,omitempty"`
	CanAct       bool                    `json:"can_act"`
}

type DownstreamRef struct {
	ReferenceNo      string        `json:"reference_no"`
	Type             document.Type `json:"type"`
	NextActionUserID *string       `json:"next_action_user_id"`
	Created          bool          `json:"created"`
}

type DecisionResult struct {
	ReferenceNo      string             `json:"reference_no"`
	Slot             string             `json:"slot"`
	Status           routing.Status     `json:"status"`
	FinalStatus      routing.Status     `json:"final_status"`
	NextAction       routing.NextAction `json:"next_action"`
	NextActionUserID *string            `json:"next_action_user_id"`
	Downstream       *DownstreamRef     `json:"downstream,omitempty"`
}

const (
	EventCreated   = "document.created"
	EventSubmitted = "document.submitted"
	EventDecided   = "document.decided"
	EventApproved  = "document.approved"
	EventDeclined  = "document.declined"
	EventCascaded  = "document.cascaded"
)

// Event is what notifiers receive after a transaction commits.
type Event struct {
	Name             string             `json:"event"`
	ReferenceNo      string             `json:"reference_no"`
	Type             document.Type      `json:"type"`
	ActorID          string             `json:"actor_id"`
	FinalStatus      routing.Status     `json:"final_status"`
	NextAction       routing.NextAction `json:"next_action"`
	NextActionUserID *string            `json:"next_action_user_id,omitempty"`
	ParentReference  string             `json:"parent_reference_no,omitempty"`
	OccurredAt       time.Time          `json:"occurred_at"`
}
