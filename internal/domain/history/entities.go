package history

import (
	"context"
	"time"

	"procurement-backend/internal/domain/routing"
)

type Kind string

const (
	KindCreated   Kind = "created"
	KindSubmitted Kind = "submitted"
	KindApproved  Kind = "approved"
	KindDeclined  Kind = "declined"
	KindCascaded  Kind = "cascaded"
)

// Table: document_actions. Append-only trail of what happened to a document.
type Action struct {
	ID         uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	DocumentID uint64          `gorm:"column:document_id;not null;index" json:"-"`
	ActorID    string          `gorm:"column:actor_id;size:64;not null" json:"actor_id"`
	Kind       Kind            `gorm:"column:kind;size:16;not null" json:"kind"`
	Slot       string          `gorm:"column:slot;size:16" json:"slot,omitempty"`
	Status     *routing.Status `gorm:"column:status" json:"status,omitempty"`
	ReasonID   *uint64         `gorm:"column:reason_id" json:"reason_id,omitempty"`
	Remarks    string          `gorm:"column:remarks;type:text" json:"remarks,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Action) TableName() string { return "document_actions" }

type Repository interface {
	Append(ctx context.Context, a *Action) error
	ListByDocument(ctx context.Context, documentID uint64) ([]Action, error)
}
