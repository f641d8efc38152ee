package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/routing"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) GetByReferenceNo(ctx context.Context, referenceNo string) (*document.Document, error) {
	var out document.Document
	res := r.db.WithContext(ctx).Where("reference_no = ?", referenceNo).First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) GetByReferenceNoForUpdate(ctx context.Context, referenceNo string) (*document.Document, error) {
	var out document.Document
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference_no = ?", referenceNo).
		First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) GetByParentID(ctx context.Context, parentID uint64) (*document.Document, error) {
	var out document.Document
	res := r.db.WithContext(ctx).Where("parent_id = ?", parentID).First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) ApplyTransition(ctx context.Context, d *document.Document, slot int) error {
	col := routing.SlotName(slot)
	if col == "" {
		return routing.ErrNotCurrentActor
	}
	res := r.db.WithContext(ctx).
		Model(&document.Document{}).
		Where("id = ? AND final_status = ? AND "+col+"_status = ?", d.ID, routing.StatusPending, routing.StatusPending).
		Updates(map[string]any{
			"reviewer1_status":    d.Reviewer1Status,
			"reviewer2_status":    d.Reviewer2Status,
			"approver1_status":    d.Approver1Status,
			"approver2_status":    d.Approver2Status,
			"approver3_status":    d.Approver3Status,
			"final_status":        d.FinalStatus,
			"next_action":         d.NextAction,
			"next_action_user_id": d.NextActionUserID,
			"decline_reason_id":   d.DeclineReasonID,
			"remarks":             d.Remarks,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return routing.ErrConcurrentModification
	}
	return nil
}

func (r *DocumentRepository) Submit(ctx context.Context, d *document.Document) error {
	res := r.db.WithContext(ctx).
		Model(&document.Document{}).
		Where("id = ? AND is_draft = ?", d.ID, true).
		Updates(map[string]any{
			"is_draft":            false,
			"next_action":         d.NextAction,
			"next_action_user_id": d.NextActionUserID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return document.ErrNotDraft
	}
	return nil
}

func (r *DocumentRepository) ListAwaiting(ctx context.Context, userID string) ([]document.Document, error) {
	var out []document.Document
	res := r.db.WithContext(ctx).
		Where("next_action_user_id = ? AND final_status = ? AND is_draft = ?", userID, routing.StatusPending, false).
		Order("priority DESC, created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}
