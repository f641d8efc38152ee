package document

import "context"

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByReferenceNo(ctx context.Context, referenceNo string) (*Document, error)
	// Locks the row for the rest of the transaction.
	GetByReferenceNoForUpdate(ctx context.Context, referenceNo string) (*Document, error)
	GetByParentID(ctx context.Context, parentID uint64) (*Document, error)

	// ApplyTransition writes the routing columns of d, guarded on the decided
	// slot still being pending and the document still open. Returns
	// routing.ErrConcurrentModification when the guard matches no row.
	ApplyTransition(ctx context.Context, d *Document, slot int) error

	// Submit flips a draft to routed, guarded on is_draft.
	Submit(ctx context.Context, d *Document) error

	ListAwaiting(ctx context.Context, userID string) ([]Document, error)
}
