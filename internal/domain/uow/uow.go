package uow

import (
	"context"

	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/history"
	"procurement-backend/internal/domain/loa"
	"procurement-backend/internal/domain/purchasing"
	"procurement-backend/internal/domain/reason"
	"procurement-backend/internal/domain/refcode"
)

// Repos are bound to one transaction.
type Repos struct {
	Documents   document.Repository
	Chains      loa.Repository
	Purchasings purchasing.Repository
	Counters    refcode.Sequencer
	Budgets     budget.Repository
	Reasons     reason.Repository
	History     history.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the document first, then pass it in
	WithinDocumentTx(ctx context.Context, referenceNo string, fn func(r Repos, d *document.Document) error) error
}
