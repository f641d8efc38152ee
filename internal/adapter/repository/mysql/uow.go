package mysql

import (
	"context"

	"gorm.io/gorm"

	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Repos returns repositories bound to db (a plain handle or a tx).
func Repos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Documents:   &DocumentRepository{db: db},
		Chains:      &ChainConfigRepository{db: db},
		Purchasings: &PurchasingRepository{db: db},
		Counters:    &CounterRepository{db: db},
		Budgets:     &BudgetRepository{db: db},
		Reasons:     &ReasonRepository{db: db},
		History:     &HistoryRepository{db: db},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos(tx))
	})
}

func (u *GormUoW) WithinDocumentTx(ctx context.Context, referenceNo string, fn func(r uow.Repos, d *document.Document) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repos(tx)
		// lock the document row up-front to prevent races
		d, err := r.Documents.GetByReferenceNoForUpdate(ctx, referenceNo)
		if err != nil {
			return err
		}
		return fn(r, d)
	})
}
