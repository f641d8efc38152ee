package reasonmock

import (
	"context"

	domain "procurement-backend/internal/domain/reason"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies reason.Repository.
type Repo struct {
	CreateFn    func(ctx context.Context, r *domain.RejectionReason) error
	GetActiveFn func(ctx context.Context, id uint64) (*domain.RejectionReason, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.RejectionReason) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetActive(ctx context.Context, id uint64) (*domain.RejectionReason, error) {
	if m.GetActiveFn != nil {
		return m.GetActiveFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
