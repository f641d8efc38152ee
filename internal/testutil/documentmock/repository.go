package documentmock

import (
	"context"
	"errors"

	domain "procurement-backend/internal/domain/document"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("documentmock: method not implemented")

// Repo is a function-backed document.Repository; unset fields return errUnimplemented.
type Repo struct {
	CreateFn                    func(ctx context.Context, d *domain.Document) error
	GetByReferenceNoFn          func(ctx context.Context, referenceNo string) (*domain.Document, error)
	GetByReferenceNoForUpdateFn func(ctx context.Context, referenceNo string) (*domain.Document, error)
	GetByParentIDFn             func(ctx context.Context, parentID uint64) (*domain.Document, error)
	ApplyTransitionFn           func(ctx context.Context, d *domain.Document, slot int) error
	SubmitFn                    func(ctx context.Context, d *domain.Document) error
	ListAwaitingFn              func(ctx context.Context, userID string) ([]domain.Document, error)
}

func (m *Repo) Create(ctx context.Context, d *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return errUnimplemented
}

func (m *Repo) GetByReferenceNo(ctx context.Context, referenceNo string) (*domain.Document, error) {
	if m.GetByReferenceNoFn != nil {
		return m.GetByReferenceNoFn(ctx, referenceNo)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByReferenceNoForUpdate(ctx context.Context, referenceNo string) (*domain.Document, error) {
	if m.GetByReferenceNoForUpdateFn != nil {
		return m.GetByReferenceNoForUpdateFn(ctx, referenceNo)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByParentID(ctx context.Context, parentID uint64) (*domain.Document, error) {
	if m.GetByParentIDFn != nil {
		return m.GetByParentIDFn(ctx, parentID)
	}
	return nil, errUnimplemented
}

func (m *Repo) ApplyTransition(ctx context.Context, d *domain.Document, slot int) error {
	if m.ApplyTransitionFn != nil {
		return m.ApplyTransitionFn(ctx, d, slot)
	}
	return errUnimplemented
}

func (m *Repo) Submit(ctx context.Context, d *domain.Document) error {
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, d)
	}
	return errUnimplemented
}

func (m *Repo) ListAwaiting(ctx context.Context, userID string) ([]domain.Document, error) {
	if m.ListAwaitingFn != nil {
		return m.ListAwaitingFn(ctx, userID)
	}
	return nil, errUnimplemented
}
