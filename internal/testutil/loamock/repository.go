package loamock

import (
	"context"

	domain "procurement-backend/internal/domain/loa"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies loa.Repository.
type Repo struct {
	CreateFn     func(ctx context.Context, c *domain.ChainConfig) error
	ListActiveFn func(ctx context.Context, subModuleID uint64, divisionID *uint64) ([]domain.ChainConfig, error)
	DeactivateFn func(ctx context.Context, id uint64) error
}

func (m *Repo) Create(ctx context.Context, c *domain.ChainConfig) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) ListActive(ctx context.Context, subModuleID uint64, divisionID *uint64) ([]domain.ChainConfig, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx, subModuleID, divisionID)
	}
	return nil, nil
}

func (m *Repo) Deactivate(ctx context.Context, id uint64) error {
	if m.DeactivateFn != nil {
		return m.DeactivateFn(ctx, id)
	}
	return nil
}
