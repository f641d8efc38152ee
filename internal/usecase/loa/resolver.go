package loa

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"procurement-backend/internal/domain/loa"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/usecase/apperr"
)

type Resolver struct{ repo loa.Repository }

func NewResolver(r loa.Repository) *Resolver { return &Resolver{repo: r} }

// Resolve returns the chain of the single active band containing amount.
func (r *Resolver) Resolve(ctx context.Context, subModuleID uint64, divisionID *uint64, amount decimal.Decimal) (routing.Chain, error) {
	cfg, err := Match(ctx, r.repo, subModuleID, divisionID, amount)
	if err != nil {
		return routing.Chain{}, err
	}
	return cfg.Chain(), nil
}

// Match is Resolve against an explicit repository, so callers inside a
// transaction see the transaction's rows. Division rows are tried first and
// global rows only when none of them contains the amount.
func Match(ctx context.Context, repo loa.Repository, subModuleID uint64, divisionID *uint64, amount decimal.Decimal) (*loa.ChainConfig, error) {
	if amount.IsNegative() {
		return nil, apperr.Invalid("amount", "must not be negative")
	}
	scopes := []*uint64{nil}
	if divisionID != nil {
		scopes = []*uint64{divisionID, nil}
	}
	for _, scope := range scopes {
		rows, err := repo.ListActive(ctx, subModuleID, scope)
		if err != nil {
			return nil, fmt.Errorf("list loa configs: %w", err)
		}
		for i := range rows {
			if rows[i].Contains(amount) {
				return &rows[i], nil
			}
		}
	}
	return nil, loa.ErrConfigurationNotFound
}

// CreateConfig stores a new band after checking it against the active bands
// of the same sub-module and division.
func (r *Resolver) CreateConfig(ctx context.Context, cfg *loa.ChainConfig) error {
	if cfg.SubModuleID == 0 {
		return apperr.Invalid("sub_module_id", "is required")
	}
	if cfg.MinAmount.IsNegative() {
		return apperr.Invalid("min_amount", "must not be negative")
	}
	if cfg.MaxAmount != nil && cfg.MaxAmount.LessThan(cfg.MinAmount) {
		return apperr.Invalid("max_amount", "must be greater than or equal to min_amount")
	}
	if err := cfg.Chain().Validate(); err != nil {
		return apperr.Invalid("approver1_id", "is required")
	}
	if cfg.Level < 0 {
		return apperr.Invalid("level", "must be at least 1")
	}
	existing, err := r.repo.ListActive(ctx, cfg.SubModuleID, cfg.DivisionID)
	if err != nil {
		return fmt.Errorf("list loa configs: %w", err)
	}
	for i := range existing {
		if existing[i].Overlaps(cfg) {
			return apperr.Invalid("min_amount", fmt.Sprintf("range overlaps level %d", existing[i].Level))
		}
	}
	if cfg.Level == 0 {
		cfg.Level = nextLevel(existing, cfg.MinAmount)
	}
	if err := checkLevelOrder(existing, cfg); err != nil {
		return err
	}
	cfg.Active = true
	return r.repo.Create(ctx, cfg)
}

// DeactivateConfig retires a band. Documents already routed keep their chain.
func (r *Resolver) DeactivateConfig(ctx context.Context, id uint64) error {
	if id == 0 {
		return apperr.Invalid("id", "is required")
	}
	return r.repo.Deactivate(ctx, id)
}

// nextLevel is one above the highest band starting below from, or 1.
func nextLevel(existing []loa.ChainConfig, from decimal.Decimal) int {
	level := 1
	for i := range existing {
		if existing[i].MinAmount.LessThan(from) && existing[i].Level >= level {
			level = existing[i].Level + 1
		}
	}
	return level
}

// checkLevelOrder keeps levels non-decreasing with amount within one scope.
func checkLevelOrder(existing []loa.ChainConfig, cfg *loa.ChainConfig) error {
	for i := range existing {
		e := &existing[i]
		if e.MinAmount.LessThan(cfg.MinAmount) && e.Level > cfg.Level {
			return apperr.Invalid("level", fmt.Sprintf("must be at least %d, the level of the band below", e.Level))
		}
		if e.MinAmount.GreaterThan(cfg.MinAmount) && e.Level < cfg.Level {
			return apperr.Invalid("level", fmt.Sprintf("must be at most %d, the level of the band above", e.Level))
		}
	}
	return nil
}
