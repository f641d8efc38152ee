package workflow

import (
	"errors"

	"gorm.io/gorm"

	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/loa"
	"procurement-backend/internal/domain/purchasing"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/usecase/apperr"
)

// notFound maps gorm's miss onto the domain sentinel and leaves other errors alone.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// ErrorKind is the label used for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case apperr.IsValidation(err):
		return "validation"
	case errors.Is(err, document.ErrNotFound), errors.Is(err, purchasing.ErrNotFound):
		return "not_found"
	case errors.Is(err, loa.ErrConfigurationNotFound):
		return "configuration_not_found"
	case errors.Is(err, routing.ErrAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, routing.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, routing.ErrNotCurrentActor):
		return "not_current_actor"
	case errors.Is(err, budget.ErrInsufficientBudget):
		return "insufficient_budget"
	case errors.Is(err, document.ErrNotSubmitted):
		return "not_submitted"
	case errors.Is(err, document.ErrNotDraft):
		return "not_draft"
	}
	return "internal"
}
