package reason

import (
	"context"
	"strings"
	"unicode/utf8"

	"procurement-backend/internal/domain/reason"
	"procurement-backend/internal/usecase/apperr"
)

const maxLabelLen = 255

type Usecase struct{ repo reason.Repository }

func NewUsecase(r reason.Repository) *Usecase { return &Usecase{repo: r} }

// Create adds an active rejection reason that decliners can cite.
func (u *Usecase) Create(ctx context.Context, label string) (*reason.RejectionReason, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperr.Invalid("label", "is required")
	}
	if utf8.RuneCountInString(label) > maxLabelLen {
		return nil, apperr.Invalid("label", "must be at most 255 characters")
	}
	r := &reason.RejectionReason{Label: label, Active: true}
	if err := u.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
