package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/history"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/domain/uow"
	"procurement-backend/internal/usecase/apperr"
	budgetUsecase "procurement-backend/internal/usecase/budget"
	loaUsecase "procurement-backend/internal/usecase/loa"
)

func validateDecide(in DecideInput) error {
	if in.ReferenceNo == "" {
		return apperr.Invalid("reference_no", "is required")
	}
	if in.ActorID == "" {
		return apperr.Invalid("actor", "is required")
	}
	if !in.Decision.Valid() {
		return apperr.Invalid("decision", "must be approve or decline")
	}
	if in.Decision == routing.DecisionDecline && in.ReasonID == nil {
		return apperr.Invalid("reason_id", "is required when declining")
	}
	return nil
}

// Decide applies one reviewer/approver decision. The status write, the
// purchasing column, the audit row, the budget availment and the downstream
// document commit together or not at all.
func (u *Usecase) Decide(ctx context.Context, in DecideInput) (*DecisionResult, error) {
	if err := validateDecide(in); err != nil {
		return nil, u.fail("decide", err)
	}

	var (
		doc   *document.Document
		out   routing.Outcome
		child *document.Document
		spawn bool
	)
	err := u.uow.WithinDocumentTx(ctx, in.ReferenceNo, func(r uow.Repos, d *document.Document) error {
		if d.IsDraft {
			return document.ErrNotSubmitted
		}
		def, ok := document.Lookup(d.Type)
		if !ok {
			return fmt.Errorf("document %s has unknown type %q", d.ReferenceNo, d.Type)
		}
		if in.Amount != nil && !in.Amount.Equal(d.Amount) {
			return apperr.Invalid("amount", "does not match the document amount")
		}
		if in.Decision == routing.DecisionDecline {
			if _, err := r.Reasons.GetActive(ctx, *in.ReasonID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Invalid("reason_id", "must reference an active rejection reason")
				}
				return err
			}
		}

		var err error
		out, err = routing.Apply(d.State(), in.ActorID, in.Decision, def.Policy)
		if err != nil {
			return err
		}
		if in.Decision == routing.DecisionApprove && !routing.IsReviewerSlot(out.Slot) {
			if err := u.checkBudget(ctx, r, def, d); err != nil {
				return err
			}
		}

		d.Apply(out)
		if in.Decision == routing.DecisionDecline {
			d.DeclineReasonID = in.ReasonID
		}
		if in.Remarks != "" {
			d.Remarks = in.Remarks
		}
		if err := r.Documents.ApplyTransition(ctx, d, out.Slot); err != nil {
			return err
		}
		if out.Final != routing.StatusPending {
			if err := r.Purchasings.SetStatus(ctx, d.PurchasingID, def.Column, out.Final); err != nil {
				return err
			}
		}
		status := out.Statuses[out.Slot]
		kind := history.KindApproved
		if in.Decision == routing.DecisionDecline {
			kind = history.KindDeclined
		}
		if err := r.History.Append(ctx, &history.Action{
			DocumentID: d.ID,
			ActorID:    in.ActorID,
			Kind:       kind,
			Slot:       routing.SlotName(out.Slot),
			Status:     &status,
			ReasonID:   in.ReasonID,
			Remarks:    in.Remarks,
		}); err != nil {
			return err
		}
		doc = d

		if out.Final != routing.StatusApproved {
			return nil
		}
		if err := u.availBudget(ctx, r, def, d); err != nil {
			return err
		}
		if def.Downstream == "" {
			return nil
		}
		child, spawn, err = u.cascade(ctx, r, d, in.ActorID)
		return err
	})
	if err != nil {
		return nil, u.fail("decide", notFound(err, document.ErrNotFound))
	}

	u.metrics.RecordDecision(string(doc.Type), string(in.Decision))
	res := &DecisionResult{
		ReferenceNo:      doc.ReferenceNo,
		Slot:             routing.SlotName(out.Slot),
		Status:           out.Statuses[out.Slot],
		FinalStatus:      out.Final,
		NextAction:       out.NextAction,
		NextActionUserID: out.NextActionUserID,
	}
	events := []Event{u.event(EventDecided, doc, in.ActorID)}
	switch out.Final {
	case routing.StatusApproved:
		events = append(events, u.event(EventApproved, doc, in.ActorID))
	case routing.StatusDeclined:
		events = append(events, u.event(EventDeclined, doc, in.ActorID))
	}
	if child != nil {
		res.Downstream = &DownstreamRef{
			ReferenceNo:      child.ReferenceNo,
			Type:             child.Type,
			NextActionUserID: child.NextActionUserID,
			Created:          spawn,
		}
		if spawn {
			u.metrics.RecordCascade(string(doc.Type), string(child.Type))
			u.metrics.RecordReferenceCode(mustPrefix(child.Type))
			e := u.event(EventCascaded, child, in.ActorID)
			e.ParentReference = doc.ReferenceNo
			events = append(events, e)
		}
	}

	u.log.WithFields(logrus.Fields{
		"reference_no": doc.ReferenceNo,
		"actor":        in.ActorID,
		"decision":     in.Decision,
		"slot":         res.Slot,
		"final_status": out.Final.String(),
	}).Info("document decided")
	u.emit(ctx, events...)
	return res, nil
}

func mustPrefix(t document.Type) string {
	def, _ := document.Lookup(t)
	return def.Prefix
}

func (u *Usecase) budgetTracked(def document.Definition, d *document.Document) bool {
	return def.BudgetGated && d.ChartOfAccountID != nil && d.BudgetMonth != 0
}

// checkBudget refuses an approver decision that would overdraw the month.
func (u *Usecase) checkBudget(ctx context.Context, r uow.Repos, def document.Definition, d *document.Document) error {
	if !u.enforceBudget || !u.budgetTracked(def, d) {
		return nil
	}
	st, err := budgetUsecase.Check(ctx, r.Budgets, budgetUsecase.Query{
		ChartOfAccountID: *d.ChartOfAccountID,
		DivisionID:       d.DivisionID,
		Year:             d.BudgetYear,
		Month:            d.BudgetMonth,
		Pending:          d.Amount,
	})
	if err != nil {
		return err
	}
	if !st.Sufficient() {
		return fmt.Errorf("%w: remaining %s after %s", budget.ErrInsufficientBudget, st.Remaining.StringFixed(2), d.Amount.StringFixed(2))
	}
	return nil
}

// availBudget books the approved amount against the month.
func (u *Usecase) availBudget(ctx context.Context, r uow.Repos, def document.Definition, d *document.Document) error {
	if !u.budgetTracked(def, d) {
		return nil
	}
	docID := d.ID
	return r.Budgets.Avail(ctx, &budget.Availment{
		ChartOfAccountID: *d.ChartOfAccountID,
		Year:             d.BudgetYear,
		Month:            d.BudgetMonth,
		DivisionID:       d.DivisionID,
		Amount:           d.Amount,
		DocumentID:       &docID,
	})
}

// cascade creates the downstream document for an approved parent, or returns
// the one an earlier attempt already created.
func (u *Usecase) cascade(ctx context.Context, r uow.Repos, parent *document.Document, actorID string) (*document.Document, bool, error) {
	existing, err := r.Documents.GetByParentID(ctx, parent.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, err
	}

	pdef, _ := document.Lookup(parent.Type)
	def, ok := document.Lookup(pdef.Downstream)
	if !ok {
		return nil, false, fmt.Errorf("unknown downstream type %q", pdef.Downstream)
	}
	cfg, err := loaUsecase.Match(ctx, r.Chains, def.SubModuleID, parent.DivisionID, parent.Amount)
	if err != nil {
		return nil, false, fmt.Errorf("cascade %s to %s: %w", parent.ReferenceNo, def.Type, err)
	}
	code, err := u.codes.Next(ctx, u.sequencerFor(r), def.Prefix, u.now())
	if err != nil {
		return nil, false, err
	}
	parentID := parent.ID
	child := &document.Document{
		ReferenceNo:      code,
		Type:             def.Type,
		PurchasingID:     parent.PurchasingID,
		ParentID:         &parentID,
		CreatedBy:        parent.CreatedBy,
		Priority:         parent.Priority,
		DivisionID:       parent.DivisionID,
		Amount:           parent.Amount,
		ChartOfAccountID: parent.ChartOfAccountID,
		BudgetYear:       parent.BudgetYear,
		BudgetMonth:      parent.BudgetMonth,
		Payload:          parent.Payload,
	}
	child.SetChain(cfg.Chain())
	child.Route(def.Policy)
	if err := r.Documents.Create(ctx, child); err != nil {
		return nil, false, err
	}
	if err := r.Purchasings.SetStatus(ctx, child.PurchasingID, def.Column, routing.StatusPending); err != nil {
		return nil, false, err
	}
	if err := r.History.Append(ctx, &history.Action{
		DocumentID: child.ID,
		ActorID:    actorID,
		Kind:       history.KindCascaded,
		Remarks:    "from " + parent.ReferenceNo,
	}); err != nil {
		return nil, false, err
	}
	return child, true, nil
}
