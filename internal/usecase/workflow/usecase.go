package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/history"
	"procurement-backend/internal/domain/purchasing"
	domainRefcode "procurement-backend/internal/domain/refcode"
	"procurement-backend/internal/domain/routing"
	"procurement-backend/internal/domain/uow"
	"procurement-backend/internal/usecase/apperr"
	loaUsecase "procurement-backend/internal/usecase/loa"
	"procurement-backend/internal/usecase/refcode"
	"procurement-backend/pkg/id"
)

// Notifier receives committed events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Recorder is the slice of the metrics registry the workflow reports into.
type Recorder interface {
	RecordDecision(docType, decision string)
	RecordCascade(from, to string)
	RecordReferenceCode(prefix string)
	RecordError(kind string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, string) {}
func (nopRecorder) RecordCascade(string, string)  {}
func (nopRecorder) RecordReferenceCode(string)    {}
func (nopRecorder) RecordError(string)            {}

type Usecase struct {
	uow   uow.UnitOfWork
	reads uow.Repos

	codes     *refcode.Generator
	sequencer domainRefcode.Sequencer // nil: the transaction's counter table
	notifier  Notifier
	metrics   Recorder
	log       logrus.FieldLogger
	now       func() time.Time

	enforceBudget bool
}

type Option func(*Usecase)

func WithNotifier(n Notifier) Option { return func(u *Usecase) { u.notifier = n } }
func WithMetrics(r Recorder) Option  { return func(u *Usecase) { u.metrics = r } }
func WithLogger(l logrus.FieldLogger) Option {
	return func(u *Usecase) { u.log = l }
}
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

// WithSequencer replaces the database counter, e.g. with the Redis one.
func WithSequencer(s domainRefcode.Sequencer) Option { return func(u *Usecase) { u.sequencer = s } }
func WithGenerator(g *refcode.Generator) Option      { return func(u *Usecase) { u.codes = g } }
func WithBudgetEnforcement(on bool) Option           { return func(u *Usecase) { u.enforceBudget = on } }

// NewUsecase: tx runs every mutation; reads serves the query endpoints.
func NewUsecase(tx uow.UnitOfWork, reads uow.Repos, opts ...Option) *Usecase {
	u := &Usecase{
		uow:           tx,
		reads:         reads,
		codes:         refcode.NewGenerator(time.UTC),
		notifier:      nopNotifier{},
		metrics:       nopRecorder{},
		log:           logrus.StandardLogger(),
		now:           func() time.Time { return time.Now().UTC() },
		enforceBudget: true,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) sequencerFor(r uow.Repos) domainRefcode.Sequencer {
	if u.sequencer != nil {
		return u.sequencer
	}
	return r.Counters
}

func (u *Usecase) fail(op string, err error) error {
	kind := ErrorKind(err)
	u.metrics.RecordError(kind)
	entry := u.log.WithFields(logrus.Fields{"op": op, "kind": kind})
	if kind == "internal" {
		entry.WithError(err).Error("workflow operation failed")
	} else {
		entry.WithError(err).Info("workflow operation rejected")
	}
	return err
}

func (u *Usecase) emit(ctx context.Context, events ...Event) {
	ctx = context.WithoutCancel(ctx)
	for _, e := range events {
		u.notifier.Notify(ctx, e)
	}
}

func validateCreate(in *CreateInput, now time.Time) (document.Definition, error) {
	def, ok := document.Lookup(in.Type)
	if !ok {
		return def, apperr.Invalid("type", "is not a known document type")
	}
	if in.CreatedBy == "" {
		return def, apperr.Invalid("created_by", "is required")
	}
	if in.Amount.IsNegative() {
		return def, apperr.Invalid("amount", "must not be negative")
	}
	// bands are stored to the cent; a finer amount could fall between two of them
	if !in.Amount.Equal(in.Amount.Truncate(2)) {
		return def, apperr.Invalid("amount", "must have at most 2 decimal places")
	}
	if in.Priority == 0 {
		in.Priority = document.PriorityNormal
	}
	if in.Priority < document.PriorityLow || in.Priority > document.PriorityUrgent {
		return def, apperr.Invalid("priority", "must be between 1 and 4")
	}
	if in.ChartOfAccountID != nil {
		if in.BudgetYear == 0 {
			in.BudgetYear = now.Year()
		}
		if in.BudgetMonth == 0 {
			in.BudgetMonth = int(now.Month())
		}
		if in.BudgetMonth < 1 || in.BudgetMonth > 12 {
			return def, apperr.Invalid("budget_month", "must be between 1 and 12")
		}
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return def, apperr.Invalid("payload", "must be valid JSON")
	}
	return def, nil
}

// Create resolves the chain, issues the reference code and inserts the
// document, all in one transaction. Nothing is written when no chain matches.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*DocumentDTO, error) {
	now := u.now()
	def, err := validateCreate(&in, now)
	if err != nil {
		return nil, u.fail("create", err)
	}

	var (
		doc      *document.Document
		purchase *purchasing.Purchasing
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		cfg, err := loaUsecase.Match(ctx, r.Chains, def.SubModuleID, in.DivisionID, in.Amount)
		if err != nil {
			return err
		}

		if in.PurchasingID != "" {
			p, err := r.Purchasings.GetByPurchasingID(ctx, in.PurchasingID)
			if err != nil {
				return notFound(err, purchasing.ErrNotFound)
			}
			purchase = p
		} else {
			purchase = &purchasing.Purchasing{PurchasingID: id.New(), CreatedBy: in.CreatedBy}
			if err := r.Purchasings.Create(ctx, purchase); err != nil {
				return err
			}
		}

		code, err := u.codes.Next(ctx, u.sequencerFor(r), def.Prefix, now)
		if err != nil {
			return err
		}

		doc = &document.Document{
			ReferenceNo:      code,
			Type:             def.Type,
			PurchasingID:     purchase.ID,
			CreatedBy:        in.CreatedBy,
			Priority:         in.Priority,
			DivisionID:       in.DivisionID,
			Amount:           in.Amount,
			ChartOfAccountID: in.ChartOfAccountID,
			BudgetYear:       in.BudgetYear,
			BudgetMonth:      in.BudgetMonth,
			IsDraft:          in.Draft,
			Remarks:          in.Remarks,
		}
		if len(in.Payload) > 0 {
			doc.Payload = datatypes.JSON(in.Payload)
		}
		doc.SetChain(cfg.Chain())
		doc.Route(def.Policy)
		if err := r.Documents.Create(ctx, doc); err != nil {
			return err
		}
		if err := r.Purchasings.SetStatus(ctx, purchase.ID, def.Column, routing.StatusPending); err != nil {
			return err
		}
		return r.History.Append(ctx, &history.Action{
			DocumentID: doc.ID,
			ActorID:    in.CreatedBy,
			Kind:       history.KindCreated,
			Remarks:    in.Remarks,
		})
	})
	if err != nil {
		return nil, u.fail("create", err)
	}

	u.metrics.RecordReferenceCode(def.Prefix)
	u.log.WithFields(logrus.Fields{
		"reference_no": doc.ReferenceNo,
		"type":         doc.Type,
		"actor":        in.CreatedBy,
		"draft":        doc.IsDraft,
	}).Info("document created")
	u.emit(ctx, u.event(EventCreated, doc, in.CreatedBy))

	return &DocumentDTO{Document: doc, PurchasingID: purchase.PurchasingID}, nil
}

// Submit routes a draft. Only its creator may submit it.
func (u *Usecase) Submit(ctx context.Context, referenceNo, actorID string) (*DocumentDTO, error) {
	if actorID == "" {
		return nil, u.fail("submit", apperr.Invalid("actor", "is required"))
	}
	var doc *document.Document
	err := u.uow.WithinDocumentTx(ctx, referenceNo, func(r uow.Repos, d *document.Document) error {
		if !d.IsDraft {
			return document.ErrNotDraft
		}
		if d.CreatedBy != actorID {
			return routing.ErrNotCurrentActor
		}
		def, ok := document.Lookup(d.Type)
		if !ok {
			return fmt.Errorf("document %s has unknown type %q", d.ReferenceNo, d.Type)
		}
		d.IsDraft = false
		d.Route(def.Policy)
		if err := r.Documents.Submit(ctx, d); err != nil {
			return err
		}
		doc = d
		return r.History.Append(ctx, &history.Action{DocumentID: d.ID, ActorID: actorID, Kind: history.KindSubmitted})
	})
	if err != nil {
		return nil, u.fail("submit", notFound(err, document.ErrNotFound))
	}

	u.log.WithFields(logrus.Fields{"reference_no": doc.ReferenceNo, "actor": actorID}).Info("document submitted")
	u.emit(ctx, u.event(EventSubmitted, doc, actorID))
	return &DocumentDTO{Document: doc}, nil
}

// Get returns the document and where viewerID sits in its chain.
func (u *Usecase) Get(ctx context.Context, referenceNo, viewerID string) (*DocumentDTO, error) {
	d, err := u.reads.Documents.GetByReferenceNo(ctx, referenceNo)
	if err != nil {
		return nil, notFound(err, document.ErrNotFound)
	}
	dto := &DocumentDTO{Document: d}
	p, err := u.reads.Purchasings.GetByID(ctx, d.PurchasingID)
	switch {
	case err == nil:
		dto.PurchasingID = p.PurchasingID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	if viewerID != "" {
		c := routing.Classify(viewerID, d.Chain())
		dto.Viewer = &c
		dto.CanAct = !d.IsDraft && !d.Finalized() && d.NextActionUserID != nil && *d.NextActionUserID == viewerID
	}
	return dto, nil
}

func (u *Usecase) History(ctx context.Context, referenceNo string) ([]history.Action, error) {
	d, err := u.reads.Documents.GetByReferenceNo(ctx, referenceNo)
	if err != nil {
		return nil, notFound(err, document.ErrNotFound)
	}
	return u.reads.History.ListByDocument(ctx, d.ID)
}

// Inbox lists open documents waiting on userID, most urgent first.
func (u *Usecase) Inbox(ctx context.Context, userID string) ([]document.Document, error) {
	if userID == "" {
		return nil, apperr.Invalid("user", "is required")
	}
	return u.reads.Documents.ListAwaiting(ctx, userID)
}

func (u *Usecase) event(name string, d *document.Document, actorID string) Event {
	return Event{
		Name:             name,
		ReferenceNo:      d.ReferenceNo,
		Type:             d.Type,
		ActorID:          actorID,
		FinalStatus:      d.FinalStatus,
		NextAction:       d.NextAction,
		NextActionUserID: d.NextActionUserID,
		OccurredAt:       u.now(),
	}
}
