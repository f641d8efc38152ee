package routing

import "errors"

var (
	ErrAlreadyFinalized       = errors.New("document already finalized")
	ErrNotCurrentActor        = errors.New("actor is not the current approver for this document")
	ErrConcurrentModification = errors.New("decision already recorded for this slot")
	ErrInvalidDecision        = errors.New("invalid decision")
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
)

func (d Decision) Valid() bool { return d == DecisionApprove || d == DecisionDecline }

// NextAction tells which stage a document waits on.
type NextAction string

const (
	NextActionNone    NextAction = "none" // draft, not routed yet
	NextActionReview  NextAction = "review"
	NextActionApprove NextAction = "approve"
	NextActionRelease NextAction = "release"
	NextActionClosed  NextAction = "closed"
)

// Policy carries the per-document-type status codes.
type Policy struct {
	ReviewerPositive  Status
	ApproverPositive  Status
	ReleaseOnApproval bool
}

// DefaultPolicy marks both sub-chains with Approved.
var DefaultPolicy = Policy{ReviewerPositive: StatusApproved, ApproverPositive: StatusApproved}

func (p Policy) positiveFor(slot int) Status {
	s := p.ApproverPositive
	if IsReviewerSlot(slot) {
		s = p.ReviewerPositive
	}
	if !s.Positive() {
		return StatusApproved
	}
	return s
}

type State struct {
	Chain    Chain
	Statuses [SlotCount]Status
}

type Outcome struct {
	Slot             int // index of the slot written by this decision
	Previous         Status
	Statuses         [SlotCount]Status
	Final            Status
	NextAction       NextAction
	NextActionUserID *string
}

// Final folds the per-slot statuses: any decline wins, otherwise approved only
// when every configured slot is positive.
func (s State) Final() Status {
	slots := s.Chain.Slots()
	allPositive := true
	configured := 0
	for i, p := range slots {
		if p == nil {
			continue
		}
		configured++
		switch {
		case s.Statuses[i] == StatusDeclined:
			return StatusDeclined
		case !s.Statuses[i].Positive():
			allPositive = false
		}
	}
	if configured > 0 && allPositive {
		return StatusApproved
	}
	return StatusPending
}

// Current returns the slot whose turn it is: the first configured slot still
// pending with every configured slot before it positive.
func (s State) Current() (int, bool) {
	if s.Final() != StatusPending {
		return -1, false
	}
	for i, p := range s.Chain.Slots() {
		if p == nil {
			continue
		}
		if s.Statuses[i] == StatusPending {
			return i, true
		}
		if !s.Statuses[i].Positive() {
			return -1, false
		}
	}
	return -1, false
}

// Pending derives NextAction and NextActionUserID for a state that has not
// been decided in this call (fresh documents, reads).
func (s State) Pending(p Policy) (NextAction, *string) {
	switch s.Final() {
	case StatusDeclined:
		return NextActionClosed, nil
	case StatusApproved:
		if p.ReleaseOnApproval {
			return NextActionRelease, nil
		}
		return NextActionClosed, nil
	}
	i, ok := s.Current()
	if !ok {
		return NextActionClosed, nil
	}
	if IsReviewerSlot(i) {
		return NextActionReview, s.Chain.Slots()[i]
	}
	return NextActionApprove, s.Chain.Slots()[i]
}

// Apply runs one decision from actorID against the state.
func Apply(s State, actorID string, d Decision, p Policy) (Outcome, error) {
	if !d.Valid() {
		return Outcome{}, ErrInvalidDecision
	}
	if err := s.Chain.Validate(); err != nil {
		return Outcome{}, err
	}
	if s.Final() != StatusPending {
		if decidedBy(s, actorID) {
			return Outcome{}, ErrConcurrentModification
		}
		return Outcome{}, ErrAlreadyFinalized
	}
	slots := s.Chain.Slots()
	cur, ok := s.Current()
	if !ok {
		return Outcome{}, ErrAlreadyFinalized
	}
	if slots[cur] == nil || *slots[cur] != actorID {
		return Outcome{}, actorError(s, actorID)
	}

	out := Outcome{Slot: cur, Previous: s.Statuses[cur], Statuses: s.Statuses}
	if d == DecisionDecline {
		out.Statuses[cur] = StatusDeclined
	} else {
		out.Statuses[cur] = p.positiveFor(cur)
	}
	next := State{Chain: s.Chain, Statuses: out.Statuses}
	out.Final = next.Final()

	switch out.Final {
	case StatusDeclined:
		// keep the decider visible as the last actor
		out.NextAction = NextActionClosed
		out.NextActionUserID = slots[cur]
	default:
		out.NextAction, out.NextActionUserID = next.Pending(p)
	}
	return out, nil
}

// actorError tells a stale repeat (the actor already decided their slot)
// apart from an out-of-turn or unrelated actor.
func actorError(s State, actorID string) error {
	if decidedBy(s, actorID) {
		return ErrConcurrentModification
	}
	return ErrNotCurrentActor
}

func decidedBy(s State, actorID string) bool {
	for i, p := range s.Chain.Slots() {
		if p != nil && *p == actorID && s.Statuses[i] != StatusPending {
			return true
		}
	}
	return false
}
