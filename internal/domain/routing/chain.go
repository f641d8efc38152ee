package routing

import "errors"

// Status is the per-slot (and aggregate) decision state stored on a document.
type Status int8

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusDeclined Status = 2
	StatusReviewed Status = 3
)

// Positive reports whether the status lets the chain move past the slot.
func (s Status) Positive() bool { return s == StatusApproved || s == StatusReviewed }

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusDeclined:
		return "declined"
	case StatusReviewed:
		return "reviewed"
	}
	return "unknown"
}

const (
	MaxReviewers = 2
	MaxApprovers = 3
	SlotCount    = MaxReviewers + MaxApprovers
)

// Slot indexes, in chain order.
const (
	SlotReviewer1 = iota
	SlotReviewer2
	SlotApprover1
	SlotApprover2
	SlotApprover3
)

var ErrEmptyChain = errors.New("chain has no approver1")

// Chain is the resolved set of actors for one document. Only Approver1 is mandatory.
type Chain struct {
	Reviewer1ID *string `json:"reviewer1_id,omitempty"`
	Reviewer2ID *string `json:"reviewer2_id,omitempty"`
	Approver1ID *string `json:"approver1_id"`
	Approver2ID *string `json:"approver2_id,omitempty"`
	Approver3ID *string `json:"approver3_id,omitempty"`
}

// Slots returns the identities in routing order; empty strings count as unset.
func (c Chain) Slots() [SlotCount]*string {
	out := [SlotCount]*string{c.Reviewer1ID, c.Reviewer2ID, c.Approver1ID, c.Approver2ID, c.Approver3ID}
	for i, p := range out {
		if p != nil && *p == "" {
			out[i] = nil
		}
	}
	return out
}

func (c Chain) Validate() error {
	if c.Slots()[SlotApprover1] == nil {
		return ErrEmptyChain
	}
	return nil
}

// First returns the identity that acts first on a freshly routed document.
func (c Chain) First() *string {
	for _, p := range c.Slots() {
		if p != nil {
			return p
		}
	}
	return nil
}

// IsReviewerSlot reports whether slot i belongs to the reviewer sub-chain.
func IsReviewerSlot(i int) bool { return i < MaxReviewers }

// SlotName is the column stem used for slot i (reviewer1, approver2, ...).
func SlotName(i int) string {
	switch i {
	case SlotReviewer1:
		return "reviewer1"
	case SlotReviewer2:
		return "reviewer2"
	case SlotApprover1:
		return "approver1"
	case SlotApprover2:
		return "approver2"
	case SlotApprover3:
		return "approver3"
	}
	return ""
}

// StringPtr is a small helper for building chains in callers and tests.
func StringPtr(s string) *string { return &s }
