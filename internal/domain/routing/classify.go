package routing

type Role string

const (
	RoleReviewer  Role = "reviewer"
	RoleApprover  Role = "approver"
	RoleRequester Role = "requester"
)

type Classification struct {
	Role          Role `json:"role"`
	Order         int  `json:"order"` // 1-based position in the chain, 0 when absent
	ApproverCount int  `json:"approver_count"`
	ReviewerCount int  `json:"reviewer_count"`
}

// Classify places userID in the chain. A user holding more than one slot is
// reported at the first one.
func Classify(userID string, chain Chain) Classification {
	out := Classification{Role: RoleRequester}
	for i, p := range chain.Slots() {
		if p == nil {
			continue
		}
		if IsReviewerSlot(i) {
			out.ReviewerCount++
		} else {
			out.ApproverCount++
		}
		if out.Order == 0 && userID != "" && *p == userID {
			out.Order = i + 1
			if IsReviewerSlot(i) {
				out.Role = RoleReviewer
			} else {
				out.Role = RoleApprover
			}
		}
	}
	return out
}
