package document

import (
	"procurement-backend/internal/domain/purchasing"
	"procurement-backend/internal/domain/routing"
)

type Type string

const (
	TypeRequisition     Type = "requisition"
	TypeCanvass         Type = "canvass"
	TypePurchaseRequest Type = "purchase_request"
	TypeServiceRequest  Type = "service_request"
	TypePurchaseOrder   Type = "purchase_order"
	TypeJobOrder        Type = "job_order"
	TypeRFP             Type = "rfp"
	TypeCheckVoucher    Type = "check_voucher"
)

// Definition is everything a module contributes to the shared approval chain.
type Definition struct {
	Type        Type
	Prefix      string
	SubModuleID uint64
	Downstream  Type // empty: approval closes the document
	Column      purchasing.Column
	Policy      routing.Policy
	BudgetGated bool
}

var definitions = map[Type]Definition{
	TypeRequisition: {
		Type: TypeRequisition, Prefix: "REQ", SubModuleID: 1, Downstream: TypeCanvass,
		Column: purchasing.ColumnRequisition, Policy: routing.DefaultPolicy,
	},
	TypeCanvass: {
		Type: TypeCanvass, Prefix: "CNV", SubModuleID: 2,
		Column: purchasing.ColumnCanvass, Policy: routing.DefaultPolicy,
	},
	TypePurchaseRequest: {
		Type: TypePurchaseRequest, Prefix: "PR", SubModuleID: 3, Downstream: TypePurchaseOrder,
		Column: purchasing.ColumnRequest, Policy: routing.DefaultPolicy, BudgetGated: true,
	},
	TypeServiceRequest: {
		Type: TypeServiceRequest, Prefix: "SR", SubModuleID: 4, Downstream: TypeJobOrder,
		Column: purchasing.ColumnRequest, Policy: routing.DefaultPolicy, BudgetGated: true,
	},
	TypePurchaseOrder: {
		Type: TypePurchaseOrder, Prefix: "PO", SubModuleID: 5,
		Column: purchasing.ColumnOrder, Policy: releasePolicy,
	},
	TypeJobOrder: {
		Type: TypeJobOrder, Prefix: "JO", SubModuleID: 6,
		Column: purchasing.ColumnOrder, Policy: releasePolicy,
	},
	TypeRFP: {
		Type: TypeRFP, Prefix: "RFP", SubModuleID: 7, Downstream: TypeCheckVoucher,
		Column: purchasing.ColumnRFP, Policy: routing.DefaultPolicy, BudgetGated: true,
	},
	TypeCheckVoucher: {
		Type: TypeCheckVoucher, Prefix: "CV", SubModuleID: 8,
		Column: purchasing.ColumnCheckVoucher,
		Policy: routing.Policy{
			ReviewerPositive:  routing.StatusReviewed,
			ApproverPositive:  routing.StatusApproved,
			ReleaseOnApproval: true,
		},
	},
}

var releasePolicy = routing.Policy{
	ReviewerPositive:  routing.StatusApproved,
	ApproverPositive:  routing.StatusApproved,
	ReleaseOnApproval: true,
}

func Lookup(t Type) (Definition, bool) {
	d, ok := definitions[t]
	return d, ok
}

func (t Type) Valid() bool {
	_, ok := definitions[t]
	return ok
}

// Types lists the registered document types.
func Types() []Type {
	return []Type{
		TypeRequisition, TypeCanvass, TypePurchaseRequest, TypeServiceRequest,
		TypePurchaseOrder, TypeJobOrder, TypeRFP, TypeCheckVoucher,
	}
}
