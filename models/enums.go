package models

import "errors"

// ExpenseStatus is the lifecycle status of a ledger expense row.
//
// recurent  = auto-generated, unreconciled obligation
// skipped   = month explicitly excluded, no obligation
// rejected  = refused document, never counted
// the rest  = reconciled against a real document
type ExpenseStatus string

const (
	ExpenseStatusDraft    ExpenseStatus = "draft"
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRecurent ExpenseStatus = "recurent"
	ExpenseStatusFinal    ExpenseStatus = "final"
	ExpenseStatusSkipped  ExpenseStatus = "skipped"
	ExpenseStatusRejected ExpenseStatus = "rejected"
	ExpenseStatusPaid     ExpenseStatus = "paid"
)

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseStatusDraft, ExpenseStatusPending, ExpenseStatusApproved,
		ExpenseStatusRecurent, ExpenseStatusFinal, ExpenseStatusSkipped,
		ExpenseStatusRejected, ExpenseStatusPaid:
		return true
	}
	return false
}

// PnlCountableStatuses are the statuses that contribute to P&L totals:
// both reconciled expenses and still-open obligations count; skipped and
// rejected rows never do.
var PnlCountableStatuses = []ExpenseStatus{
	ExpenseStatusDraft, ExpenseStatusPending, ExpenseStatusApproved,
	ExpenseStatusRecurent, ExpenseStatusFinal, ExpenseStatusPaid,
}

// CountsTowardPnl reports whether rows with this status are included in
// P&L aggregation.
func (s ExpenseStatus) CountsTowardPnl() bool {
	for _, c := range PnlCountableStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// Reconciled reports whether this status represents a month closed out
// against a real document. Reconciled months are immutable history: they
// cannot be skipped and they push the earliest editable month forward.
func (s ExpenseStatus) Reconciled() bool {
	switch s {
	case ExpenseStatusDraft, ExpenseStatusPending, ExpenseStatusApproved,
		ExpenseStatusFinal, ExpenseStatusPaid:
		return true
	}
	return false
}

type InstanceStatus string

// Closed instances always carry the final expense that settled them; a
// skipped month carries none, so it gets its own status instead of
// masquerading as closed.
const (
	InstanceStatusOpen    InstanceStatus = "open"
	InstanceStatusClosed  InstanceStatus = "closed"
	InstanceStatusSkipped InstanceStatus = "skipped"
)

type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeRevenue CategoryType = "revenue"
)

func (t *CategoryType) UnmarshalText(b []byte) error {
	switch CategoryType(b) {
	case CategoryTypeExpense:
		*t = CategoryTypeExpense
	case CategoryTypeRevenue:
		*t = CategoryTypeRevenue
	default:
		return errors.New("invalid category type")
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleMember
}

// RevenueSourceManual marks revenue rows entered by hand (vs imported).
const RevenueSourceManual = "manual"

// Expense type tags used in report drill-downs.
const (
	ExpenseTypeRecurente = "recurente"
	ExpenseTypeReale     = "reale"
)
