package models

// Bill is a single expected-or-realized expense instance, optionally owned by
// a series (weak reference: series deletion detaches, never cascades).
//
// Invariant: Status == paid implies PaidAt and TxRef are non-nil once
// reconciliation has converged; Status == skipped implies both are nil.
type Bill struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"-"`
	SeriesID *int64     `json:"seriesId,omitempty"`
	Name     string     `json:"name"`
	Merchant string     `json:"merchant,omitempty"`
	Amount   *float64   `json:"amount,omitempty"`
	Currency string     `json:"currency"`
	DueDate  string     `json:"dueDate"`
	Status   BillStatus `json:"status"`
	PaidAt   *string    `json:"paidAt,omitempty"`
	TxRef    *string    `json:"transactionId,omitempty"` // linked ledger transaction reference
}

// BillFilter narrows a bill listing.
type BillFilter struct {
	From      string // inclusive lower bound on due date, empty = open
	To        string // inclusive upper bound on due date, empty = open
	Statuses  []BillStatus
	Query     string // case-insensitive substring over name and merchant
	AccountID string // filters through the linked ledger transaction's account
}
