package models

// LedgerTransaction is a row in the ledger owned by the accounting subsystem.
// The engine only reads it and writes the match back-references; both sides
// of the bill/paycheck linkage must agree or are considered inconsistent.
type LedgerTransaction struct {
	ID                int64    `json:"id"`
	UserID            int64    `json:"-"`
	Amount            float64  `json:"amount"`
	Date              string   `json:"date"`
	Type              string   `json:"type"` // income | expense
	Category          string   `json:"category"`
	Source            string   `json:"source"` // manual | aggregator
	ExternalID        *string  `json:"externalId,omitempty"`
	AccountID         *string  `json:"accountId,omitempty"`
	Description       string   `json:"description,omitempty"`
	MatchedBillID     *int64   `json:"matchedBillId,omitempty"`
	MatchedPaycheckID *int64   `json:"matchedPaycheckId,omitempty"`
	MatchedSeriesID   *int64   `json:"matchedSeriesId,omitempty"`
	MatchConfidence   *float64 `json:"matchConfidence,omitempty"` // in [0,1]
}

// MatchRefs carries the three back-references plus confidence written onto a
// ledger transaction when it is matched. Nil fields are left untouched on
// the row; a match only ever adds references, never clears them.
type MatchRefs struct {
	BillID     *int64
	PaycheckID *int64
	SeriesID   *int64
	Confidence float64
}
