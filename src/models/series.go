package models

// RecurringSeries is a named recurring pattern of bills, subscriptions or
// paychecks. Dates are stored as YYYY-MM-DD strings.
//
// Invariant: NextDue, when present, is always >= LastSeen, or nil when no
// history exists yet. NextDue and LastSeen are mutated only by the reconciler
// or by an explicit snooze.
type RecurringSeries struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"-"`
	Kind       SeriesKind `json:"kind"`
	Name       string     `json:"name"`
	Merchant   string     `json:"merchant,omitempty"`
	Cadence    Cadence    `json:"cadence"`
	DayOfMonth *int       `json:"dayOfMonth,omitempty"` // anchor day-of-month, clamped to [1,28]
	Weekday    *int       `json:"weekday,omitempty"`    // anchor weekday, clamped to [0,6]
	AmountHint *float64   `json:"amountHint,omitempty"`
	Active     bool       `json:"active"`
	NextDue    *string    `json:"nextDue,omitempty"`
	LastSeen   *string    `json:"lastSeen,omitempty"`
}

// SeriesFilter narrows a series listing.
type SeriesFilter struct {
	Kind   string // empty = any
	Active *bool  // nil = any
	Query  string // case-insensitive substring over name and merchant
}
