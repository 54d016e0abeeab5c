package models

// Cadence classifies how often a recurring series repeats.
type Cadence string

const (
	CadenceWeekly      Cadence = "weekly"
	CadenceBiweekly    Cadence = "biweekly"
	CadenceSemimonthly Cadence = "semimonthly"
	CadenceMonthly     Cadence = "monthly"
	CadenceQuarterly   Cadence = "quarterly"
	CadenceYearly      Cadence = "yearly"
	CadenceUnknown     Cadence = "unknown"
)

// ValidCadence reports whether s is a recognized cadence value.
// Unknown cadence strings are rejected at the boundary, never passed through.
func ValidCadence(s string) bool {
	switch Cadence(s) {
	case CadenceWeekly, CadenceBiweekly, CadenceSemimonthly, CadenceMonthly,
		CadenceQuarterly, CadenceYearly, CadenceUnknown:
		return true
	}
	return false
}

// SeriesKind distinguishes what a recurring series tracks.
type SeriesKind string

const (
	KindBill         SeriesKind = "bill"
	KindSubscription SeriesKind = "subscription"
	KindPaycheck     SeriesKind = "paycheck"
)

func ValidSeriesKind(s string) bool {
	switch SeriesKind(s) {
	case KindBill, KindSubscription, KindPaycheck:
		return true
	}
	return false
}

// BillStatus is the lifecycle state of a single bill instance.
type BillStatus string

const (
	BillPredicted BillStatus = "predicted"
	BillDue       BillStatus = "due"
	BillPaid      BillStatus = "paid"
	BillSkipped   BillStatus = "skipped"
)

func ValidBillStatus(s string) bool {
	switch BillStatus(s) {
	case BillPredicted, BillDue, BillPaid, BillSkipped:
		return true
	}
	return false
}

// Transaction type and source values used by the ledger.
const (
	TxTypeIncome  = "income"
	TxTypeExpense = "expense"

	TxSourceManual     = "manual"
	TxSourceAggregator = "aggregator"
)
