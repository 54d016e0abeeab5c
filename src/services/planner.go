package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

// Planner horizon bounds.
const (
	DefaultHorizonDays   = 40
	MinHorizonDays       = 1
	MaxHorizonDays       = 120
	paycheckTrailingDays = 90
)

// OverviewSummary carries the headline figures of the forward view.
type OverviewSummary struct {
	TotalDue     float64             `json:"totalDue"`
	NextBillDue  *string             `json:"nextBillDue,omitempty"`
	LastPaycheck *models.PaycheckHit `json:"lastPaycheck,omitempty"`
}

// Overview is the short-range forward view of obligations and recent income.
type Overview struct {
	Summary         OverviewSummary      `json:"summary"`
	Bills           []models.Bill        `json:"bills"`
	RecentPaychecks []models.PaycheckHit `json:"recentPaychecks"`
}

// Planner produces the overview as a pure projection over stored records. It
// never mutates state and never recomputes cadence projections; it reads the
// nextDue values the reconciler last wrote.
type Planner struct {
	Bills     BillStore
	Paychecks PaycheckStore
}

func NewPlanner(bills BillStore, paychecks PaycheckStore) *Planner {
	return &Planner{Bills: bills, Paychecks: paychecks}
}

// Overview returns due and predicted bills inside the horizon (clamped to
// [1,120] days, default 40) sorted by due date ascending, paychecks from the
// trailing 90 days sorted descending, and summary figures.
func (p *Planner) Overview(ctx context.Context, userID int64, horizonDays int) (*Overview, error) {
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}
	horizonDays = clampInt(horizonDays, MinHorizonDays, MaxHorizonDays)

	today := utils.Today()
	until := utils.FormatDate(today.AddDate(0, 0, horizonDays))
	bills, err := p.Bills.ListUpcoming(ctx, userID, until)
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []models.Bill{}
	}

	since := utils.FormatDate(today.AddDate(0, 0, -paycheckTrailingDays))
	paychecks, err := p.Paychecks.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if paychecks == nil {
		paychecks = []models.PaycheckHit{}
	}

	// Sum through decimal so the headline figure does not drift with float
	// accumulation across many bills.
	total := decimal.Zero
	for _, b := range bills {
		if b.Amount != nil {
			total = total.Add(decimal.NewFromFloat(*b.Amount))
		}
	}

	summary := OverviewSummary{TotalDue: total.InexactFloat64()}
	if len(bills) > 0 {
		due := bills[0].DueDate
		summary.NextBillDue = &due
	}
	if len(paychecks) > 0 {
		summary.LastPaycheck = &paychecks[0]
	}

	return &Overview{Summary: summary, Bills: bills, RecentPaychecks: paychecks}, nil
}
