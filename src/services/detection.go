package services

import (
	"context"
	"strings"

	"github.com/username/recurro/backend/src/logger"
	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

// DefaultDetectLookbackDays is the history window handed to the detector
// when the caller does not specify one.
const DefaultDetectLookbackDays = 180

// Detector is the external pattern-mining collaborator. It receives the
// owner id, a read-only transaction-query handle and a lookback window; its
// internal heuristics and scoring are opaque to this engine beyond the
// result shape below.
type Detector interface {
	Detect(ctx context.Context, userID int64, q TransactionQuery, lookbackDays int) (*DetectionResult, error)
}

// DetectionResult is the detector's output contract.
type DetectionResult struct {
	Results []SeriesCandidate `json:"results"`
}

// SeriesCandidate is one mined candidate series.
type SeriesCandidate struct {
	Kind       models.SeriesKind `json:"kind"`
	Name       string            `json:"name"`
	Merchant   string            `json:"merchant,omitempty"`
	Cadence    models.Cadence    `json:"cadence"`
	DayOfMonth *int              `json:"dayOfMonth,omitempty"`
	Weekday    *int              `json:"weekday,omitempty"`
	AmountHint *float64          `json:"amountHint,omitempty"`
	LastSeen   string            `json:"lastSeen,omitempty"`
	NextDue    *string           `json:"nextDue,omitempty"`
	Confidence float64           `json:"confidence"`
}

// DetectionAdapter normalizes detector output into registry writes: new or
// refreshed series, plus predicted bills for expense candidates that carry a
// projected due date.
type DetectionAdapter struct {
	Detector     Detector
	Series       SeriesStore
	Bills        BillStore
	Transactions TransactionStore
}

func NewDetectionAdapter(d Detector, series SeriesStore, bills BillStore, txs TransactionStore) *DetectionAdapter {
	return &DetectionAdapter{Detector: d, Series: series, Bills: bills, Transactions: txs}
}

// Run invokes the detector and folds its candidates into the registry. The
// detector result is returned to the caller unchanged; one candidate's
// write failure is logged and does not abort the rest.
func (a *DetectionAdapter) Run(ctx context.Context, userID int64, lookbackDays int) (*DetectionResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultDetectLookbackDays
	}
	result, err := a.Detector.Detect(ctx, userID, a.Transactions, lookbackDays)
	if err != nil {
		return nil, err
	}

	for _, cand := range result.Results {
		if err := a.apply(ctx, userID, cand); err != nil && logger.L != nil {
			logger.L.Warn("detection: failed to apply candidate", "name", cand.Name, "error", err)
		}
	}
	return result, nil
}

func (a *DetectionAdapter) apply(ctx context.Context, userID int64, cand SeriesCandidate) error {
	if cand.Name == "" || !models.ValidSeriesKind(string(cand.Kind)) || !models.ValidCadence(string(cand.Cadence)) {
		return validationf("malformed candidate %q", cand.Name)
	}

	series, err := a.findExisting(ctx, userID, cand)
	if err != nil {
		return err
	}
	if series == nil {
		series = &models.RecurringSeries{
			UserID:   userID,
			Kind:     cand.Kind,
			Name:     cand.Name,
			Merchant: cand.Merchant,
			Active:   true,
		}
	}

	series.Cadence = cand.Cadence
	series.DayOfMonth = clampPtr(cand.DayOfMonth, 1, 28)
	series.Weekday = clampPtr(cand.Weekday, 0, 6)
	if cand.AmountHint != nil && *cand.AmountHint >= 0 {
		series.AmountHint = cand.AmountHint
	}
	if cand.LastSeen != "" {
		series.LastSeen = &cand.LastSeen
	}
	if cand.NextDue != nil && *cand.NextDue != "" {
		series.NextDue = cand.NextDue
	}

	if series.ID == 0 {
		if err := a.Series.Insert(ctx, series); err != nil {
			return err
		}
	} else if err := a.Series.Update(ctx, series); err != nil {
		return err
	}

	// Expense candidates with a projection get a predicted bill instance so
	// the planner has something concrete to show. Paycheck instances are
	// never predicted.
	if series.Kind != models.KindPaycheck && series.NextDue != nil {
		return a.ensurePredictedBill(ctx, userID, series)
	}
	return nil
}

// findExisting matches a candidate against the owner's series by kind and
// case-insensitive name or merchant, so re-running detection refreshes
// instead of duplicating.
func (a *DetectionAdapter) findExisting(ctx context.Context, userID int64, cand SeriesCandidate) (*models.RecurringSeries, error) {
	existing, err := a.Series.List(ctx, userID, models.SeriesFilter{Kind: string(cand.Kind)})
	if err != nil {
		return nil, err
	}
	for i := range existing {
		s := &existing[i]
		if strings.EqualFold(s.Name, cand.Name) {
			return s, nil
		}
		if s.Merchant != "" && cand.Merchant != "" && strings.EqualFold(s.Merchant, cand.Merchant) {
			return s, nil
		}
	}
	return nil, nil
}

func (a *DetectionAdapter) ensurePredictedBill(ctx context.Context, userID int64, series *models.RecurringSeries) error {
	due := *series.NextDue
	if _, err := utils.ParseDate(due); err != nil {
		return validationf("candidate nextDue: %v", err)
	}
	existing, err := a.Bills.FindOpenNear(ctx, userID, series.ID, due, due)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	bill := &models.Bill{
		UserID:   userID,
		SeriesID: &series.ID,
		Name:     series.Name,
		Merchant: series.Merchant,
		Amount:   series.AmountHint,
		Currency: "USD",
		DueDate:  due,
		Status:   models.BillPredicted,
	}
	return a.Bills.Insert(ctx, bill)
}
