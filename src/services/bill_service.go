package services

import (
	"context"
	"strings"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

// BillService covers direct bill management: explicit creation, listing and
// the mark/snooze operations. Reconciliation-driven mutation lives in
// Reconciler.
type BillService struct {
	Series SeriesStore
	Bills  BillStore
}

func NewBillService(series SeriesStore, bills BillStore) *BillService {
	return &BillService{Series: series, Bills: bills}
}

// CreateBillInput carries the fields of an explicitly created bill.
type CreateBillInput struct {
	SeriesID *int64
	Name     string
	Merchant string
	Amount   *float64
	Currency string
	DueDate  string
}

// Create stores a user-created bill in status due.
func (s *BillService) Create(ctx context.Context, userID int64, in CreateBillInput) (*models.Bill, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	if in.DueDate == "" {
		return nil, validationf("dueDate is required")
	}
	if _, err := utils.ParseDate(in.DueDate); err != nil {
		return nil, validationf("dueDate: %v", err)
	}
	if in.Amount != nil && *in.Amount < 0 {
		return nil, validationf("amount must not be negative")
	}

	var seriesID *int64
	if in.SeriesID != nil {
		// Series attribution is advisory: a series not owned by the caller
		// is treated as absent, not as an error.
		series, err := s.Series.GetByID(ctx, userID, *in.SeriesID)
		if err != nil {
			return nil, err
		}
		if series != nil {
			seriesID = &series.ID
		}
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	bill := &models.Bill{
		UserID:   userID,
		SeriesID: seriesID,
		Name:     name,
		Merchant: strings.TrimSpace(in.Merchant),
		Amount:   in.Amount,
		Currency: currency,
		DueDate:  in.DueDate,
		Status:   models.BillDue,
	}
	if err := s.Bills.Insert(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *BillService) List(ctx context.Context, userID int64, f models.BillFilter) ([]models.Bill, error) {
	for _, st := range f.Statuses {
		if !models.ValidBillStatus(string(st)) {
			return nil, validationf("unknown status %q", st)
		}
	}
	out, err := s.Bills.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Bill{}
	}
	return out, nil
}

// MarkInput carries a status transition for a bill.
type MarkInput struct {
	Status string
	TxID   *string
	Amount *float64
	PaidAt string // optional YYYY-MM-DD, defaults to today for paid
}

// Mark sets a bill's status. Paid sets paidAt (and the transaction link when
// a txId is supplied; otherwise backfill converges it later). Skipped and
// due clear both, keeping the status invariant. Predicted is not a valid
// target: only detection produces predicted instances.
func (s *BillService) Mark(ctx context.Context, userID, billID int64, in MarkInput) (*models.Bill, error) {
	switch models.BillStatus(in.Status) {
	case models.BillPaid, models.BillSkipped, models.BillDue:
	default:
		return nil, validationf("status must be paid, skipped or due, got %q", in.Status)
	}
	if in.Amount != nil && *in.Amount < 0 {
		return nil, validationf("amount must not be negative")
	}
	paidAt := in.PaidAt
	if paidAt != "" {
		if _, err := utils.ParseDate(paidAt); err != nil {
			return nil, validationf("paidAt: %v", err)
		}
	}

	bill, err := s.Bills.GetByID(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, notFoundf("bill %d", billID)
	}

	bill.Status = models.BillStatus(in.Status)
	switch bill.Status {
	case models.BillPaid:
		if paidAt == "" {
			paidAt = utils.FormatDate(utils.Today())
		}
		bill.PaidAt = &paidAt
		if in.TxID != nil && *in.TxID != "" {
			bill.TxRef = in.TxID
		}
		if in.Amount != nil && *in.Amount > 0 {
			bill.Amount = in.Amount
		}
	case models.BillSkipped, models.BillDue:
		bill.PaidAt = nil
		bill.TxRef = nil
	}

	if err := s.Bills.Update(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// Snooze shifts the bill's due date forward by days, clamped to [1,365].
func (s *BillService) Snooze(ctx context.Context, userID, billID int64, days int) (*models.Bill, error) {
	bill, err := s.Bills.GetByID(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, notFoundf("bill %d", billID)
	}

	days = clampInt(days, minSnoozeDays, maxSnoozeDays)
	base := utils.Today()
	if parsed, err := utils.ParseDate(bill.DueDate); err == nil {
		base = parsed
	}
	bill.DueDate = utils.FormatDate(base.AddDate(0, 0, days))

	if err := s.Bills.Update(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}
