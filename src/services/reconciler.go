package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/username/recurro/backend/src/cadence"
	"github.com/username/recurro/backend/src/logger"
	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

// MatchToleranceDays is the half-width of the window used to associate a
// payment date with a predicted due date.
const MatchToleranceDays = 7

// Reconciler links realized ledger transactions to predicted bills and to
// paycheck hits, keeping both sides of the reference in agreement. It is the
// sole writer of those cross-references. Candidate selection is a
// read-then-write sequence without a lock: two concurrent matches against
// the same predicted bill can race, and the second writer's update is still
// idempotent in effect (status paid, transaction linked) even though which
// candidate absorbed the match is then a race outcome.
type Reconciler struct {
	Series       SeriesStore
	Bills        BillStore
	Paychecks    PaycheckStore
	Transactions TransactionStore
}

func NewReconciler(series SeriesStore, bills BillStore, paychecks PaycheckStore, txs TransactionStore) *Reconciler {
	return &Reconciler{Series: series, Bills: bills, Paychecks: paychecks, Transactions: txs}
}

// MatchBillInput identifies the payment to reconcile against a bill.
type MatchBillInput struct {
	TxID     string
	Amount   *float64
	Date     string // optional YYYY-MM-DD, defaults to today
	SeriesID *int64
	Name     string
	Merchant string
	Currency string
}

// MatchPaycheckInput identifies an income event. Amount is required and must
// be strictly positive.
type MatchPaycheckInput struct {
	TxID         string
	Amount       *float64
	Date         string // optional YYYY-MM-DD, defaults to today
	SeriesID     *int64
	AccountID    *string
	EmployerName *string
}

// MatchResult reports the record that absorbed the match and the ledger
// transaction now linked to it.
type MatchResult struct {
	Bill          *models.Bill        `json:"bill,omitempty"`
	Paycheck      *models.PaycheckHit `json:"hit,omitempty"`
	TransactionID int64               `json:"transactionId"`
}

// MatchBill reconciles one payment. It finds an open bill of the resolved
// series within the tolerance window and marks it paid, or creates a new
// bill directly in paid status; it then advances the series cadence state
// and establishes the bidirectional transaction link.
func (r *Reconciler) MatchBill(ctx context.Context, userID int64, in MatchBillInput) (*MatchResult, error) {
	txID := strings.TrimSpace(in.TxID)
	if txID == "" {
		return nil, validationf("txId is required")
	}
	payDate, err := resolveDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Amount != nil && *in.Amount < 0 {
		return nil, validationf("amount must not be negative")
	}

	series, err := r.resolveSeries(ctx, userID, in.SeriesID)
	if err != nil {
		return nil, err
	}

	var bill *models.Bill
	if series != nil {
		from := utils.FormatDate(payDate.AddDate(0, 0, -MatchToleranceDays))
		to := utils.FormatDate(payDate.AddDate(0, 0, MatchToleranceDays))
		bill, err = r.Bills.FindOpenNear(ctx, userID, series.ID, from, to)
		if err != nil {
			return nil, err
		}
	}

	paidAt := utils.FormatDate(payDate)
	if bill != nil {
		bill.Status = models.BillPaid
		bill.PaidAt = &paidAt
		if in.Amount != nil && *in.Amount > 0 {
			bill.Amount = in.Amount
		}
		if err := r.Bills.Update(ctx, bill); err != nil {
			return nil, err
		}
	} else {
		bill = r.newPaidBill(userID, series, in, paidAt)
		if err := r.Bills.Insert(ctx, bill); err != nil {
			return nil, err
		}
	}

	if series != nil {
		r.advanceSeries(ctx, series, payDate)
	}

	tx, err := r.resolveOrCreateTx(ctx, userID, txID, models.MatchRefs{
		BillID:     &bill.ID,
		SeriesID:   seriesIDOf(series),
		Confidence: 1,
	}, func() models.LedgerTransaction {
		return models.LedgerTransaction{
			UserID:   userID,
			Amount:   maxZero(bill.Amount),
			Date:     paidAt,
			Type:     models.TxTypeExpense,
			Category: "Bills",
		}
	})
	if err != nil {
		return nil, err
	}

	ref := strconv.FormatInt(tx.ID, 10)
	bill.TxRef = &ref
	if err := r.Bills.Update(ctx, bill); err != nil {
		return nil, err
	}

	return &MatchResult{Bill: bill, TransactionID: tx.ID}, nil
}

// MatchPaycheck records a realized income event. Individual paychecks are
// never predicted, so a new hit is always created; only the series-level
// nextDue advances.
func (r *Reconciler) MatchPaycheck(ctx context.Context, userID int64, in MatchPaycheckInput) (*MatchResult, error) {
	txID := strings.TrimSpace(in.TxID)
	if txID == "" {
		return nil, validationf("txId is required")
	}
	if in.Amount == nil || *in.Amount <= 0 {
		return nil, validationf("a strictly positive amount is required")
	}
	payDate, err := resolveDate(in.Date)
	if err != nil {
		return nil, err
	}

	series, err := r.resolveSeries(ctx, userID, in.SeriesID)
	if err != nil {
		return nil, err
	}

	employer := in.EmployerName
	if employer == nil && series != nil && series.Name != "" {
		employer = &series.Name
	}
	hit := &models.PaycheckHit{
		UserID:       userID,
		SeriesID:     seriesIDOf(series),
		Amount:       *in.Amount,
		Date:         utils.FormatDate(payDate),
		AccountID:    in.AccountID,
		EmployerName: employer,
	}
	if err := r.Paychecks.Insert(ctx, hit); err != nil {
		return nil, err
	}

	if series != nil {
		r.advanceSeries(ctx, series, payDate)
	}

	tx, err := r.resolveOrCreateTx(ctx, userID, txID, models.MatchRefs{
		PaycheckID: &hit.ID,
		SeriesID:   seriesIDOf(series),
		Confidence: 1,
	}, func() models.LedgerTransaction {
		return models.LedgerTransaction{
			UserID:    userID,
			Amount:    *in.Amount,
			Date:      hit.Date,
			Type:      models.TxTypeIncome,
			Category:  "Income",
			AccountID: in.AccountID,
		}
	})
	if err != nil {
		return nil, err
	}

	ref := strconv.FormatInt(tx.ID, 10)
	if err := r.Paychecks.SetTxRef(ctx, userID, hit.ID, ref); err != nil {
		return nil, err
	}
	hit.TxRef = &ref

	return &MatchResult{Paycheck: hit, TransactionID: tx.ID}, nil
}

// resolveSeries looks up an advisory series reference. A seriesId not owned
// by the caller is treated as absent, not as an error: series resolution is
// advisory, not authorizing.
func (r *Reconciler) resolveSeries(ctx context.Context, userID int64, seriesID *int64) (*models.RecurringSeries, error) {
	if seriesID == nil {
		return nil, nil
	}
	return r.Series.GetByID(ctx, userID, *seriesID)
}

// advanceSeries updates lastSeen to the payment date and recomputes nextDue
// anchored on it. An absent projection (unknown cadence) leaves nextDue
// unchanged: fail-soft, not fail-fatal. A store failure here is logged and
// swallowed for the same reason; the match itself already succeeded.
func (r *Reconciler) advanceSeries(ctx context.Context, series *models.RecurringSeries, payDate time.Time) {
	seen := utils.FormatDate(payDate)
	series.LastSeen = &seen
	if next, ok := cadence.NextOccurrence(payDate, series.Cadence, anchorOf(series)); ok {
		nextStr := utils.FormatDate(next)
		series.NextDue = &nextStr
	}
	if err := r.Series.Update(ctx, series); err != nil && logger.L != nil {
		logger.L.Error("failed to advance series cadence state", "seriesId", series.ID, "error", err)
	}
}

func (r *Reconciler) newPaidBill(userID int64, series *models.RecurringSeries, in MatchBillInput, paidAt string) *models.Bill {
	name := strings.TrimSpace(in.Name)
	merchant := strings.TrimSpace(in.Merchant)
	if series != nil {
		if series.Name != "" {
			name = series.Name
		}
		if series.Merchant != "" {
			merchant = series.Merchant
		}
	}
	if name == "" {
		name = "Bill"
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	var amount *float64
	if in.Amount != nil && *in.Amount > 0 {
		amount = in.Amount
	}
	return &models.Bill{
		UserID:   userID,
		SeriesID: seriesIDOf(series),
		Name:     name,
		Merchant: merchant,
		Amount:   amount,
		Currency: currency,
		DueDate:  paidAt,
		Status:   models.BillPaid,
		PaidAt:   &paidAt,
	}
}

// resolveOrCreateTx resolves the target ledger transaction by exact identity
// or by external-origin id. When none exists a manual one is created from
// the template, carrying the caller's reference as its external id so that
// repeated matches resolve instead of duplicating. Either way the match
// back-references end up written on the row.
func (r *Reconciler) resolveOrCreateTx(ctx context.Context, userID int64, txID string, refs models.MatchRefs, template func() models.LedgerTransaction) (*models.LedgerTransaction, error) {
	tx, err := r.lookupTx(ctx, userID, txID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		created := template()
		created.Source = models.TxSourceManual
		created.ExternalID = &txID
		created.MatchedBillID = refs.BillID
		created.MatchedPaycheckID = refs.PaycheckID
		created.MatchedSeriesID = refs.SeriesID
		conf := refs.Confidence
		created.MatchConfidence = &conf
		if err := r.Transactions.Insert(ctx, &created); err != nil {
			return nil, err
		}
		return &created, nil
	}
	if err := r.Transactions.SetMatchRefs(ctx, userID, tx.ID, refs); err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *Reconciler) lookupTx(ctx context.Context, userID int64, txID string) (*models.LedgerTransaction, error) {
	if id, err := strconv.ParseInt(txID, 10, 64); err == nil {
		tx, err := r.Transactions.GetByID(ctx, userID, id)
		if err != nil || tx != nil {
			return tx, err
		}
	}
	return r.Transactions.GetByExternalID(ctx, userID, txID)
}

func resolveDate(s string) (time.Time, error) {
	if s == "" {
		return utils.Today(), nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, validationf("date: %v", err)
	}
	return t, nil
}

func seriesIDOf(s *models.RecurringSeries) *int64 {
	if s == nil {
		return nil
	}
	return &s.ID
}

func anchorOf(s *models.RecurringSeries) int {
	if s.DayOfMonth != nil {
		return *s.DayOfMonth
	}
	return 0
}

func maxZero(amount *float64) float64 {
	if amount == nil || *amount < 0 {
		return 0
	}
	return *amount
}
