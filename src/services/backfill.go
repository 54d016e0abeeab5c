package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/username/recurro/backend/src/logger"
	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

// DefaultBackfillDays is the default lookback window of the repair pass.
const DefaultBackfillDays = 365

// BackfillCounts reports what the pass did for one record kind.
type BackfillCounts struct {
	Created int `json:"created"`
	Linked  int `json:"linked"`
	Failed  int `json:"failed"`
}

// BackfillSummary is the per-kind outcome of one backfill run.
type BackfillSummary struct {
	Bills     BackfillCounts `json:"bills"`
	Paychecks BackfillCounts `json:"paychecks"`
}

// BackfillJob idempotently repairs linkage between realized events and
// ledger transactions. Repeated runs over the same data converge to zero
// additional creates after the first successful pass, so it is safe to run
// arbitrarily often, including concurrently with the reconciler.
type BackfillJob struct {
	Bills        BillStore
	Paychecks    PaycheckStore
	Transactions TransactionStore
}

func NewBackfillJob(bills BillStore, paychecks PaycheckStore, txs TransactionStore) *BackfillJob {
	return &BackfillJob{Bills: bills, Paychecks: paychecks, Transactions: txs}
}

// Run repairs all paid bills and paycheck hits inside the lookback window.
// accountID, when set, is stamped onto transactions the pass creates. One
// record's failure never blocks repair of the rest; partial counts are
// always reported.
func (j *BackfillJob) Run(ctx context.Context, userID int64, days int, accountID string) (*BackfillSummary, error) {
	if days <= 0 {
		days = DefaultBackfillDays
	}
	since := utils.FormatDate(utils.Today().AddDate(0, 0, -days))
	summary := &BackfillSummary{}

	bills, err := j.Bills.ListPaidSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		if err := j.repairBill(ctx, &bills[i], accountID, &summary.Bills); err != nil {
			summary.Bills.Failed++
			if logger.L != nil {
				logger.L.Warn("backfill: bill repair failed", "billId", bills[i].ID, "error", err)
			}
		}
	}

	paychecks, err := j.Paychecks.ListSince(ctx, userID, since)
	if err != nil {
		return summary, err
	}
	for i := range paychecks {
		if err := j.repairPaycheck(ctx, &paychecks[i], accountID, &summary.Paychecks); err != nil {
			summary.Paychecks.Failed++
			if logger.L != nil {
				logger.L.Warn("backfill: paycheck repair failed", "paycheckId", paychecks[i].ID, "error", err)
			}
		}
	}

	return summary, nil
}

// findTxFor tries an explicit, ordered list of lookup strategies, each
// producing at most one candidate: the stored link as an exact transaction
// id, the stored link as an external-origin id, and finally the ledger-side
// back-reference. The disjunction is what makes creation safe: a record
// with any matching transaction is never duplicated.
func (j *BackfillJob) findTxFor(ctx context.Context, userID int64, txRef *string, backref func() (*models.LedgerTransaction, error)) (*models.LedgerTransaction, error) {
	if txRef != nil && *txRef != "" {
		if id, err := strconv.ParseInt(*txRef, 10, 64); err == nil {
			tx, err := j.Transactions.GetByID(ctx, userID, id)
			if err != nil || tx != nil {
				return tx, err
			}
		}
		tx, err := j.Transactions.GetByExternalID(ctx, userID, *txRef)
		if err != nil || tx != nil {
			return tx, err
		}
	}
	return backref()
}

func (j *BackfillJob) repairBill(ctx context.Context, bill *models.Bill, accountID string, counts *BackfillCounts) error {
	tx, err := j.findTxFor(ctx, bill.UserID, bill.TxRef, func() (*models.LedgerTransaction, error) {
		return j.Transactions.FindByMatchedBill(ctx, bill.UserID, bill.ID)
	})
	if err != nil {
		return err
	}

	if tx == nil {
		date := bill.DueDate
		if bill.PaidAt != nil {
			date = *bill.PaidAt
		}
		created := models.LedgerTransaction{
			UserID:          bill.UserID,
			Amount:          maxZero(bill.Amount),
			Date:            date,
			Type:            models.TxTypeExpense,
			Category:        "Bills",
			Source:          models.TxSourceManual,
			MatchedBillID:   &bill.ID,
			MatchedSeriesID: bill.SeriesID,
		}
		ext := uuid.NewString()
		created.ExternalID = &ext
		if accountID != "" {
			created.AccountID = &accountID
		}
		conf := 1.0
		created.MatchConfidence = &conf
		if err := j.Transactions.Insert(ctx, &created); err != nil {
			return err
		}
		if err := j.linkBill(ctx, bill, created.ID); err != nil {
			return err
		}
		counts.Created++
		return nil
	}

	repaired := false
	if tx.MatchedBillID == nil {
		refs := models.MatchRefs{BillID: &bill.ID, SeriesID: bill.SeriesID, Confidence: 1}
		if err := j.Transactions.SetMatchRefs(ctx, bill.UserID, tx.ID, refs); err != nil {
			return err
		}
		repaired = true
	}
	want := strconv.FormatInt(tx.ID, 10)
	if bill.TxRef == nil || *bill.TxRef != want {
		if err := j.linkBill(ctx, bill, tx.ID); err != nil {
			return err
		}
		repaired = true
	}
	if repaired {
		counts.Linked++
	}
	return nil
}

func (j *BackfillJob) repairPaycheck(ctx context.Context, hit *models.PaycheckHit, accountID string, counts *BackfillCounts) error {
	tx, err := j.findTxFor(ctx, hit.UserID, hit.TxRef, func() (*models.LedgerTransaction, error) {
		return j.Transactions.FindByMatchedPaycheck(ctx, hit.UserID, hit.ID)
	})
	if err != nil {
		return err
	}

	if tx == nil {
		created := models.LedgerTransaction{
			UserID:            hit.UserID,
			Amount:            hit.Amount,
			Date:              hit.Date,
			Type:              models.TxTypeIncome,
			Category:          "Income",
			Source:            models.TxSourceManual,
			AccountID:         hit.AccountID,
			MatchedPaycheckID: &hit.ID,
			MatchedSeriesID:   hit.SeriesID,
		}
		ext := uuid.NewString()
		created.ExternalID = &ext
		if created.AccountID == nil && accountID != "" {
			created.AccountID = &accountID
		}
		conf := 1.0
		created.MatchConfidence = &conf
		if err := j.Transactions.Insert(ctx, &created); err != nil {
			return err
		}
		if err := j.linkPaycheck(ctx, hit, created.ID); err != nil {
			return err
		}
		counts.Created++
		return nil
	}

	repaired := false
	if tx.MatchedPaycheckID == nil {
		refs := models.MatchRefs{PaycheckID: &hit.ID, SeriesID: hit.SeriesID, Confidence: 1}
		if err := j.Transactions.SetMatchRefs(ctx, hit.UserID, tx.ID, refs); err != nil {
			return err
		}
		repaired = true
	}
	want := strconv.FormatInt(tx.ID, 10)
	if hit.TxRef == nil || *hit.TxRef != want {
		if err := j.linkPaycheck(ctx, hit, tx.ID); err != nil {
			return err
		}
		repaired = true
	}
	if repaired {
		counts.Linked++
	}
	return nil
}

func (j *BackfillJob) linkBill(ctx context.Context, bill *models.Bill, txID int64) error {
	ref := strconv.FormatInt(txID, 10)
	bill.TxRef = &ref
	return j.Bills.Update(ctx, bill)
}

func (j *BackfillJob) linkPaycheck(ctx context.Context, hit *models.PaycheckHit, txID int64) error {
	ref := strconv.FormatInt(txID, 10)
	hit.TxRef = &ref
	return j.Paychecks.SetTxRef(ctx, hit.UserID, hit.ID, ref)
}
