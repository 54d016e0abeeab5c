package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

func newTestBackfill() (*BackfillJob, *fakeBillStore, *fakePaycheckStore, *fakeTransactionStore) {
	bills := newFakeBillStore()
	paychecks := newFakePaycheckStore()
	txs := newFakeTransactionStore()
	return NewBackfillJob(bills, paychecks, txs), bills, paychecks, txs
}

func recentDate(daysAgo int) string {
	return utils.FormatDate(utils.Today().AddDate(0, 0, -daysAgo))
}

func TestBackfillCreatesMissingTransactions(t *testing.T) {
	ctx := context.Background()
	job, billStore, paycheckStore, txStore := newTestBackfill()

	paidAt := recentDate(30)
	bill := &models.Bill{
		UserID: 1, Name: "Internet", Amount: ptrFloat(80), Currency: "USD",
		DueDate: paidAt, Status: models.BillPaid, PaidAt: &paidAt,
	}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding bill: %v", err)
	}
	hit := &models.PaycheckHit{UserID: 1, Amount: 2000, Date: recentDate(20)}
	if err := paycheckStore.Insert(ctx, hit); err != nil {
		t.Fatalf("seeding paycheck: %v", err)
	}

	summary, err := job.Run(ctx, 1, 0, "acc-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Bills.Created != 1 || summary.Paychecks.Created != 1 {
		t.Fatalf("created = %d/%d, want 1/1", summary.Bills.Created, summary.Paychecks.Created)
	}
	if summary.Bills.Failed != 0 || summary.Paychecks.Failed != 0 {
		t.Errorf("failed = %d/%d, want 0/0", summary.Bills.Failed, summary.Paychecks.Failed)
	}

	repaired, _ := billStore.GetByID(ctx, 1, bill.ID)
	if repaired.TxRef == nil {
		t.Fatal("bill txRef not set after repair")
	}
	txID, _ := strconv.ParseInt(*repaired.TxRef, 10, 64)
	tx, _ := txStore.GetByID(ctx, 1, txID)
	if tx == nil {
		t.Fatal("bill txRef does not resolve to a ledger row")
	}
	if tx.MatchedBillID == nil || *tx.MatchedBillID != bill.ID {
		t.Errorf("tx matchedBillId = %v, want %d", tx.MatchedBillID, bill.ID)
	}
	if tx.ExternalID == nil || *tx.ExternalID == "" {
		t.Error("created tx has no external id")
	}
	if tx.AccountID == nil || *tx.AccountID != "acc-1" {
		t.Errorf("tx accountId = %v, want acc-1", tx.AccountID)
	}
	if tx.Date != paidAt {
		t.Errorf("tx date = %s, want paidAt %s", tx.Date, paidAt)
	}
}

func TestBackfillIsIdempotent(t *testing.T) {
	ctx := context.Background()
	job, billStore, paycheckStore, txStore := newTestBackfill()

	paidAt := recentDate(10)
	bill := &models.Bill{
		UserID: 1, Name: "Gym", Amount: ptrFloat(35), Currency: "USD",
		DueDate: paidAt, Status: models.BillPaid, PaidAt: &paidAt,
	}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding bill: %v", err)
	}
	hit := &models.PaycheckHit{UserID: 1, Amount: 1500, Date: recentDate(5)}
	if err := paycheckStore.Insert(ctx, hit); err != nil {
		t.Fatalf("seeding paycheck: %v", err)
	}

	if _, err := job.Run(ctx, 1, 0, ""); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := job.Run(ctx, 1, 0, "")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Bills.Created != 0 || second.Bills.Linked != 0 {
		t.Errorf("second pass bills = %+v, want all zero", second.Bills)
	}
	if second.Paychecks.Created != 0 || second.Paychecks.Linked != 0 {
		t.Errorf("second pass paychecks = %+v, want all zero", second.Paychecks)
	}
	if len(txStore.items) != 2 {
		t.Errorf("transactions = %d, want 2: repeated runs never duplicate", len(txStore.items))
	}
}

func TestBackfillRepairsHalfLinkedBill(t *testing.T) {
	ctx := context.Background()
	job, billStore, _, txStore := newTestBackfill()

	paidAt := recentDate(15)
	bill := &models.Bill{
		UserID: 1, Name: "Water", Amount: ptrFloat(40), Currency: "USD",
		DueDate: paidAt, Status: models.BillPaid, PaidAt: &paidAt,
	}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding bill: %v", err)
	}
	// The ledger row already back-references the bill, but the bill side of
	// the link was lost.
	tx := &models.LedgerTransaction{
		UserID: 1, Amount: 40, Date: paidAt, Type: models.TxTypeExpense,
		Category: "Bills", Source: models.TxSourceAggregator, MatchedBillID: &bill.ID,
	}
	if err := txStore.Insert(ctx, tx); err != nil {
		t.Fatalf("seeding tx: %v", err)
	}

	summary, err := job.Run(ctx, 1, 0, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Bills.Created != 0 {
		t.Errorf("created = %d, want 0: an existing back-reference blocks creation", summary.Bills.Created)
	}
	if summary.Bills.Linked != 1 {
		t.Errorf("linked = %d, want 1", summary.Bills.Linked)
	}
	repaired, _ := billStore.GetByID(ctx, 1, bill.ID)
	want := strconv.FormatInt(tx.ID, 10)
	if repaired.TxRef == nil || *repaired.TxRef != want {
		t.Errorf("bill txRef = %v, want %s", repaired.TxRef, want)
	}
}

func TestBackfillRepairsMissingBackReference(t *testing.T) {
	ctx := context.Background()
	job, billStore, _, txStore := newTestBackfill()

	paidAt := recentDate(15)
	tx := &models.LedgerTransaction{
		UserID: 1, Amount: 55, Date: paidAt, Type: models.TxTypeExpense,
		Category: "Bills", Source: models.TxSourceAggregator,
	}
	if err := txStore.Insert(ctx, tx); err != nil {
		t.Fatalf("seeding tx: %v", err)
	}
	ref := strconv.FormatInt(tx.ID, 10)
	bill := &models.Bill{
		UserID: 1, Name: "Phone", Amount: ptrFloat(55), Currency: "USD",
		DueDate: paidAt, Status: models.BillPaid, PaidAt: &paidAt, TxRef: &ref,
	}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding bill: %v", err)
	}

	summary, err := job.Run(ctx, 1, 0, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Bills.Linked != 1 || summary.Bills.Created != 0 {
		t.Errorf("summary bills = %+v, want one linked, none created", summary.Bills)
	}
	repaired, _ := txStore.GetByID(ctx, 1, tx.ID)
	if repaired.MatchedBillID == nil || *repaired.MatchedBillID != bill.ID {
		t.Errorf("tx matchedBillId = %v, want %d", repaired.MatchedBillID, bill.ID)
	}
}

func TestBackfillHonorsLookbackWindow(t *testing.T) {
	ctx := context.Background()
	job, billStore, _, txStore := newTestBackfill()

	old := recentDate(400)
	bill := &models.Bill{
		UserID: 1, Name: "Ancient", Amount: ptrFloat(10), Currency: "USD",
		DueDate: old, Status: models.BillPaid, PaidAt: &old,
	}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding bill: %v", err)
	}

	summary, err := job.Run(ctx, 1, 0, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Bills.Created != 0 || len(txStore.items) != 0 {
		t.Errorf("bill outside the default window was touched: %+v", summary.Bills)
	}

	wide, err := job.Run(ctx, 1, 500, "")
	if err != nil {
		t.Fatalf("wide Run: %v", err)
	}
	if wide.Bills.Created != 1 {
		t.Errorf("wide window created = %d, want 1", wide.Bills.Created)
	}
}
