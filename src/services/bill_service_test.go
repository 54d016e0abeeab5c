package services

import (
	"context"
	"errors"
	"testing"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

func newTestBillService() (*BillService, *fakeSeriesStore, *fakeBillStore) {
	series := newFakeSeriesStore()
	bills := newFakeBillStore()
	return NewBillService(series, bills), series, bills
}

func TestCreateBill(t *testing.T) {
	ctx := context.Background()
	svc, seriesStore, _ := newTestBillService()
	series := seedMonthlySeries(t, seriesStore, 1)

	bill, err := svc.Create(ctx, 1, CreateBillInput{
		SeriesID: &series.ID,
		Name:     "Electric",
		Amount:   ptrFloat(60),
		DueDate:  "2024-04-15",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if bill.Status != models.BillDue {
		t.Errorf("status = %q, want due", bill.Status)
	}
	if bill.Currency != "USD" {
		t.Errorf("currency = %q, want USD default", bill.Currency)
	}
	if bill.SeriesID == nil || *bill.SeriesID != series.ID {
		t.Errorf("seriesId = %v, want %d", bill.SeriesID, series.ID)
	}
}

func TestCreateBillUnownedSeriesIsAdvisory(t *testing.T) {
	ctx := context.Background()
	svc, seriesStore, _ := newTestBillService()
	other := seedMonthlySeries(t, seriesStore, 2)

	bill, err := svc.Create(ctx, 1, CreateBillInput{SeriesID: &other.ID, Name: "Water", DueDate: "2024-04-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if bill.SeriesID != nil {
		t.Errorf("seriesId = %v, want nil for a foreign series", bill.SeriesID)
	}
}

func TestCreateBillValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestBillService()
	cases := []struct {
		name string
		in   CreateBillInput
	}{
		{"empty name", CreateBillInput{DueDate: "2024-04-01"}},
		{"missing dueDate", CreateBillInput{Name: "X"}},
		{"bad dueDate", CreateBillInput{Name: "X", DueDate: "04/01/2024"}},
		{"negative amount", CreateBillInput{Name: "X", DueDate: "2024-04-01", Amount: ptrFloat(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, 1, tc.in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestMarkBillPaid(t *testing.T) {
	ctx := context.Background()
	svc, _, billStore := newTestBillService()
	bill := &models.Bill{UserID: 1, Name: "Rent", Currency: "USD", DueDate: "2024-04-01", Status: models.BillDue}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	marked, err := svc.Mark(ctx, 1, bill.ID, MarkInput{Status: "paid", TxID: ptrStr("tx-7"), Amount: ptrFloat(1200)})
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if marked.Status != models.BillPaid {
		t.Errorf("status = %q, want paid", marked.Status)
	}
	want := utils.FormatDate(utils.Today())
	if marked.PaidAt == nil || *marked.PaidAt != want {
		t.Errorf("paidAt = %v, want today %s by default", marked.PaidAt, want)
	}
	if marked.TxRef == nil || *marked.TxRef != "tx-7" {
		t.Errorf("txRef = %v, want tx-7", marked.TxRef)
	}
	if marked.Amount == nil || *marked.Amount != 1200 {
		t.Errorf("amount = %v, want realized 1200", marked.Amount)
	}
}

func TestMarkBillSkippedClearsPaymentFields(t *testing.T) {
	ctx := context.Background()
	svc, _, billStore := newTestBillService()
	paidAt := "2024-03-01"
	ref := "42"
	bill := &models.Bill{
		UserID: 1, Name: "Gym", Currency: "USD", DueDate: "2024-03-01",
		Status: models.BillPaid, PaidAt: &paidAt, TxRef: &ref,
	}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	marked, err := svc.Mark(ctx, 1, bill.ID, MarkInput{Status: "skipped"})
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if marked.Status != models.BillSkipped || marked.PaidAt != nil || marked.TxRef != nil {
		t.Errorf("marked = %+v, want skipped with no payment fields", marked)
	}
}

func TestMarkBillErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, billStore := newTestBillService()
	bill := &models.Bill{UserID: 1, Name: "X", Currency: "USD", DueDate: "2024-04-01", Status: models.BillDue}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	if _, err := svc.Mark(ctx, 1, bill.ID, MarkInput{Status: "settled"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status: err = %v, want ErrValidation", err)
	}
	// Predicted is a detection outcome, not a transition callers may request.
	if _, err := svc.Mark(ctx, 1, bill.ID, MarkInput{Status: "predicted"}); !errors.Is(err, ErrValidation) {
		t.Errorf("predicted status: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Mark(ctx, 1, 999, MarkInput{Status: "paid"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing bill: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Mark(ctx, 2, bill.ID, MarkInput{Status: "paid"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign bill: err = %v, want ErrNotFound", err)
	}
}

func TestSnoozeBill(t *testing.T) {
	ctx := context.Background()
	svc, _, billStore := newTestBillService()
	bill := &models.Bill{UserID: 1, Name: "Rent", Currency: "USD", DueDate: "2024-04-01", Status: models.BillDue}
	if err := billStore.Insert(ctx, bill); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	snoozed, err := svc.Snooze(ctx, 1, bill.ID, 7)
	if err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	if snoozed.DueDate != "2024-04-08" {
		t.Errorf("dueDate = %s, want 2024-04-08", snoozed.DueDate)
	}

	snoozed, err = svc.Snooze(ctx, 1, bill.ID, -3)
	if err != nil {
		t.Fatalf("Snooze clamp: %v", err)
	}
	if snoozed.DueDate != "2024-04-09" {
		t.Errorf("dueDate = %s, want 2024-04-09 after minimum shift", snoozed.DueDate)
	}
}
