package services

import (
	"context"
	"sort"
	"strings"

	"github.com/username/recurro/backend/src/models"
)

// In-memory fakes mirroring the sqlite repositories' contracts: lookups
// return (nil, nil) when no row matches and listings sort the way the real
// queries order. Returned values are copies so callers never alias store
// state.

type fakeSeriesStore struct {
	nextID int64
	items  map[int64]models.RecurringSeries
}

func newFakeSeriesStore() *fakeSeriesStore {
	return &fakeSeriesStore{items: map[int64]models.RecurringSeries{}}
}

func (s *fakeSeriesStore) GetByID(_ context.Context, userID, id int64) (*models.RecurringSeries, error) {
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return nil, nil
	}
	out := item
	return &out, nil
}

func (s *fakeSeriesStore) List(_ context.Context, userID int64, f models.SeriesFilter) ([]models.RecurringSeries, error) {
	var out []models.RecurringSeries
	for _, item := range s.items {
		if item.UserID != userID {
			continue
		}
		if f.Kind != "" && string(item.Kind) != f.Kind {
			continue
		}
		if f.Active != nil && item.Active != *f.Active {
			continue
		}
		if f.Query != "" {
			needle := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(item.Name), needle) &&
				!strings.Contains(strings.ToLower(item.Merchant), needle) {
				continue
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *fakeSeriesStore) Insert(_ context.Context, series *models.RecurringSeries) error {
	s.nextID++
	series.ID = s.nextID
	s.items[series.ID] = *series
	return nil
}

func (s *fakeSeriesStore) Update(_ context.Context, series *models.RecurringSeries) error {
	if existing, ok := s.items[series.ID]; ok && existing.UserID == series.UserID {
		s.items[series.ID] = *series
	}
	return nil
}

func (s *fakeSeriesStore) Delete(_ context.Context, userID, id int64) (bool, error) {
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

type fakeBillStore struct {
	nextID int64
	items  map[int64]models.Bill
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{items: map[int64]models.Bill{}}
}

func (s *fakeBillStore) GetByID(_ context.Context, userID, id int64) (*models.Bill, error) {
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return nil, nil
	}
	out := item
	return &out, nil
}

func (s *fakeBillStore) List(_ context.Context, userID int64, f models.BillFilter) ([]models.Bill, error) {
	var out []models.Bill
	for _, item := range s.items {
		if item.UserID != userID {
			continue
		}
		if f.From != "" && item.DueDate < f.From {
			continue
		}
		if f.To != "" && item.DueDate > f.To {
			continue
		}
		if len(f.Statuses) > 0 {
			found := false
			for _, st := range f.Statuses {
				if item.Status == st {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if f.Query != "" {
			needle := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(item.Name), needle) &&
				!strings.Contains(strings.ToLower(item.Merchant), needle) {
				continue
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeBillStore) FindOpenNear(ctx context.Context, userID, seriesID int64, from, to string) (*models.Bill, error) {
	bills, err := s.List(ctx, userID, models.BillFilter{
		From:     from,
		To:       to,
		Statuses: []models.BillStatus{models.BillDue, models.BillPredicted},
	})
	if err != nil {
		return nil, err
	}
	for i := range bills {
		if bills[i].SeriesID != nil && *bills[i].SeriesID == seriesID {
			return &bills[i], nil
		}
	}
	return nil, nil
}

func (s *fakeBillStore) ListPaidSince(ctx context.Context, userID int64, since string) ([]models.Bill, error) {
	return s.List(ctx, userID, models.BillFilter{From: since, Statuses: []models.BillStatus{models.BillPaid}})
}

func (s *fakeBillStore) ListUpcoming(ctx context.Context, userID int64, until string) ([]models.Bill, error) {
	return s.List(ctx, userID, models.BillFilter{
		To:       until,
		Statuses: []models.BillStatus{models.BillPredicted, models.BillDue},
	})
}

func (s *fakeBillStore) Insert(_ context.Context, b *models.Bill) error {
	s.nextID++
	b.ID = s.nextID
	s.items[b.ID] = *b
	return nil
}

func (s *fakeBillStore) Update(_ context.Context, b *models.Bill) error {
	if existing, ok := s.items[b.ID]; ok && existing.UserID == b.UserID {
		s.items[b.ID] = *b
	}
	return nil
}

type fakePaycheckStore struct {
	nextID int64
	items  map[int64]models.PaycheckHit
}

func newFakePaycheckStore() *fakePaycheckStore {
	return &fakePaycheckStore{items: map[int64]models.PaycheckHit{}}
}

func (s *fakePaycheckStore) Insert(_ context.Context, p *models.PaycheckHit) error {
	s.nextID++
	p.ID = s.nextID
	s.items[p.ID] = *p
	return nil
}

func (s *fakePaycheckStore) SetTxRef(_ context.Context, userID, id int64, txRef string) error {
	if item, ok := s.items[id]; ok && item.UserID == userID {
		item.TxRef = &txRef
		s.items[id] = item
	}
	return nil
}

func (s *fakePaycheckStore) ListSince(_ context.Context, userID int64, since string) ([]models.PaycheckHit, error) {
	var out []models.PaycheckHit
	for _, item := range s.items {
		if item.UserID == userID && item.Date >= since {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type fakeTransactionStore struct {
	nextID int64
	items  map[int64]models.LedgerTransaction
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{items: map[int64]models.LedgerTransaction{}}
}

func (s *fakeTransactionStore) GetByID(_ context.Context, userID, id int64) (*models.LedgerTransaction, error) {
	item, ok := s.items[id]
	if !ok || item.UserID != userID {
		return nil, nil
	}
	out := item
	return &out, nil
}

func (s *fakeTransactionStore) GetByExternalID(_ context.Context, userID int64, externalID string) (*models.LedgerTransaction, error) {
	for _, item := range s.items {
		if item.UserID == userID && item.ExternalID != nil && *item.ExternalID == externalID {
			out := item
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeTransactionStore) FindByMatchedBill(_ context.Context, userID, billID int64) (*models.LedgerTransaction, error) {
	for _, item := range s.items {
		if item.UserID == userID && item.MatchedBillID != nil && *item.MatchedBillID == billID {
			out := item
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeTransactionStore) FindByMatchedPaycheck(_ context.Context, userID, paycheckID int64) (*models.LedgerTransaction, error) {
	for _, item := range s.items {
		if item.UserID == userID && item.MatchedPaycheckID != nil && *item.MatchedPaycheckID == paycheckID {
			out := item
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeTransactionStore) ListSince(_ context.Context, userID int64, since string) ([]models.LedgerTransaction, error) {
	var out []models.LedgerTransaction
	for _, item := range s.items {
		if item.UserID == userID && item.Date >= since {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeTransactionStore) Insert(_ context.Context, t *models.LedgerTransaction) error {
	s.nextID++
	t.ID = s.nextID
	s.items[t.ID] = *t
	return nil
}

func (s *fakeTransactionStore) SetMatchRefs(_ context.Context, userID, txID int64, refs models.MatchRefs) error {
	item, ok := s.items[txID]
	if !ok || item.UserID != userID {
		return nil
	}
	if refs.BillID != nil {
		item.MatchedBillID = refs.BillID
	}
	if refs.PaycheckID != nil {
		item.MatchedPaycheckID = refs.PaycheckID
	}
	if refs.SeriesID != nil {
		item.MatchedSeriesID = refs.SeriesID
	}
	conf := refs.Confidence
	item.MatchConfidence = &conf
	s.items[txID] = item
	return nil
}

// Shorthand builders used across the service tests.

func ptrInt64(v int64) *int64     { return &v }
func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }
