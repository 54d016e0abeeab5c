package services

import (
	"context"
	"strings"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/utils"
)

// Snooze day shifts are clamped into this range.
const (
	minSnoozeDays = 1
	maxSnoozeDays = 365
)

// SeriesService is the registry of recurring series: list, upsert, delete
// and snooze. It owns the cadence state of every series; dependents hold
// only weak references that deletion detaches.
type SeriesService struct {
	Series SeriesStore
}

func NewSeriesService(series SeriesStore) *SeriesService {
	return &SeriesService{Series: series}
}

// UpsertSeriesInput carries the caller-editable fields of a series. A nil ID
// creates; a non-nil ID updates the owned series with that id.
type UpsertSeriesInput struct {
	ID         *int64
	Kind       string
	Name       string
	Merchant   string
	Cadence    string
	DayOfMonth *int
	Weekday    *int
	AmountHint *float64
	Active     *bool
	NextDue    *string
}

func (s *SeriesService) List(ctx context.Context, userID int64, f models.SeriesFilter) ([]models.RecurringSeries, error) {
	if f.Kind != "" && !models.ValidSeriesKind(f.Kind) {
		return nil, validationf("unknown kind %q", f.Kind)
	}
	out, err := s.Series.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.RecurringSeries{}
	}
	return out, nil
}

// Upsert validates and creates or updates a series. Anchors are clamped
// rather than rejected: dayOfMonth into [1,28] so the calendar clamping rule
// downstream stays unambiguous, weekday into [0,6].
func (s *SeriesService) Upsert(ctx context.Context, userID int64, in UpsertSeriesInput) (*models.RecurringSeries, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	if !models.ValidSeriesKind(in.Kind) {
		return nil, validationf("unknown kind %q", in.Kind)
	}
	cad := in.Cadence
	if cad == "" {
		cad = string(models.CadenceUnknown)
	}
	if !models.ValidCadence(cad) {
		return nil, validationf("unknown cadence %q", cad)
	}
	if in.AmountHint != nil && *in.AmountHint < 0 {
		return nil, validationf("amountHint must not be negative")
	}
	if in.NextDue != nil && *in.NextDue != "" {
		if _, err := utils.ParseDate(*in.NextDue); err != nil {
			return nil, validationf("nextDue: %v", err)
		}
	}

	var series *models.RecurringSeries
	if in.ID != nil {
		existing, err := s.Series.GetByID(ctx, userID, *in.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, notFoundf("series %d", *in.ID)
		}
		series = existing
	} else {
		series = &models.RecurringSeries{UserID: userID, Active: true}
	}

	series.Kind = models.SeriesKind(in.Kind)
	series.Name = name
	series.Merchant = strings.TrimSpace(in.Merchant)
	series.Cadence = models.Cadence(cad)
	series.DayOfMonth = clampPtr(in.DayOfMonth, 1, 28)
	series.Weekday = clampPtr(in.Weekday, 0, 6)
	series.AmountHint = in.AmountHint
	if in.Active != nil {
		series.Active = *in.Active
	}
	if in.NextDue != nil {
		if *in.NextDue == "" {
			series.NextDue = nil
		} else {
			series.NextDue = in.NextDue
		}
	}

	if in.ID != nil {
		if err := s.Series.Update(ctx, series); err != nil {
			return nil, err
		}
		return series, nil
	}
	if err := s.Series.Insert(ctx, series); err != nil {
		return nil, err
	}
	return series, nil
}

// Delete removes a series. Dependent bills and paychecks are detached by the
// store, never cascaded.
func (s *SeriesService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.Series.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFoundf("series %d", id)
	}
	return nil
}

// Snooze shifts the series' nextDue forward by days, clamped to [1,365].
// The shift always bases off the current nextDue, defaulting to today when
// absent.
func (s *SeriesService) Snooze(ctx context.Context, userID, id int64, days int) (*models.RecurringSeries, error) {
	series, err := s.Series.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, notFoundf("series %d", id)
	}

	days = clampInt(days, minSnoozeDays, maxSnoozeDays)
	base := utils.Today()
	if series.NextDue != nil {
		if parsed, err := utils.ParseDate(*series.NextDue); err == nil {
			base = parsed
		}
	}
	next := utils.FormatDate(base.AddDate(0, 0, days))
	series.NextDue = &next

	if err := s.Series.Update(ctx, series); err != nil {
		return nil, err
	}
	return series, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampPtr(v *int, lo, hi int) *int {
	if v == nil {
		return nil
	}
	c := clampInt(*v, lo, hi)
	return &c
}
