package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/recurro/backend/src/models"
)

// SeriesRepo persists recurring series rows.
type SeriesRepo struct {
	DB *sql.DB
}

const seriesColumns = `id, user_id, kind, name, merchant, cadence, day_of_month, weekday, amount_hint, active, next_due, last_seen`

func scanSeries(row interface{ Scan(...any) error }) (*models.RecurringSeries, error) {
	var s models.RecurringSeries
	var merchant sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.Kind, &s.Name, &merchant, &s.Cadence,
		&s.DayOfMonth, &s.Weekday, &s.AmountHint, &s.Active, &s.NextDue, &s.LastSeen)
	if err != nil {
		return nil, err
	}
	s.Merchant = merchant.String
	return &s, nil
}

// GetByID returns the series owned by userID, or (nil, nil) when absent.
func (r *SeriesRepo) GetByID(ctx context.Context, userID, id int64) (*models.RecurringSeries, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+seriesColumns+` FROM recurring_series WHERE user_id = ? AND id = ?`, userID, id)
	s, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying series %d: %w", id, err)
	}
	return s, nil
}

// List returns the owner's series matching the filter, name-ordered.
func (r *SeriesRepo) List(ctx context.Context, userID int64, f models.SeriesFilter) ([]models.RecurringSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM recurring_series WHERE user_id = ?`
	args := []any{userID}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	if f.Active != nil {
		query += ` AND active = ?`
		args = append(args, *f.Active)
	}
	if f.Query != "" {
		query += ` AND (LOWER(name) LIKE ? OR LOWER(IFNULL(merchant,'')) LIKE ?)`
		needle := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, needle, needle)
	}
	query += ` ORDER BY name COLLATE NOCASE ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}
	defer rows.Close()

	var out []models.RecurringSeries
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning series: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Insert stores a new series and fills in its id.
func (r *SeriesRepo) Insert(ctx context.Context, s *models.RecurringSeries) error {
	res, err := r.DB.ExecContext(ctx, `
	INSERT INTO recurring_series (user_id, kind, name, merchant, cadence, day_of_month, weekday, amount_hint, active, next_due, last_seen)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.Kind, s.Name, nullStr(s.Merchant), s.Cadence,
		s.DayOfMonth, s.Weekday, s.AmountHint, s.Active, s.NextDue, s.LastSeen)
	if err != nil {
		return fmt.Errorf("inserting series: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// Update rewrites all mutable columns of an owned series.
func (r *SeriesRepo) Update(ctx context.Context, s *models.RecurringSeries) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE recurring_series
	SET kind = ?, name = ?, merchant = ?, cadence = ?, day_of_month = ?, weekday = ?,
	    amount_hint = ?, active = ?, next_due = ?, last_seen = ?
	WHERE user_id = ? AND id = ?`,
		s.Kind, s.Name, nullStr(s.Merchant), s.Cadence, s.DayOfMonth, s.Weekday,
		s.AmountHint, s.Active, s.NextDue, s.LastSeen, s.UserID, s.ID)
	if err != nil {
		return fmt.Errorf("updating series %d: %w", s.ID, err)
	}
	return nil
}

// Delete removes the series and nulls the weak references held by dependent
// bills, paychecks and ledger rows. Dependents are detached, never deleted.
// Each statement stands alone; a failure mid-way leaves earlier detaches in
// place, which is safe because they are individually valid end states.
func (r *SeriesRepo) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM recurring_series WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("deleting series %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	detaches := []string{
		`UPDATE bills SET series_id = NULL WHERE user_id = ? AND series_id = ?`,
		`UPDATE paycheck_hits SET series_id = NULL WHERE user_id = ? AND series_id = ?`,
		`UPDATE transactions SET matched_series_id = NULL WHERE user_id = ? AND matched_series_id = ?`,
	}
	for _, stmt := range detaches {
		if _, err := r.DB.ExecContext(ctx, stmt, userID, id); err != nil {
			return true, fmt.Errorf("detaching dependents of series %d: %w", id, err)
		}
	}
	return true, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
