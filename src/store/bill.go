package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/recurro/backend/src/models"
)

// BillRepo persists bill rows.
type BillRepo struct {
	DB *sql.DB
}

const billColumns = `id, user_id, series_id, name, merchant, amount, currency, due_date, status, paid_at, tx_ref`

func scanBill(row interface{ Scan(...any) error }) (*models.Bill, error) {
	var b models.Bill
	var merchant sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.SeriesID, &b.Name, &merchant, &b.Amount,
		&b.Currency, &b.DueDate, &b.Status, &b.PaidAt, &b.TxRef)
	if err != nil {
		return nil, err
	}
	b.Merchant = merchant.String
	return &b, nil
}

// GetByID returns the bill owned by userID, or (nil, nil) when absent.
func (r *BillRepo) GetByID(ctx context.Context, userID, id int64) (*models.Bill, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = ? AND id = ?`, userID, id)
	b, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying bill %d: %w", id, err)
	}
	return b, nil
}

// List returns the owner's bills matching the filter, due date ascending.
func (r *BillRepo) List(ctx context.Context, userID int64, f models.BillFilter) ([]models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE user_id = ?`
	args := []any{userID}
	if f.From != "" {
		query += ` AND due_date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND due_date <= ?`
		args = append(args, f.To)
	}
	if len(f.Statuses) > 0 {
		placeholders := strings.Repeat("?,", len(f.Statuses))
		query += ` AND status IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.Query != "" {
		query += ` AND (LOWER(name) LIKE ? OR LOWER(IFNULL(merchant,'')) LIKE ?)`
		needle := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, needle, needle)
	}
	if f.AccountID != "" {
		// Bills carry no account; filter through the linked ledger row.
		query += ` AND tx_ref IN (SELECT CAST(id AS TEXT) FROM transactions WHERE user_id = ? AND account_id = ?)`
		args = append(args, userID, f.AccountID)
	}
	query += ` ORDER BY due_date ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	defer rows.Close()

	var out []models.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// FindOpenNear returns the first due-or-predicted bill of the series whose
// due date falls inside [from, to], ordered by due date. This is the
// nearest-candidate search of the matching tolerance window: the first
// structurally matching record wins, not the nearest in time.
func (r *BillRepo) FindOpenNear(ctx context.Context, userID, seriesID int64, from, to string) (*models.Bill, error) {
	row := r.DB.QueryRowContext(ctx, `
	SELECT `+billColumns+` FROM bills
	WHERE user_id = ? AND series_id = ? AND status IN ('due', 'predicted')
	  AND due_date >= ? AND due_date <= ?
	ORDER BY due_date ASC, id ASC LIMIT 1`,
		userID, seriesID, from, to)
	b, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("searching open bills for series %d: %w", seriesID, err)
	}
	return b, nil
}

// ListPaidSince returns the owner's paid bills with due date >= since.
func (r *BillRepo) ListPaidSince(ctx context.Context, userID int64, since string) ([]models.Bill, error) {
	return r.List(ctx, userID, models.BillFilter{From: since, Statuses: []models.BillStatus{models.BillPaid}})
}

// ListUpcoming returns due and predicted bills with due date <= until.
func (r *BillRepo) ListUpcoming(ctx context.Context, userID int64, until string) ([]models.Bill, error) {
	return r.List(ctx, userID, models.BillFilter{
		To:       until,
		Statuses: []models.BillStatus{models.BillPredicted, models.BillDue},
	})
}

// Insert stores a new bill and fills in its id.
func (r *BillRepo) Insert(ctx context.Context, b *models.Bill) error {
	res, err := r.DB.ExecContext(ctx, `
	INSERT INTO bills (user_id, series_id, name, merchant, amount, currency, due_date, status, paid_at, tx_ref)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.SeriesID, b.Name, nullStr(b.Merchant), b.Amount, b.Currency,
		b.DueDate, b.Status, b.PaidAt, b.TxRef)
	if err != nil {
		return fmt.Errorf("inserting bill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// Update rewrites all mutable columns of an owned bill.
func (r *BillRepo) Update(ctx context.Context, b *models.Bill) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE bills
	SET series_id = ?, name = ?, merchant = ?, amount = ?, currency = ?,
	    due_date = ?, status = ?, paid_at = ?, tx_ref = ?
	WHERE user_id = ? AND id = ?`,
		b.SeriesID, b.Name, nullStr(b.Merchant), b.Amount, b.Currency,
		b.DueDate, b.Status, b.PaidAt, b.TxRef, b.UserID, b.ID)
	if err != nil {
		return fmt.Errorf("updating bill %d: %w", b.ID, err)
	}
	return nil
}
