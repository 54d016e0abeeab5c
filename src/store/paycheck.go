package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/recurro/backend/src/models"
)

// NewStores wires all repositories over one database handle.
func NewStores(db *sql.DB) (*SeriesRepo, *BillRepo, *PaycheckRepo, *TransactionRepo) {
	return &SeriesRepo{DB: db}, &BillRepo{DB: db}, &PaycheckRepo{DB: db}, &TransactionRepo{DB: db}
}

// PaycheckRepo persists realized paycheck rows.
type PaycheckRepo struct {
	DB *sql.DB
}

const paycheckColumns = `id, user_id, series_id, amount, date, account_id, employer_name, tx_ref`

func scanPaycheck(row interface{ Scan(...any) error }) (*models.PaycheckHit, error) {
	var p models.PaycheckHit
	err := row.Scan(&p.ID, &p.UserID, &p.SeriesID, &p.Amount, &p.Date,
		&p.AccountID, &p.EmployerName, &p.TxRef)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert stores a new paycheck hit and fills in its id.
func (r *PaycheckRepo) Insert(ctx context.Context, p *models.PaycheckHit) error {
	res, err := r.DB.ExecContext(ctx, `
	INSERT INTO paycheck_hits (user_id, series_id, amount, date, account_id, employer_name, tx_ref)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.SeriesID, p.Amount, p.Date, p.AccountID, p.EmployerName, p.TxRef)
	if err != nil {
		return fmt.Errorf("inserting paycheck: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// SetTxRef repairs the linkage of an existing hit. Paychecks are otherwise
// immutable once created.
func (r *PaycheckRepo) SetTxRef(ctx context.Context, userID, id int64, txRef string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE paycheck_hits SET tx_ref = ? WHERE user_id = ? AND id = ?`, txRef, userID, id)
	if err != nil {
		return fmt.Errorf("linking paycheck %d: %w", id, err)
	}
	return nil
}

// ListSince returns the owner's hits with date >= since, newest first.
func (r *PaycheckRepo) ListSince(ctx context.Context, userID int64, since string) ([]models.PaycheckHit, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT `+paycheckColumns+` FROM paycheck_hits
	WHERE user_id = ? AND date >= ?
	ORDER BY date DESC, id DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("listing paychecks: %w", err)
	}
	defer rows.Close()

	var out []models.PaycheckHit
	for rows.Next() {
		p, err := scanPaycheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paycheck: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
