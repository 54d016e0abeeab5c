package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/recurro/backend/src/models"
)

// TransactionRepo reads and writes ledger transaction rows. The ledger is
// owned by the accounting subsystem; this repo is the engine's only path to
// it, and match back-references are the only columns the engine mutates on
// existing rows.
type TransactionRepo struct {
	DB *sql.DB
}

const txColumns = `id, user_id, amount, date, type, category, source, external_id, account_id, description,
	matched_bill_id, matched_paycheck_id, matched_series_id, match_confidence`

func scanTx(row interface{ Scan(...any) error }) (*models.LedgerTransaction, error) {
	var t models.LedgerTransaction
	var category, description sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Date, &t.Type, &category, &t.Source,
		&t.ExternalID, &t.AccountID, &description,
		&t.MatchedBillID, &t.MatchedPaycheckID, &t.MatchedSeriesID, &t.MatchConfidence)
	if err != nil {
		return nil, err
	}
	t.Category = category.String
	t.Description = description.String
	return &t, nil
}

func (r *TransactionRepo) getOne(ctx context.Context, query string, args ...any) (*models.LedgerTransaction, error) {
	row := r.DB.QueryRowContext(ctx, query, args...)
	t, err := scanTx(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying transaction: %w", err)
	}
	return t, nil
}

// GetByID returns the owner's transaction with this id, or (nil, nil).
func (r *TransactionRepo) GetByID(ctx context.Context, userID, id int64) (*models.LedgerTransaction, error) {
	return r.getOne(ctx, `SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
}

// GetByExternalID returns the owner's transaction carrying this
// external-origin id, or (nil, nil).
func (r *TransactionRepo) GetByExternalID(ctx context.Context, userID int64, externalID string) (*models.LedgerTransaction, error) {
	return r.getOne(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND external_id = ? ORDER BY id ASC LIMIT 1`,
		userID, externalID)
}

// FindByMatchedBill returns the transaction back-referencing this bill, or (nil, nil).
func (r *TransactionRepo) FindByMatchedBill(ctx context.Context, userID, billID int64) (*models.LedgerTransaction, error) {
	return r.getOne(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND matched_bill_id = ? ORDER BY id ASC LIMIT 1`,
		userID, billID)
}

// FindByMatchedPaycheck returns the transaction back-referencing this paycheck, or (nil, nil).
func (r *TransactionRepo) FindByMatchedPaycheck(ctx context.Context, userID, paycheckID int64) (*models.LedgerTransaction, error) {
	return r.getOne(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? AND matched_paycheck_id = ? ORDER BY id ASC LIMIT 1`,
		userID, paycheckID)
}

// ListSince returns the owner's transactions with date >= since, oldest
// first. This is the query handle handed to the pattern-mining detector.
func (r *TransactionRepo) ListSince(ctx context.Context, userID int64, since string) ([]models.LedgerTransaction, error) {
	rows, err := r.DB.QueryContext(ctx, `
	SELECT `+txColumns+` FROM transactions
	WHERE user_id = ? AND date >= ?
	ORDER BY date ASC, id ASC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerTransaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Insert stores a new ledger transaction and fills in its id.
func (r *TransactionRepo) Insert(ctx context.Context, t *models.LedgerTransaction) error {
	res, err := r.DB.ExecContext(ctx, `
	INSERT INTO transactions (user_id, amount, date, type, category, source, external_id, account_id, description,
		matched_bill_id, matched_paycheck_id, matched_series_id, match_confidence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount, t.Date, t.Type, nullStr(t.Category), t.Source,
		t.ExternalID, t.AccountID, nullStr(t.Description),
		t.MatchedBillID, t.MatchedPaycheckID, t.MatchedSeriesID, t.MatchConfidence)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// SetMatchRefs writes the match back-references onto an owned transaction.
// Nil fields leave the stored reference in place, so matching a bill onto a
// row already matched to a paycheck never drops the paycheck link.
func (r *TransactionRepo) SetMatchRefs(ctx context.Context, userID, txID int64, refs models.MatchRefs) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE transactions
	SET matched_bill_id = COALESCE(?, matched_bill_id),
	    matched_paycheck_id = COALESCE(?, matched_paycheck_id),
	    matched_series_id = COALESCE(?, matched_series_id),
	    match_confidence = ?
	WHERE user_id = ? AND id = ?`,
		refs.BillID, refs.PaycheckID, refs.SeriesID, refs.Confidence, userID, txID)
	if err != nil {
		return fmt.Errorf("writing match refs on transaction %d: %w", txID, err)
	}
	return nil
}
