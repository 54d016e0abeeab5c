package models

// PaycheckHit is a single realized income event. Paychecks are never
// predicted individually; only their series carries a projected next due
// date. Immutable once created except for linkage repair.
type PaycheckHit struct {
	ID           int64   `json:"id"`
	UserID       int64   `json:"-"`
	SeriesID     *int64  `json:"seriesId,omitempty"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	AccountID    *string `json:"accountId,omitempty"`
	EmployerName *string `json:"employerName,omitempty"`
	TxRef        *string `json:"transactionId,omitempty"`
}
