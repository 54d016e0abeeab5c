package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/patrickmn/go-cache"

	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/utils"
)

type ReconcileHandler struct {
	reconciler *services.Reconciler
	backfill   *services.BackfillJob
	cache      *cache.Cache
}

func NewReconcileHandler(reconciler *services.Reconciler, backfill *services.BackfillJob, c *cache.Cache) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler, backfill: backfill, cache: c}
}

type matchBillRequest struct {
	TxID     string           `json:"txId"`
	Amount   utils.FlexAmount `json:"amount"`
	Date     string           `json:"date"`
	SeriesID *int64           `json:"seriesId"`
	Name     string           `json:"name"`
	Merchant string           `json:"merchant"`
	Currency string           `json:"currency"`
}

func (h *ReconcileHandler) MatchBillHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req matchBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.reconciler.MatchBill(r.Context(), userID, services.MatchBillInput{
		TxID:     req.TxID,
		Amount:   amountPtr(req.Amount),
		Date:     req.Date,
		SeriesID: req.SeriesID,
		Name:     req.Name,
		Merchant: req.Merchant,
		Currency: req.Currency,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]any{
		"ok":            true,
		"bill":          result.Bill,
		"transactionId": result.TransactionID,
	}, http.StatusOK)
}

type matchPaycheckRequest struct {
	TxID         string           `json:"txId"`
	Amount       utils.FlexAmount `json:"amount"`
	Date         string           `json:"date"`
	SeriesID     *int64           `json:"seriesId"`
	AccountID    *string          `json:"accountId"`
	EmployerName *string          `json:"employerName"`
}

func (h *ReconcileHandler) MatchPaycheckHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req matchPaycheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.reconciler.MatchPaycheck(r.Context(), userID, services.MatchPaycheckInput{
		TxID:         req.TxID,
		Amount:       amountPtr(req.Amount),
		Date:         req.Date,
		SeriesID:     req.SeriesID,
		AccountID:    req.AccountID,
		EmployerName: req.EmployerName,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]any{
		"ok":            true,
		"hit":           result.Paycheck,
		"transactionId": result.TransactionID,
	}, http.StatusOK)
}

func (h *ReconcileHandler) BackfillHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Days      int    `json:"days"`
		AccountID string `json:"accountId"`
	}
	// An empty body means defaults; a malformed one is still an error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.backfill.Run(r.Context(), userID, req.Days, req.AccountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]any{"summary": summary}, http.StatusOK)
}
