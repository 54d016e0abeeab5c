package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/utils"
)

type BillHandler struct {
	service *services.BillService
	cache   *cache.Cache
}

func NewBillHandler(service *services.BillService, c *cache.Cache) *BillHandler {
	return &BillHandler{service: service, cache: c}
}

func (h *BillHandler) ListBillsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := models.BillFilter{
		From:      q.Get("from"),
		To:        q.Get("to"),
		Query:     q.Get("q"),
		AccountID: q.Get("accountId"),
	}
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				filter.Statuses = append(filter.Statuses, models.BillStatus(s))
			}
		}
	}

	bills, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.SendJSON(w, bills, http.StatusOK)
}

type createBillRequest struct {
	SeriesID *int64           `json:"seriesId"`
	Name     string           `json:"name"`
	Merchant string           `json:"merchant"`
	Amount   utils.FlexAmount `json:"amount"`
	Currency string           `json:"currency"`
	DueDate  string           `json:"dueDate"`
}

func (h *BillHandler) CreateBillHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := h.service.Create(r.Context(), userID, services.CreateBillInput{
		SeriesID: req.SeriesID,
		Name:     req.Name,
		Merchant: req.Merchant,
		Amount:   amountPtr(req.Amount),
		Currency: req.Currency,
		DueDate:  req.DueDate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, bill, http.StatusCreated)
}

type markBillRequest struct {
	Status string           `json:"status"`
	TxID   *string          `json:"txId"`
	Amount utils.FlexAmount `json:"amount"`
	PaidAt string           `json:"paidAt"`
}

func (h *BillHandler) MarkBillHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id, ok := parsePathID(r)
	if !ok {
		utils.SendJSONError(w, "invalid bill id", http.StatusBadRequest)
		return
	}

	var req markBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := h.service.Mark(r.Context(), userID, id, services.MarkInput{
		Status: req.Status,
		TxID:   req.TxID,
		Amount: amountPtr(req.Amount),
		PaidAt: req.PaidAt,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]any{"ok": true, "bill": bill}, http.StatusOK)
}

func (h *BillHandler) SnoozeBillHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id, ok := parsePathID(r)
	if !ok {
		utils.SendJSONError(w, "invalid bill id", http.StatusBadRequest)
		return
	}

	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bill, err := h.service.Snooze(r.Context(), userID, id, req.Days)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]any{"ok": true, "bill": bill}, http.StatusOK)
}
