package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/patrickmn/go-cache"

	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/utils"
)

type SeriesHandler struct {
	service *services.SeriesService
	cache   *cache.Cache
}

func NewSeriesHandler(service *services.SeriesService, c *cache.Cache) *SeriesHandler {
	return &SeriesHandler{service: service, cache: c}
}

func (h *SeriesHandler) ListSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	filter := models.SeriesFilter{
		Kind:  r.URL.Query().Get("kind"),
		Query: r.URL.Query().Get("q"),
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			utils.SendJSONError(w, "active must be true or false", http.StatusBadRequest)
			return
		}
		filter.Active = &active
	}

	series, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.SendJSON(w, series, http.StatusOK)
}

type upsertSeriesRequest struct {
	ID         *int64           `json:"id"`
	Kind       string           `json:"kind"`
	Name       string           `json:"name"`
	Merchant   string           `json:"merchant"`
	Cadence    string           `json:"cadence"`
	DayOfMonth *int             `json:"dayOfMonth"`
	Weekday    *int             `json:"weekday"`
	AmountHint utils.FlexAmount `json:"amountHint"`
	Active     *bool            `json:"active"`
	NextDue    *string          `json:"nextDue"`
}

func (h *SeriesHandler) UpsertSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req upsertSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	series, err := h.service.Upsert(r.Context(), userID, services.UpsertSeriesInput{
		ID:         req.ID,
		Kind:       req.Kind,
		Name:       req.Name,
		Merchant:   req.Merchant,
		Cadence:    req.Cadence,
		DayOfMonth: req.DayOfMonth,
		Weekday:    req.Weekday,
		AmountHint: amountPtr(req.AmountHint),
		Active:     req.Active,
		NextDue:    req.NextDue,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	invalidateOverview(h.cache, userID)
	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	utils.SendJSON(w, series, status)
}

func (h *SeriesHandler) DeleteSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id, ok := parsePathID(r)
	if !ok {
		utils.SendJSONError(w, "invalid series id", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

func (h *SeriesHandler) SnoozeSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id, ok := parsePathID(r)
	if !ok {
		utils.SendJSONError(w, "invalid series id", http.StatusBadRequest)
		return
	}

	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	series, err := h.service.Snooze(r.Context(), userID, id, req.Days)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, map[string]any{"ok": true, "series": series}, http.StatusOK)
}
