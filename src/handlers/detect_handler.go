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

type DetectHandler struct {
	adapter *services.DetectionAdapter
	cache   *cache.Cache
}

func NewDetectHandler(adapter *services.DetectionAdapter, c *cache.Cache) *DetectHandler {
	return &DetectHandler{adapter: adapter, cache: c}
}

// DetectSeriesHandler runs pattern detection over the caller's ledger
// history and folds the candidates into the series registry.
func (h *DetectHandler) DetectSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		LookbackDays int `json:"lookbackDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.adapter.Run(r.Context(), userID, req.LookbackDays)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	invalidateOverview(h.cache, userID)
	utils.SendJSON(w, result, http.StatusOK)
}
