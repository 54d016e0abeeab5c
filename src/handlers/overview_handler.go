package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/username/recurro/backend/src/logger"
	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/utils"
)

type OverviewHandler struct {
	planner *services.Planner
	cache   *cache.Cache
}

func NewOverviewHandler(planner *services.Planner, c *cache.Cache) *OverviewHandler {
	return &OverviewHandler{planner: planner, cache: c}
}

type cachedOverview struct {
	overview *services.Overview
	etag     string
}

func overviewCachePrefix(userID int64) string {
	return "overview:" + strconv.FormatInt(userID, 10) + ":"
}

// invalidateOverview drops every cached overview variant of one owner. All
// mutating handlers call it so the forward view never serves stale totals
// within the cache TTL.
func invalidateOverview(c *cache.Cache, userID int64) {
	if c == nil {
		return
	}
	prefix := overviewCachePrefix(userID)
	for key := range c.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Delete(key)
		}
	}
}

func (h *OverviewHandler) GetOverviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	horizon := queryInt(r, "horizonDays")

	key := overviewCachePrefix(userID) + strconv.Itoa(horizon)
	var entry cachedOverview
	if cached, found := h.cache.Get(key); found {
		entry = cached.(cachedOverview)
	} else {
		overview, err := h.planner.Overview(r.Context(), userID, horizon)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		etag, err := utils.GenerateETag(overview)
		if err != nil {
			logger.L.Error("Failed to generate overview ETag", "userID", userID, "error", err)
			utils.SendJSONError(w, "internal error", http.StatusInternalServerError)
			return
		}
		entry = cachedOverview{overview: overview, etag: etag}
		h.cache.Set(key, entry, cache.DefaultExpiration)
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == entry.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", entry.etag)
	utils.SendJSON(w, entry.overview, http.StatusOK)
}
