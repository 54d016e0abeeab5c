package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/recurro/backend/src/utils"
)

// parsePathID reads the {id} path segment as an int64.
func parsePathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// amountPtr converts a flexible JSON amount into the optional float the
// service layer takes, nil when the client omitted it.
func amountPtr(a utils.FlexAmount) *float64 {
	if !a.Set {
		return nil
	}
	f := a.Float64()
	return &f
}

// queryInt reads an optional integer query parameter, falling back to zero
// so the service layer applies its own default.
func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
