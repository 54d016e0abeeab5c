package handlers

import (
	"errors"
	"net/http"

	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, not-found 404, anything else a dependency failure 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	default:
		utils.SendJSONError(w, "internal error: "+err.Error(), http.StatusInternalServerError)
	}
}
