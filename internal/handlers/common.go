package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// contentRefFromURL builds the content reference from {contentType}/{contentId}
// route params, validating the type tag.
func contentRefFromURL(r *http.Request) (models.ContentRef, error) {
	t, err := models.ParseContentType(chi.URLParam(r, "contentType"))
	if err != nil {
		return models.ContentRef{}, err
	}
	return models.ContentRef{Type: t, ID: chi.URLParam(r, "contentId")}, nil
}
