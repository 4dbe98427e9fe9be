package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type FlagHandler struct {
	moderationService *services.ModerationService
}

func NewFlagHandler(moderationService *services.ModerationService) *FlagHandler {
	return &FlagHandler{moderationService: moderationService}
}

// Create handles POST /api/content/{contentType}/{contentId}/flag.
func (h *FlagHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ref, err := contentRefFromURL(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid content type"))
		return
	}

	var req models.CreateFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	flag, err := h.moderationService.CreateFlag(ref, userID, req.Reason)
	if err != nil {
		switch err {
		case services.ErrContentNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Content not found"))
		case services.ErrDuplicateFlag:
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("You have already flagged this content"))
		case services.ErrInvalidReason:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid flag reason"))
		default:
			log.Printf("[CreateFlag] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create flag"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(flag))
}
