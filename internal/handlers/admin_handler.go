package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

// AdminHandler serves the moderation queue, ban management, and the
// analytics summary. All routes behind it require the admin role.
type AdminHandler struct {
	moderationService *services.ModerationService
	userService       services.UserService
	contentService    services.ContentService
	flagService       services.FlagService
}

func NewAdminHandler(moderationService *services.ModerationService, userService services.UserService, contentService services.ContentService, flagService services.FlagService) *AdminHandler {
	return &AdminHandler{
		moderationService: moderationService,
		userService:       userService,
		contentService:    contentService,
		flagService:       flagService,
	}
}

func (h *AdminHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidFlagStatus(status) {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid flag status"))
		return
	}

	flags, err := h.moderationService.ListFlags(status)
	if err != nil {
		log.Printf("[ListFlags] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list flags"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(flags))
}

func (h *AdminHandler) ModerateFlag(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	flagID := chi.URLParam(r, "flagId")

	var req models.ModerateFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	flag, err := h.moderationService.Moderate(adminID, flagID, req.Action, req.Status)
	if err != nil {
		switch err {
		case services.ErrFlagNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Flag not found"))
		case services.ErrFlagFinalized:
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Flag has already been moderated"))
		case services.ErrInvalidModerationAction:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid moderation action"))
		case services.ErrSelfBan:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot ban yourself"))
		case services.ErrCannotBanAdmin:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot ban an admin"))
		default:
			log.Printf("[ModerateFlag] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to moderate flag"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(flag))
}

func (h *AdminHandler) DeleteFlag(w http.ResponseWriter, r *http.Request) {
	flagID := chi.URLParam(r, "flagId")

	if err := h.moderationService.DeleteFlag(flagID); err != nil {
		if err == services.ErrFlagNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Flag not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete flag"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Flag deleted"}))
}

func (h *AdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userId")

	var req models.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	user, err := h.userService.Ban(adminID, targetID, req.Reason)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("User not found"))
		case services.ErrSelfBan:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot ban yourself"))
		case services.ErrCannotBanAdmin:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot ban an admin"))
		case services.ErrBanReasonRequired:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Ban reason is required"))
		default:
			log.Printf("[BanUser] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to ban user"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(user))
}

func (h *AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userId")

	user, err := h.userService.Unban(targetID)
	if err != nil {
		if err == services.ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("User not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to unban user"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(user))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	totalUsers, bannedUsers, err := h.userService.CountUsers()
	if err != nil {
		log.Printf("[AdminStats] User counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load stats"))
		return
	}

	questions, answers, err := h.contentService.Stats()
	if err != nil {
		log.Printf("[AdminStats] Content counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load stats"))
		return
	}

	pendingFlags, err := h.flagService.CountByStatus(models.FlagPending)
	if err != nil {
		log.Printf("[AdminStats] Flag counts: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load stats"))
		return
	}

	topTags, err := h.contentService.TopTags(10)
	if err != nil {
		log.Printf("[AdminStats] Top tags: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load stats"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AdminStats{
		Users:        totalUsers,
		BannedUsers:  bannedUsers,
		Questions:    questions,
		Answers:      answers,
		PendingFlags: pendingFlags,
		TopTags:      topTags,
	}))
}
