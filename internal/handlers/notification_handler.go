package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	notifications, err := h.notificationService.ListByRecipient(userID, limit)
	if err != nil {
		log.Printf("[ListNotifications] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list notifications"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(notifications))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	notificationID := chi.URLParam(r, "notificationId")

	if err := h.notificationService.MarkRead(userID, notificationID); err != nil {
		if err == services.ErrNotificationNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Notification not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to mark notification read"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Notification marked read"}))
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to mark notifications read"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "All notifications marked read"}))
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to count notifications"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]int64{"unread": count}))
}
