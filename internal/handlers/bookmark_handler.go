package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type BookmarkHandler struct {
	bookmarkService     services.BookmarkService
	contentService      services.ContentService
	notificationService services.NotificationService
}

func NewBookmarkHandler(bookmarkService services.BookmarkService, contentService services.ContentService, notificationService services.NotificationService) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarkService:     bookmarkService,
		contentService:      contentService,
		notificationService: notificationService,
	}
}

func (h *BookmarkHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionId")

	bookmark, err := h.bookmarkService.Add(userID, questionID)
	if err != nil {
		switch err {
		case services.ErrQuestionNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
		case services.ErrAlreadyBookmarked:
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Question already bookmarked"))
		default:
			log.Printf("[AddBookmark] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to add bookmark"))
		}
		return
	}

	if question, qerr := h.contentService.GetQuestion(questionID); qerr == nil && question.AuthorID != userID {
		notifyErr := h.notificationService.Create(&models.Notification{
			RecipientID: question.AuthorID,
			ActorID:     userID,
			Type:        models.NotifyBookmark,
			ContentType: models.ContentQuestion,
			ContentID:   questionID,
			Message:     "Your question was bookmarked",
		})
		if notifyErr != nil {
			log.Printf("[AddBookmark] Failed to create notification: %v", notifyErr)
		}
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(bookmark))
}

func (h *BookmarkHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionId")

	if err := h.bookmarkService.Remove(userID, questionID); err != nil {
		if err == services.ErrBookmarkNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Bookmark not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to remove bookmark"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Bookmark removed"}))
}

func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	bookmarks, err := h.bookmarkService.ListWithQuestions(userID)
	if err != nil {
		log.Printf("[ListBookmarks] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list bookmarks"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(bookmarks))
}
