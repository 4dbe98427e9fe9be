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

type AnswerHandler struct {
	contentService      services.ContentService
	userService         services.UserService
	notificationService services.NotificationService
}

func NewAnswerHandler(contentService services.ContentService, userService services.UserService, notificationService services.NotificationService) *AnswerHandler {
	return &AnswerHandler{
		contentService:      contentService,
		userService:         userService,
		notificationService: notificationService,
	}
}

func (h *AnswerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionId")

	var req models.CreateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	answer, err := h.contentService.CreateAnswer(questionID, userID, &req)
	if err != nil {
		if err == services.ErrQuestionNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
			return
		}
		log.Printf("[CreateAnswer] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create answer"))
		return
	}

	// Tell the question author. Never fails the answer itself.
	if question, qerr := h.contentService.GetQuestion(questionID); qerr == nil && question.AuthorID != userID {
		notifyErr := h.notificationService.Create(&models.Notification{
			RecipientID: question.AuthorID,
			ActorID:     userID,
			Type:        models.NotifyAnswer,
			ContentType: models.ContentQuestion,
			ContentID:   questionID,
			Message:     "Your question received a new answer",
		})
		if notifyErr != nil {
			log.Printf("[CreateAnswer] Failed to create notification: %v", notifyErr)
		}
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(answer))
}

func (h *AnswerHandler) List(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	answers, err := h.contentService.ListAnswers(questionID)
	if err != nil {
		if err == services.ErrQuestionNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list answers"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(answers))
}

func (h *AnswerHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == models.RoleAdmin
	answerID := chi.URLParam(r, "answerId")

	var req models.UpdateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	answer, err := h.contentService.UpdateAnswer(userID, isAdmin, answerID, &req)
	if err != nil {
		switch err {
		case services.ErrAnswerNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Answer not found"))
		case services.ErrNotContentOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to update this answer"))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update answer"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(answer))
}

func (h *AnswerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == models.RoleAdmin
	answerID := chi.URLParam(r, "answerId")

	if err := h.contentService.DeleteAnswer(userID, isAdmin, answerID); err != nil {
		switch err {
		case services.ErrAnswerNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Answer not found"))
		case services.ErrNotContentOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to delete this answer"))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete answer"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Answer deleted"}))
}

func (h *AnswerHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	answerID := chi.URLParam(r, "answerId")

	answer, prevAuthor, err := h.contentService.AcceptAnswer(userID, answerID)
	if err != nil {
		switch err {
		case services.ErrAnswerNotFound, services.ErrQuestionNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Answer not found"))
		case services.ErrNotContentOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Only the question author can accept an answer"))
		default:
			log.Printf("[AcceptAnswer] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to accept answer"))
		}
		return
	}

	// Move the acceptance award with the acceptance.
	if prevAuthor != "" && prevAuthor != answer.AuthorID {
		if repErr := h.userService.ApplyReputationDelta(prevAuthor, -services.RepAnswerAccepted, "answer acceptance withdrawn"); repErr != nil {
			log.Printf("[AcceptAnswer] Failed to reverse reputation for %s: %v", prevAuthor, repErr)
		}
	}
	if prevAuthor != answer.AuthorID {
		if repErr := h.userService.ApplyReputationDelta(answer.AuthorID, services.RepAnswerAccepted, "answer accepted"); repErr != nil {
			log.Printf("[AcceptAnswer] Failed to apply reputation for %s: %v", answer.AuthorID, repErr)
		}
	}

	if answer.AuthorID != userID {
		notifyErr := h.notificationService.Create(&models.Notification{
			RecipientID: answer.AuthorID,
			ActorID:     userID,
			Type:        models.NotifyAccept,
			ContentType: models.ContentAnswer,
			ContentID:   answer.ID,
			Message:     "Your answer was accepted",
		})
		if notifyErr != nil {
			log.Printf("[AcceptAnswer] Failed to create notification: %v", notifyErr)
		}
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(answer))
}
