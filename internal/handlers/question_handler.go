package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type QuestionHandler struct {
	contentService services.ContentService
	explainService *services.ExplainService
}

func NewQuestionHandler(contentService services.ContentService, explainService *services.ExplainService) *QuestionHandler {
	return &QuestionHandler{
		contentService: contentService,
		explainService: explainService,
	}
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	question, err := h.contentService.CreateQuestion(userID, &req)
	if err != nil {
		log.Printf("[CreateQuestion] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create question"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(question))
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	question, err := h.contentService.GetQuestion(questionID)
	if err != nil {
		if err == services.ErrQuestionNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to get question"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(question))
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	query := &models.ListQuestionsQuery{
		Search: r.URL.Query().Get("q"),
		Tag:    r.URL.Query().Get("tag"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		query.Limit = limit
	}

	questions, err := h.contentService.ListQuestions(query)
	if err != nil {
		log.Printf("[ListQuestions] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list questions"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(questions))
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == models.RoleAdmin
	questionID := chi.URLParam(r, "questionId")

	var req models.UpdateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	question, err := h.contentService.UpdateQuestion(userID, isAdmin, questionID, &req)
	if err != nil {
		switch err {
		case services.ErrQuestionNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
		case services.ErrNotContentOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to update this question"))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update question"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(question))
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetRole(r.Context()) == models.RoleAdmin
	questionID := chi.URLParam(r, "questionId")

	if err := h.contentService.DeleteQuestion(userID, isAdmin, questionID); err != nil {
		switch err {
		case services.ErrQuestionNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
		case services.ErrNotContentOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to delete this question"))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete question"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Question deleted"}))
}

func (h *QuestionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	question, err := h.contentService.RestoreQuestion(questionID)
	if err != nil {
		if err == services.ErrQuestionNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to restore question"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(question))
}

func (h *QuestionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID := chi.URLParam(r, "questionId")

	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	comment, err := h.contentService.AddComment(models.QuestionRef(questionID), userID, &req)
	if err != nil {
		if err == services.ErrContentNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to add comment"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(comment))
}

func (h *QuestionHandler) Explain(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionId")

	question, err := h.contentService.GetQuestion(questionID)
	if err != nil {
		if err == services.ErrQuestionNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Question not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to get question"))
		return
	}

	explanation, err := h.explainService.ExplainSimply(r.Context(), question)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Explanation is not available right now"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.ExplainResponse{
		QuestionID:  question.ID,
		Explanation: explanation,
	}))
}
