package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type VoteHandler struct {
	contentService      services.ContentService
	userService         services.UserService
	notificationService services.NotificationService
}

func NewVoteHandler(contentService services.ContentService, userService services.UserService, notificationService services.NotificationService) *VoteHandler {
	return &VoteHandler{
		contentService:      contentService,
		userService:         userService,
		notificationService: notificationService,
	}
}

// Vote handles POST /api/content/{contentType}/{contentId}/vote. Casting the
// same vote again removes it; casting the opposite vote switches it.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	ref, err := contentRefFromURL(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid content type"))
		return
	}

	var req models.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	voteType, err := models.ParseVoteType(req.VoteType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Vote type must be 'upvote' or 'downvote'"))
		return
	}

	result, err := h.contentService.Vote(ref, userID, voteType)
	if err != nil {
		switch err {
		case services.ErrContentNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Content not found"))
		case services.ErrSelfVote:
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot vote on your own content"))
		default:
			log.Printf("[Vote] Service error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to record vote"))
		}
		return
	}

	if result.AuthorDelta != 0 {
		reason := "upvote received"
		if voteType == models.VoteDown {
			reason = "downvote received"
		}
		if result.Removed {
			reason = "vote removed"
		} else if result.Switched {
			reason = "vote switched"
		}
		if repErr := h.userService.ApplyReputationDelta(result.AuthorID, result.AuthorDelta, reason); repErr != nil {
			log.Printf("[Vote] Failed to apply reputation for %s: %v", result.AuthorID, repErr)
		}
	}

	notifyErr := h.notificationService.Create(&models.Notification{
		RecipientID: result.AuthorID,
		ActorID:     userID,
		Type:        models.NotifyVote,
		ContentType: ref.Type,
		ContentID:   ref.ID,
		Message:     voteMessage(ref.Type, voteType, result.Removed),
	})
	if notifyErr != nil {
		log.Printf("[Vote] Failed to create notification: %v", notifyErr)
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}

func voteMessage(contentType models.ContentType, voteType models.VoteType, removed bool) string {
	noun := "question"
	if contentType == models.ContentAnswer {
		noun = "answer"
	}
	if removed {
		return "A vote on your " + noun + " was removed"
	}
	if voteType == models.VoteDown {
		return "Your " + noun + " received a downvote"
	}
	return "Your " + noun + " received an upvote"
}
