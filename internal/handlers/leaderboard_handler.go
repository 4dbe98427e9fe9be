package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
	defaultLimit       int
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService, defaultLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService, defaultLimit: defaultLimit}
}

// Get handles GET /api/leaderboard?range=all|week|month&limit=N. Public.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = models.RangeAll
	}

	limit := h.defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	entries, err := h.leaderboardService.Rank(rangeKey, limit)
	if err != nil {
		if err == services.ErrInvalidRange {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Range must be one of: all, week, month"))
			return
		}
		log.Printf("[Leaderboard] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to build leaderboard"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(entries))
}
