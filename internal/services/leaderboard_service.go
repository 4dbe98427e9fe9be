package services

import (
	"errors"
	"sort"
	"time"

	"github.com/askaway/backend/internal/models"
)

var ErrInvalidRange = errors.New("invalid leaderboard range")

type LeaderboardService interface {
	// Rank returns up to limit entries ordered by score descending.
	// range=all scores by live reputation; week/month score by the sum of
	// reputation ledger deltas inside the window, which measures period
	// activity, not reputation as of the cutoff.
	Rank(rangeKey string, limit int) ([]models.LeaderboardEntry, error)
}

// rangeCutoff returns the window start, or nil for the all-time range.
func rangeCutoff(rangeKey string, now time.Time) (*time.Time, error) {
	switch rangeKey {
	case models.RangeAll:
		return nil, nil
	case models.RangeWeek:
		t := now.Add(-7 * 24 * time.Hour)
		return &t, nil
	case models.RangeMonth:
		t := now.Add(-30 * 24 * time.Hour)
		return &t, nil
	default:
		return nil, ErrInvalidRange
	}
}

// MemoryLeaderboardService ranks over the in-memory user and content stores.
type MemoryLeaderboardService struct {
	users   *MemoryUserService
	content ContentService
}

func NewMemoryLeaderboardService(users *MemoryUserService, content ContentService) *MemoryLeaderboardService {
	return &MemoryLeaderboardService{users: users, content: content}
}

func (s *MemoryLeaderboardService) Rank(rangeKey string, limit int) ([]models.LeaderboardEntry, error) {
	cutoff, err := rangeCutoff(rangeKey, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	candidates := s.users.rankingUsers()

	type scored struct {
		user  *models.User
		score int
	}
	all := make([]scored, 0, len(candidates))
	for _, u := range candidates {
		score := u.Reputation
		if cutoff != nil {
			score = s.users.reputationSince(u.ID, *cutoff)
		}
		all = append(all, scored{user: u, score: score})
	}

	// Sort the full eligible population before truncating: windowed scores
	// cannot be pre-truncated by the live counter. Ties break by user ID.
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].user.ID < all[j].user.ID
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]models.LeaderboardEntry, 0, len(all))
	for i, sc := range all {
		questions, answers, err := s.content.CountByAuthor(sc.user.ID, cutoff)
		if err != nil {
			return nil, err
		}
		rank := i + 1
		out = append(out, models.LeaderboardEntry{
			UserID:      sc.user.ID,
			DisplayName: sc.user.DisplayName,
			Score:       sc.score,
			Answers:     answers,
			Questions:   questions,
			Rank:        rank,
			Badge:       models.BadgeFor(rank, sc.user.Reputation, answers),
		})
	}
	return out, nil
}
