package models

// Leaderboard ranges.
const (
	RangeAll   = "all"
	RangeWeek  = "week"
	RangeMonth = "month"
)

func ValidLeaderboardRange(r string) bool {
	switch r {
	case RangeAll, RangeWeek, RangeMonth:
		return true
	}
	return false
}

// Badge labels. Rank badges win over threshold badges.
const (
	BadgeGold     = "Gold Contributor"
	BadgeSilver   = "Silver Contributor"
	BadgeBronze   = "Bronze Contributor"
	BadgeExpert   = "Expert"
	BadgeVeteran  = "Veteran"
	BadgeHelper   = "Helper"
	BadgeNewcomer = "Newcomer"
)

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
	Answers     int    `json:"answers"`
	Questions   int    `json:"questions"`
	Rank        int    `json:"rank"`
	Badge       string `json:"badge"`
}

// BadgeFor classifies a leaderboard entry. Pure function of rank and the
// user's lifetime reputation and answer count; no stored state.
func BadgeFor(rank, reputation, answers int) string {
	switch rank {
	case 1:
		return BadgeGold
	case 2:
		return BadgeSilver
	case 3:
		return BadgeBronze
	}
	if reputation >= 1000 {
		return BadgeExpert
	}
	if reputation >= 500 {
		return BadgeVeteran
	}
	if answers >= 50 {
		return BadgeHelper
	}
	return BadgeNewcomer
}
