package scoring

import (
	"fmt"

	"github.com/Dosada05/prode/models"
)

const (
	// WinnerPoints are awarded for guessing the winner or the draw.
	WinnerPoints = 1
	// ExactScorePoints are awarded for guessing both goal counts.
	ExactScorePoints = 3
)

// Points returns what a bet earned on its match: 0, 1, 3 or 4.
// The match must be finished, otherwise models.ErrResultUndefined is returned.
func Points(bet models.Bet, match models.Match) (int, error) {
	result, err := match.Result()
	if err != nil {
		return 0, fmt.Errorf("scoring bet %d: %w", bet.ID, err)
	}

	points := 0
	if bet.Winner == result {
		points += WinnerPoints
	}
	if bet.GoalsHome == *match.GoalsHome && bet.GoalsAway == *match.GoalsAway {
		points += ExactScorePoints
	}
	return points, nil
}

// Earned is Points for bets that may sit on unfinished matches: those count 0.
// A bet without its match attached also counts 0.
func Earned(bet models.Bet) int {
	if bet.Match == nil || !bet.Match.IsFinished() {
		return 0
	}
	points, err := Points(bet, *bet.Match)
	if err != nil {
		return 0
	}
	return points
}
