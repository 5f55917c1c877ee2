package scoring

import (
	"sort"

	"github.com/Dosada05/prode/models"
)

// StageFilter restricts aggregation to bets on the matches of one stage.
type StageFilter struct {
	stageID *int
}

// AllStages keeps every bet, including bets on matches without a stage.
func AllStages() StageFilter {
	return StageFilter{}
}

func OnlyStage(stageID int) StageFilter {
	return StageFilter{stageID: &stageID}
}

func (f StageFilter) keeps(bet models.Bet) bool {
	if f.stageID == nil {
		return true
	}
	if bet.Match == nil || bet.Match.StageID == nil {
		return false
	}
	return *bet.Match.StageID == *f.stageID
}

// Aggregate sums bet points per user and orders the result by points
// descending, then username ascending.
//
// Bets on unfinished matches add nothing but still put their author in the
// ranking with whatever else they earned, so a user whose only bets are still
// pending shows up with 0 points.
func Aggregate(bets []models.Bet, filter StageFilter) models.Ranking {
	totals := make(map[string]int)
	for _, bet := range bets {
		if !filter.keeps(bet) {
			continue
		}
		totals[bet.Username] += Earned(bet)
	}

	ranking := make(models.Ranking, 0, len(totals))
	for username, points := range totals {
		ranking = append(ranking, models.RankingEntry{Username: username, Points: points})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Points != ranking[j].Points {
			return ranking[i].Points > ranking[j].Points
		}
		return ranking[i].Username < ranking[j].Username
	})
	return ranking
}

// Position finds the 1-based place of username in the ranking.
// The second value is false when the user is not ranked at all.
func Position(ranking models.Ranking, username string) (int, bool) {
	for i, entry := range ranking {
		if entry.Username == username {
			return i + 1, true
		}
	}
	return 0, false
}

// Winners returns the usernames sharing the top score, in ranking order.
func Winners(ranking models.Ranking) []string {
	winners := make([]string, 0)
	if len(ranking) == 0 {
		return winners
	}
	top := ranking[0].Points
	for _, entry := range ranking {
		if entry.Points != top {
			break
		}
		winners = append(winners, entry.Username)
	}
	return winners
}

// Total sums the points of bets on finished matches only.
func Total(bets []models.Bet) int {
	total := 0
	for _, bet := range bets {
		total += Earned(bet)
	}
	return total
}
