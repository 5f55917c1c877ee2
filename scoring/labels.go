package scoring

import (
	"fmt"

	"github.com/Dosada05/prode/models"
)

type Choice struct {
	Value models.Outcome `json:"value"`
	Label string         `json:"label"`
}

// ChoiceLabels is what a bet form shows for one match: the three winner
// choices and the captions of the two goal fields.
type ChoiceLabels struct {
	Winner    []Choice `json:"winner"`
	GoalsHome string   `json:"goals_home"`
	GoalsAway string   `json:"goals_away"`
}

func Labels(home, away string) ChoiceLabels {
	return ChoiceLabels{
		Winner: []Choice{
			{Value: models.OutcomeDraw, Label: "Draw"},
			{Value: models.OutcomeHomeWin, Label: fmt.Sprintf("%s wins", home)},
			{Value: models.OutcomeAwayWin, Label: fmt.Sprintf("%s wins", away)},
		},
		GoalsHome: home,
		GoalsAway: away,
	}
}

// WinnerDisplay renders a bet's winner choice with the team name.
func WinnerDisplay(winner models.Outcome, home, away string) string {
	switch winner {
	case models.OutcomeHomeWin:
		return home
	case models.OutcomeAwayWin:
		return away
	default:
		return "Draw"
	}
}
