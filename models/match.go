package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrResultUndefined is returned when the result of a match without a final
// score is requested. Callers must check IsFinished first.
var ErrResultUndefined = errors.New("match result is not defined yet")

type Outcome string

const (
	OutcomeHomeWin Outcome = "home"
	OutcomeAwayWin Outcome = "away"
	OutcomeDraw    Outcome = "draw"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeHomeWin, OutcomeAwayWin, OutcomeDraw:
		return true
	}
	return false
}

// Match: матч этапа. Счет заполняется организатором после окончания матча.
type Match struct {
	ID        int        `json:"id" db:"id"`
	StageID   *int       `json:"stage_id,omitempty" db:"stage_id"`
	KickoffAt *time.Time `json:"kickoff_at,omitempty" db:"kickoff_at"`
	Home      string     `json:"home" db:"home"`
	Away      string     `json:"away" db:"away"`
	GoalsHome *int       `json:"goals_home,omitempty" db:"goals_home"`
	GoalsAway *int       `json:"goals_away,omitempty" db:"goals_away"`

	HomeName string `json:"home_name,omitempty" db:"-"`
	AwayName string `json:"away_name,omitempty" db:"-"`
}

// IsFinished is based on the entered score only, never on the clock.
func (m Match) IsFinished() bool {
	return m.GoalsHome != nil && m.GoalsAway != nil
}

func (m Match) Result() (Outcome, error) {
	if !m.IsFinished() {
		return "", fmt.Errorf("match %d: %w", m.ID, ErrResultUndefined)
	}
	switch {
	case *m.GoalsHome > *m.GoalsAway:
		return OutcomeHomeWin, nil
	case *m.GoalsHome < *m.GoalsAway:
		return OutcomeAwayWin, nil
	default:
		return OutcomeDraw, nil
	}
}

// EstimatedEnd returns kickoff plus the given duration, or false when the
// kickoff time is unknown.
func (m Match) EstimatedEnd(duration time.Duration) (time.Time, bool) {
	if m.KickoffAt == nil {
		return time.Time{}, false
	}
	return m.KickoffAt.Add(duration), true
}

func (m Match) String() string {
	if m.IsFinished() {
		return fmt.Sprintf("%s %d - %d %s", m.Home, *m.GoalsHome, *m.GoalsAway, m.Away)
	}
	return fmt.Sprintf("%s - %s", m.Home, m.Away)
}
