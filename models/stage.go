package models

import "time"

// Stage представляет этап турнира, на матчи которого принимаются прогнозы.
// Прогнозы принимаются до Deadline; после него открываются результаты.
type Stage struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Deadline  time.Time `json:"deadline" db:"deadline"`
	Public    bool      `json:"public" db:"public"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}

// ExpiredAt reports whether the betting deadline has passed at the given instant.
func (s Stage) ExpiredAt(now time.Time) bool {
	return now.After(s.Deadline)
}

func (s Stage) Expired() bool {
	return s.ExpiredAt(time.Now())
}

// StageAction is what a user is sent to when opening a stage.
type StageAction string

const (
	StageActionEdit    StageAction = "edit"
	StageActionBet     StageAction = "bet"
	StageActionResults StageAction = "results"
)

// NextActionAt mirrors the stage lifecycle: unpublished stages are still being
// edited, open stages take bets, expired stages show everybody's results.
func (s Stage) NextActionAt(now time.Time) StageAction {
	if !s.Public {
		return StageActionEdit
	}
	if s.ExpiredAt(now) {
		return StageActionResults
	}
	return StageActionBet
}
