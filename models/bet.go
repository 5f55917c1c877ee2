package models

import "time"

// Bet: прогноз пользователя на матч: исход и точный счет, независимо друг от друга.
type Bet struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	Winner    Outcome   `json:"winner" db:"winner"`
	GoalsHome int       `json:"goals_home" db:"goals_home"`
	GoalsAway int       `json:"goals_away" db:"goals_away"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Username string `json:"username,omitempty" db:"-"`
	Match    *Match `json:"match,omitempty" db:"-"`
	Points   *int   `json:"points,omitempty" db:"-"`
}
