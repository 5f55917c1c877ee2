package models

type RankingEntry struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// Ranking is sorted by points descending, username ascending.
type Ranking []RankingEntry

// StageScore is a user's bets and summed points in one stage.
type StageScore struct {
	Stage  Stage `json:"stage"`
	Bets   []Bet `json:"bets"`
	Points int   `json:"points"`
}

type Profile struct {
	User        *User        `json:"user"`
	Position    *int         `json:"position"`
	TotalPoints int          `json:"total_points"`
	Stages      []StageScore `json:"stages"`
}
