package models

import "time"

// Bet is append-only. BetFinish marks the bet that exhausted the team's
// tokens for the round; every team having such a bet is the signal that the
// betting stage is complete.
type Bet struct {
	ID          int  `json:"id" db:"id"`
	TeamID      int  `json:"team_id" db:"team_id"`
	BetOnTeamID int  `json:"bet_on_team_id" db:"bet_on_team_id"`
	OddsID      int  `json:"odds_id" db:"odds_id"`
	RoundID     int  `json:"round_id" db:"round_id"`
	BetFinish   bool `json:"bet_finish" db:"bet_finish"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
