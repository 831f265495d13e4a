package models

import "time"

// Odds holds the two betting quotes of a team for one betting round:
// Odd1 pays out when the backed team takes 1st place, Odd2 when it takes 2nd.
// Rows are created once per betting round per team and never updated, so a
// bet referencing the row freezes the quote at placement time.
type Odds struct {
	ID      int     `json:"id" db:"id"`
	RoundID int     `json:"round_id" db:"round_id"`
	TeamID  int     `json:"team_id" db:"team_id"`
	Odd1    float64 `json:"odd1" db:"odd1"`
	Odd2    float64 `json:"odd2" db:"odd2"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
