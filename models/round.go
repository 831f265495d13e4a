package models

import "time"

// Stage представляет стадии раунда, соответствующие ENUM в БД.
type Stage string

const (
	StageBetting          Stage = "betting"
	StageJoust            Stage = "joust"
	StageBonus            Stage = "bonus"
	StageFinal            Stage = "final"
	StageFinalMultipleTie Stage = "final-multiple-ties"
	StageFinished         Stage = "finished"
)

// Round is one stage-slice of tournament progress. A new row is created for
// every stage transition; existing rows are only ever mutated to flip Active.
// Exactly one round is active tournament-wide at any time.
type Round struct {
	ID     int   `json:"id" db:"id"`
	Number int   `json:"number" db:"number"`
	Stage  Stage `json:"stage" db:"stage"`
	Active bool  `json:"active" db:"active"`

	// Заполняются только на терминальных стадиях (finished / final-multiple-ties).
	FirstPlaceTeamID  *int `json:"first_place_team_id,omitempty" db:"first_place_team_id"`
	SecondPlaceTeamID *int `json:"second_place_team_id,omitempty" db:"second_place_team_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether no further stage transitions are possible from
// this round without administrative intervention.
func (r *Round) Terminal() bool {
	return r.Stage == StageFinished
}
