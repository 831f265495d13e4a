package models

import "time"

// BonusEffect перечисляет допустимые эффекты бонуса. Свободные строки от
// клиента валидируются на границе сервиса (engine.ParseEffect).
type BonusEffect string

const (
	BonusExtraBet       BonusEffect = "extra_bet"
	BonusPlusDistance   BonusEffect = "plus_distance"
	BonusMinusDistance  BonusEffect = "minus_distance"
	BonusSelectLocation BonusEffect = "select_location"
	BonusDecline        BonusEffect = "decline"
)

// Bonus is created for every team in every bonus round. Teams that did not
// earn one get a row that is already finished, so a pending bonus never
// blocks round advancement for the rest of the field. A pending bonus is
// mutated exactly once, when it is consumed or declined.
type Bonus struct {
	ID          int          `json:"id" db:"id"`
	RoundID     int          `json:"round_id" db:"round_id"`
	TeamID      int          `json:"team_id" db:"team_id"`
	Finished    bool         `json:"finished" db:"finished"`
	Description string       `json:"description" db:"description"`
	BonusType   *BonusEffect `json:"bonus_type,omitempty" db:"bonus_type"`
	// Team identifier for distance effects, location name for select_location.
	BonusTarget *string `json:"bonus_target,omitempty" db:"bonus_target"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
