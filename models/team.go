package models

import "time"

// Team представляет команду турнира. Distance и BetsAvailable изменяются
// только сервисами турнира, бонусов и подсчёта ставок.
type Team struct {
	ID            int    `json:"id" db:"id"`
	Identifier    string `json:"identifier" db:"identifier"`
	Name          string `json:"name" db:"name"`
	Description   string `json:"description" db:"description"`
	Distance      int    `json:"distance" db:"distance"`
	BetsAvailable int    `json:"bets_available" db:"bets_available"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	EmblemKey *string `json:"-" db:"emblem_key"`
	EmblemURL *string `json:"emblem_url,omitempty" db:"-"`
}
