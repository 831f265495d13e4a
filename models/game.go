package models

import "time"

// Game is a single head-to-head contest between two teams within a round.
// Win == nil while the game is unplayed; true means Team1 won.
type Game struct {
	ID       int     `json:"id" db:"id"`
	RoundID  int     `json:"round_id" db:"round_id"`
	Team1ID  int     `json:"team1_id" db:"team1_id"`
	Team2ID  int     `json:"team2_id" db:"team2_id"`
	Location *string `json:"location,omitempty" db:"location"`
	Win      *bool   `json:"win,omitempty" db:"win"`
	Finished bool    `json:"finished" db:"finished"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (g *Game) Involves(teamID int) bool {
	return g.Team1ID == teamID || g.Team2ID == teamID
}

// OpponentOf returns the other participant of the game.
func (g *Game) OpponentOf(teamID int) (int, bool) {
	switch teamID {
	case g.Team1ID:
		return g.Team2ID, true
	case g.Team2ID:
		return g.Team1ID, true
	}
	return 0, false
}

// WinnerID returns the winning team of a finished game.
func (g *Game) WinnerID() (int, bool) {
	if !g.Finished || g.Win == nil {
		return 0, false
	}
	if *g.Win {
		return g.Team1ID, true
	}
	return g.Team2ID, true
}

// LoserID returns the losing team of a finished game.
func (g *Game) LoserID() (int, bool) {
	winner, ok := g.WinnerID()
	if !ok {
		return 0, false
	}
	opponent, _ := g.OpponentOf(winner)
	return opponent, true
}
