package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBets(t *testing.T) {
	// Teams 1-4; team 2 took first, team 3 second.
	bets := []BetRecord{
		{BettorTeamID: 1, BackedTeamID: 2, Odd1: 4, Odd2: 3},  // pays 4
		{BettorTeamID: 1, BackedTeamID: 3, Odd1: 10, Odd2: 7}, // pays 7
		{BettorTeamID: 4, BackedTeamID: 2, Odd1: 4, Odd2: 3},  // pays 4
		{BettorTeamID: 4, BackedTeamID: 4, Odd1: 31, Odd2: 22}, // pays nothing
		{BettorTeamID: 2, BackedTeamID: 1, Odd1: 6, Odd2: 4},  // pays nothing
	}

	scores := ScoreBets(bets, 2, 3, []int{1, 2, 3, 4})
	require.Len(t, scores, 4)

	assert.Equal(t, TeamScore{TeamID: 1, FirstPoints: 4, SecondPoints: 7, Total: 11}, scores[0])
	assert.Equal(t, TeamScore{TeamID: 4, FirstPoints: 4, SecondPoints: 0, Total: 4}, scores[1])
	// Zero totals keep their place in the table, ordered by team ID.
	assert.Equal(t, TeamScore{TeamID: 2, Total: 0}, scores[2])
	assert.Equal(t, TeamScore{TeamID: 3, Total: 0}, scores[3])
}

func TestScoreBetsTieBrokenByTeamID(t *testing.T) {
	bets := []BetRecord{
		{BettorTeamID: 5, BackedTeamID: 1, Odd1: 8, Odd2: 5},
		{BettorTeamID: 3, BackedTeamID: 1, Odd1: 8, Odd2: 5},
	}
	scores := ScoreBets(bets, 1, 2, []int{3, 5})
	require.Len(t, scores, 2)
	assert.Equal(t, 3, scores[0].TeamID)
	assert.Equal(t, 5, scores[1].TeamID)
	assert.Equal(t, scores[0].Total, scores[1].Total)
}

func TestScoreBetsSameBackerBothPlaces(t *testing.T) {
	// Backing the same team for both places pays both quotes if it takes
	// either spot; here the backed team took first only.
	bets := []BetRecord{
		{BettorTeamID: 1, BackedTeamID: 2, Odd1: 4, Odd2: 3},
		{BettorTeamID: 1, BackedTeamID: 2, Odd1: 4, Odd2: 3},
	}
	scores := ScoreBets(bets, 2, 9, []int{1})
	require.Len(t, scores, 1)
	assert.Equal(t, 8.0, scores[0].FirstPoints)
	assert.Equal(t, 0.0, scores[0].SecondPoints)
}
