package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func firstRoundTeams(ids ...int) []PairingTeam {
	teams := make([]PairingTeam, 0, len(ids))
	for _, id := range ids {
		teams = append(teams, PairingTeam{TeamID: id})
	}
	return teams
}

func collectTeamIDs(result *PairingResult) map[int]int {
	seen := make(map[int]int)
	for _, pair := range result.Pairs {
		seen[pair.Team1ID]++
		seen[pair.Team2ID]++
	}
	for _, id := range result.Byes {
		seen[id]++
	}
	return seen
}

func TestPairRoundFirstRoundPlacesEveryTeamOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	teams := firstRoundTeams(1, 2, 3, 4, 5, 6, 7, 8)
	locations := []string{"castle", "village", "forest", "river"}

	result, err := PairRound(teams, locations, true, rng)
	require.NoError(t, err)

	assert.Len(t, result.Pairs, 4)
	assert.Empty(t, result.Byes)
	assert.Equal(t, locations, result.Locations)

	seen := collectTeamIDs(result)
	require.Len(t, seen, 8)
	for id, count := range seen {
		assert.Equal(t, 1, count, "team %d placed %d times", id, count)
	}
	for _, pair := range result.Pairs {
		assert.NotEqual(t, pair.Team1ID, pair.Team2ID)
	}
}

func TestPairRoundLadderMovesWinnersUpLosersDown(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	locations := []string{"castle", "village", "forest"}
	// Four teams use two locations. Winners climb toward the front of the
	// list, losers slide back, clamped at both ends.
	teams := []PairingTeam{
		{TeamID: 1, PrevLocation: strPtr("castle"), PrevWon: boolPtr(true)},
		{TeamID: 2, PrevLocation: strPtr("castle"), PrevWon: boolPtr(false)},
		{TeamID: 3, PrevLocation: strPtr("village"), PrevWon: boolPtr(true)},
		{TeamID: 4, PrevLocation: strPtr("village"), PrevWon: boolPtr(false)},
	}

	result, err := PairRound(teams, locations, false, rng)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 2)
	assert.Empty(t, result.Byes)

	byLocation := make(map[string][]int)
	for _, pair := range result.Pairs {
		byLocation[pair.Location] = append(byLocation[pair.Location], pair.Team1ID, pair.Team2ID)
	}
	// Both winners meet at the first location, both losers at the second.
	assert.ElementsMatch(t, []int{1, 3}, byLocation["castle"])
	assert.ElementsMatch(t, []int{2, 4}, byLocation["village"])
}

func TestPairRoundSelectedLocationHonorsCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	locations := []string{"castle", "village", "forest"}
	// Three teams claim the forest but only two fit; the third spills over.
	teams := []PairingTeam{
		{TeamID: 1, SelectedLocation: strPtr("forest")},
		{TeamID: 2, SelectedLocation: strPtr("forest")},
		{TeamID: 3, SelectedLocation: strPtr("forest")},
		{TeamID: 4},
		{TeamID: 5},
		{TeamID: 6},
	}

	result, err := PairRound(teams, locations, false, rng)
	require.NoError(t, err)
	assert.Empty(t, result.Byes)

	byLocation := make(map[string][]int)
	for _, pair := range result.Pairs {
		byLocation[pair.Location] = append(byLocation[pair.Location], pair.Team1ID, pair.Team2ID)
	}
	assert.ElementsMatch(t, []int{1, 2}, byLocation["forest"])

	seen := collectTeamIDs(result)
	require.Len(t, seen, 6)
	for id, count := range seen {
		assert.Equal(t, 1, count, "team %d placed %d times", id, count)
	}
}

func TestPairRoundOddTeamOutGetsBye(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	teams := firstRoundTeams(1, 2, 3)

	result, err := PairRound(teams, []string{"castle", "village"}, true, rng)
	require.NoError(t, err)

	assert.Len(t, result.Pairs, 1)
	assert.Len(t, result.Byes, 1)

	seen := collectTeamIDs(result)
	require.Len(t, seen, 3)
}

func TestPairRoundAdjacentOddLeftoversBorrow(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	locations := []string{"castle", "village"}
	// Three land at the first location, one at the second; borrowing evens
	// the buckets out so nobody sits idle.
	teams := []PairingTeam{
		{TeamID: 1, PrevLocation: strPtr("castle"), PrevWon: boolPtr(true)},
		{TeamID: 2, PrevLocation: strPtr("castle"), PrevWon: boolPtr(true)},
		{TeamID: 3, PrevLocation: strPtr("village"), PrevWon: boolPtr(true)},
		{TeamID: 4, PrevLocation: strPtr("castle"), PrevWon: boolPtr(false)},
	}

	result, err := PairRound(teams, locations, false, rng)
	require.NoError(t, err)
	assert.Len(t, result.Pairs, 2)
	assert.Empty(t, result.Byes)
}

func TestPairRoundConfigurationErrors(t *testing.T) {
	teams := firstRoundTeams(1, 2, 3, 4)

	_, err := PairRound(teams, []string{"castle"}, true, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidPairing)

	_, err = PairRound(teams, []string{"castle", "village"}, true, nil)
	assert.ErrorIs(t, err, ErrInvalidPairing)
}
