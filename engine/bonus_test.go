package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/joust-league/models"
)

func intPtr(i int) *int { return &i }

func TestBonusEligible(t *testing.T) {
	tests := []struct {
		name       string
		won        bool
		distance   int
		lossStreak int
		want       bool
	}{
		{"winner on milestone", true, 3, 0, true},
		{"winner on later milestone", true, 6, 0, true},
		{"winner off milestone", true, 4, 0, false},
		{"winner at the start line", true, 0, 0, false},
		{"loser with full home streak", false, 2, 3, true},
		{"loser with short streak", false, 2, 2, false},
		{"loser on milestone distance", false, 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BonusEligible(tt.won, tt.distance, tt.lossStreak))
		})
	}
}

func TestParseEffect(t *testing.T) {
	t.Run("unknown effect", func(t *testing.T) {
		_, err := ParseEffect("teleport", nil, nil)
		assert.ErrorIs(t, err, ErrUnknownEffect)
	})

	t.Run("distance effect requires target", func(t *testing.T) {
		_, err := ParseEffect("plus_distance", nil, nil)
		assert.ErrorIs(t, err, ErrEffectTargetRequired)
	})

	t.Run("select_location requires location", func(t *testing.T) {
		_, err := ParseEffect("select_location", nil, nil)
		assert.ErrorIs(t, err, ErrEffectTargetRequired)
	})

	t.Run("decline needs nothing", func(t *testing.T) {
		effect, err := ParseEffect("decline", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, models.BonusDecline, effect.Kind)
	})

	t.Run("minus_distance carries target", func(t *testing.T) {
		effect, err := ParseEffect("minus_distance", intPtr(4), nil)
		require.NoError(t, err)
		assert.Equal(t, models.BonusMinusDistance, effect.Kind)
		assert.Equal(t, 4, effect.TargetTeamID)
	})
}

func TestResolveEffect(t *testing.T) {
	const finishDistance = 12

	t.Run("extra bet grants token to acting team", func(t *testing.T) {
		effect := Effect{Kind: models.BonusExtraBet}
		outcome, err := ResolveEffect(effect, 7, nil, finishDistance)
		require.NoError(t, err)
		require.NotNil(t, outcome.GrantTokenTeamID)
		assert.Equal(t, 7, *outcome.GrantTokenTeamID)
		assert.Empty(t, outcome.DistanceDelta)
	})

	t.Run("decline changes nothing", func(t *testing.T) {
		outcome, err := ResolveEffect(Effect{Kind: models.BonusDecline}, 7, nil, finishDistance)
		require.NoError(t, err)
		assert.Nil(t, outcome.GrantTokenTeamID)
		assert.Empty(t, outcome.DistanceDelta)
	})

	t.Run("plus_distance refused one step from the finish", func(t *testing.T) {
		target := &models.Team{ID: 2, Identifier: "t2", Distance: finishDistance - 1}
		_, err := ResolveEffect(Effect{Kind: models.BonusPlusDistance, TargetTeamID: 2}, 7, target, finishDistance)
		assert.ErrorIs(t, err, ErrTargetMustFinishSelf)
	})

	t.Run("plus_distance moves target forward", func(t *testing.T) {
		target := &models.Team{ID: 2, Identifier: "t2", Distance: 4}
		outcome, err := ResolveEffect(Effect{Kind: models.BonusPlusDistance, TargetTeamID: 2}, 7, target, finishDistance)
		require.NoError(t, err)
		assert.Equal(t, map[int]int{2: 1}, outcome.DistanceDelta)
	})

	t.Run("minus_distance refused at the start line", func(t *testing.T) {
		target := &models.Team{ID: 2, Identifier: "t2", Distance: 0}
		_, err := ResolveEffect(Effect{Kind: models.BonusMinusDistance, TargetTeamID: 2}, 7, target, finishDistance)
		assert.ErrorIs(t, err, ErrTargetAtStart)
	})

	t.Run("minus_distance moves target back", func(t *testing.T) {
		target := &models.Team{ID: 2, Identifier: "t2", Distance: 5}
		outcome, err := ResolveEffect(Effect{Kind: models.BonusMinusDistance, TargetTeamID: 2}, 7, target, finishDistance)
		require.NoError(t, err)
		assert.Equal(t, map[int]int{2: -1}, outcome.DistanceDelta)
	})

	t.Run("select_location claims location", func(t *testing.T) {
		outcome, err := ResolveEffect(Effect{Kind: models.BonusSelectLocation, Location: "forest"}, 7, nil, finishDistance)
		require.NoError(t, err)
		require.NotNil(t, outcome.SelectedLocation)
		assert.Equal(t, "forest", *outcome.SelectedLocation)
	})
}
