package engine

import (
	"errors"
	"fmt"

	"github.com/Dosada05/joust-league/models"
)

var (
	ErrUnknownEffect        = errors.New("unknown bonus effect")
	ErrEffectTargetRequired = errors.New("bonus effect requires a target")
	ErrTargetMustFinishSelf = errors.New("target team must reach the finish on its own")
	ErrTargetAtStart        = errors.New("target team is already at the start line")
)

// HomeLossStreak is how many consecutive losses at the home (first) location
// earn a compensation bonus.
const HomeLossStreak = 3

// distanceBonusEvery grants the progress bonus whenever a winner's new
// distance lands on a multiple of this step.
const distanceBonusEvery = 3

// BonusEligible reports whether a team earned an active bonus after a joust
// round: a reward for progress (won and the new distance sits on the bonus
// step) or compensation for a losing streak at the home location.
func BonusEligible(won bool, distance int, lossStreakAtHome int) bool {
	if won && distance > 0 && distance%distanceBonusEvery == 0 {
		return true
	}
	return lossStreakAtHome >= HomeLossStreak
}

// Effect is the validated form of a consumed bonus. The wire format is a
// free string plus optional targets; ParseEffect narrows it to this closed
// set before anything mutates state.
type Effect struct {
	Kind models.BonusEffect
	// Target team for plus_distance / minus_distance.
	TargetTeamID int
	// Target location for select_location.
	Location string
}

// ParseEffect validates a client-supplied bonus selection against the closed
// effect set.
func ParseEffect(kind string, targetTeamID *int, location *string) (Effect, error) {
	switch models.BonusEffect(kind) {
	case models.BonusExtraBet:
		return Effect{Kind: models.BonusExtraBet}, nil
	case models.BonusDecline:
		return Effect{Kind: models.BonusDecline}, nil
	case models.BonusPlusDistance, models.BonusMinusDistance:
		if targetTeamID == nil {
			return Effect{}, fmt.Errorf("%w: %s needs a target team", ErrEffectTargetRequired, kind)
		}
		return Effect{Kind: models.BonusEffect(kind), TargetTeamID: *targetTeamID}, nil
	case models.BonusSelectLocation:
		if location == nil || *location == "" {
			return Effect{}, fmt.Errorf("%w: select_location needs a location", ErrEffectTargetRequired)
		}
		return Effect{Kind: models.BonusSelectLocation, Location: *location}, nil
	}
	return Effect{}, fmt.Errorf("%w: %q", ErrUnknownEffect, kind)
}

// EffectOutcome describes the state changes a consumed bonus produces. The
// caller applies them; the engine only decides what they are.
type EffectOutcome struct {
	// Team granted one extra bet token.
	GrantTokenTeamID *int
	// Distance adjustment keyed by team ID (±1).
	DistanceDelta map[int]int
	// Location claimed for the next pairing.
	SelectedLocation *string
	// Human-readable record stored on the consumed bonus.
	Description string
}

// ResolveEffect checks the effect's preconditions against the target team
// and returns the mutations to apply. target may be nil for effects without
// a team target.
func ResolveEffect(effect Effect, actingTeamID int, target *models.Team, finishDistance int) (*EffectOutcome, error) {
	switch effect.Kind {
	case models.BonusExtraBet:
		id := actingTeamID
		return &EffectOutcome{
			GrantTokenTeamID: &id,
			Description:      "extra bet token granted",
		}, nil

	case models.BonusDecline:
		return &EffectOutcome{Description: "bonus declined"}, nil

	case models.BonusPlusDistance:
		if target == nil {
			return nil, ErrEffectTargetRequired
		}
		// A team one step from the finish must make the last move itself.
		if target.Distance == finishDistance-1 {
			return nil, fmt.Errorf("%w: team %s is one step from the finish", ErrTargetMustFinishSelf, target.Identifier)
		}
		return &EffectOutcome{
			DistanceDelta: map[int]int{target.ID: 1},
			Description:   fmt.Sprintf("moved %s one step forward", target.Name),
		}, nil

	case models.BonusMinusDistance:
		if target == nil {
			return nil, ErrEffectTargetRequired
		}
		if target.Distance <= 0 {
			return nil, fmt.Errorf("%w: team %s", ErrTargetAtStart, target.Identifier)
		}
		return &EffectOutcome{
			DistanceDelta: map[int]int{target.ID: -1},
			Description:   fmt.Sprintf("moved %s one step back", target.Name),
		}, nil

	case models.BonusSelectLocation:
		loc := effect.Location
		return &EffectOutcome{
			SelectedLocation: &loc,
			Description:      fmt.Sprintf("claimed location %s for the next round", loc),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, effect.Kind)
}
