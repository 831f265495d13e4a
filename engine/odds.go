package engine

import "math"

// OddsPair holds the two quotes offered on a team for the next betting
// round: Odd1 backs the team for 1st place, Odd2 for 2nd.
type OddsPair struct {
	Odd1 float64
	Odd2 float64
}

// OddsStrategy maps current standings to per-team quotes, index-aligned with
// the input slice.
type OddsStrategy interface {
	Compute(distances []int, finishDistance int) []OddsPair
	Name() string
}

// LeaderZeroOdds is the production pricing model. The leading team is not
// bettable (0, 0) and everyone else is priced on a quadratic curve over its
// relative position in the field: teams further behind pay out more.
type LeaderZeroOdds struct{}

func NewLeaderZeroOdds() OddsStrategy {
	return LeaderZeroOdds{}
}

func (LeaderZeroOdds) Name() string { return "LeaderZero" }

func (LeaderZeroOdds) Compute(distances []int, finishDistance int) []OddsPair {
	return ComputeOdds(distances, finishDistance)
}

// ComputeOdds prices the field for one betting round.
//
// When the whole field is tied every team gets the default (2, 1) pair
// except the last input position, which gets (0, 0). The rule is kept from
// the original pricing table; tying it to input order makes it deterministic.
// A single-team field falls through to the positional formula instead and is
// priced as the furthest-back team, never zeroed out.
func ComputeOdds(distances []int, finishDistance int) []OddsPair {
	if len(distances) == 0 {
		return []OddsPair{}
	}

	maxDistance := distances[0]
	minDistance := distances[0]
	for _, d := range distances[1:] {
		if d > maxDistance {
			maxDistance = d
		}
		if d < minDistance {
			minDistance = d
		}
	}

	if maxDistance == minDistance && len(distances) > 1 {
		results := make([]OddsPair, len(distances))
		for i := range results {
			if i < len(distances)-1 {
				results[i] = OddsPair{Odd1: 2, Odd2: 1}
			} else {
				results[i] = OddsPair{Odd1: 0, Odd2: 0}
			}
		}
		return results
	}

	distanceRange := float64(maxDistance - minDistance)

	results := make([]OddsPair, 0, len(distances))
	for _, distance := range distances {
		if distance == maxDistance && len(distances) > 1 {
			// The leader is already near winning, no quote on it.
			results = append(results, OddsPair{})
			continue
		}

		relativePosition := 0.0
		if distanceRange > 0 {
			relativePosition = float64(distance-minDistance) / distanceRange
		}

		// 0 = closest to the leader, 1 = furthest back.
		positionFactor := 1 - relativePosition

		base := 3.0 + positionFactor*positionFactor*28.0

		odd1 := math.Round(math.Max(0, base))
		odd2 := math.Round(math.Max(0, odd1*0.7))

		results = append(results, OddsPair{Odd1: odd1, Odd2: odd2})
	}

	return results
}

// SmoothNormalizedOdds is the earlier pricing model, kept as an alternate
// strategy: quotes scale with the remaining distance to the finish instead
// of the spread of the field, so the curve flattens as the race progresses.
// Nobody is zeroed out, including the leader.
type SmoothNormalizedOdds struct{}

func NewSmoothNormalizedOdds() OddsStrategy {
	return SmoothNormalizedOdds{}
}

func (SmoothNormalizedOdds) Name() string { return "SmoothNormalized" }

func (SmoothNormalizedOdds) Compute(distances []int, finishDistance int) []OddsPair {
	if len(distances) == 0 {
		return []OddsPair{}
	}
	if finishDistance <= 0 {
		finishDistance = 1
	}

	results := make([]OddsPair, 0, len(distances))
	for _, distance := range distances {
		remaining := finishDistance - distance
		if remaining < 0 {
			remaining = 0
		}
		progress := 1 - float64(remaining)/float64(finishDistance)

		base := 2.0 + (1-progress)*(1-progress)*10.0

		odd1 := math.Round(math.Max(1, base))
		odd2 := math.Round(math.Max(1, odd1*0.7))
		results = append(results, OddsPair{Odd1: odd1, Odd2: odd2})
	}
	return results
}
