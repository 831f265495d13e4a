package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidPairing indicates a pairing-engine configuration fault. A
// location imbalance must never silently drop teams, so a round that cannot
// be paired aborts the transition instead.
var ErrInvalidPairing = errors.New("invalid pairing configuration")

// PairingTeam carries everything the pairing algorithm needs to place one
// team: the outcome and location of its previous joust match (nil when the
// team had none, e.g. it sat out on a bye) and an optional location picked
// through a select_location bonus, which overrides ladder movement.
type PairingTeam struct {
	TeamID           int
	PrevLocation     *string
	PrevWon          *bool
	SelectedLocation *string
}

type Pair struct {
	Team1ID  int
	Team2ID  int
	Location string
}

type PairingResult struct {
	Pairs []Pair
	// Teams left without an opponent this round. A bye is reported, not an error.
	Byes []int
	// The ordered location subset used for this round.
	Locations []string
}

// selectLocationCap bounds how many teams may claim the same location
// through select_location bonuses; overflow spills to the next location.
const selectLocationCap = 2

// PairRound assigns teams to locations and produces the head-to-head pairs
// of a joust round.
//
// The first round spreads shuffled teams round-robin over the active
// locations. Later rounds ladder each team from its previous match: winners
// move one location toward the front of the list, losers one toward the
// back. Teams are shuffled and paired sequentially within a location; an odd
// team out borrows an opponent from an adjacent location that also has an
// odd leftover, otherwise it receives a bye.
func PairRound(teams []PairingTeam, locations []string, firstRound bool, rng *rand.Rand) (*PairingResult, error) {
	if len(locations) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 locations, have %d", ErrInvalidPairing, len(locations))
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidPairing)
	}

	count := len(teams) / 2
	if count < 2 {
		count = 2
	}
	if count > len(locations) {
		count = len(locations)
	}
	active := locations[:count]

	buckets := make([][]int, count)

	if firstRound {
		shuffled := make([]PairingTeam, len(teams))
		copy(shuffled, teams)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for i, t := range shuffled {
			buckets[i%count] = append(buckets[i%count], t.TeamID)
		}
	} else {
		rest := make([]PairingTeam, 0, len(teams))
		for _, t := range teams {
			idx := -1
			if t.SelectedLocation != nil {
				idx = locationIndex(active, *t.SelectedLocation)
			}
			if idx < 0 {
				rest = append(rest, t)
				continue
			}
			idx = withCapacity(buckets, idx, selectLocationCap)
			buckets[idx] = append(buckets[idx], t.TeamID)
		}
		for _, t := range rest {
			idx := ladderIndex(t, locations, count)
			buckets[idx] = append(buckets[idx], t.TeamID)
		}
	}

	// An odd leftover at a location borrows an opponent from an adjacent
	// location that also has an odd leftover, checked both directions.
	for i := range buckets {
		if len(buckets[i])%2 == 0 {
			continue
		}
		if i > 0 && len(buckets[i-1])%2 == 1 {
			buckets[i], buckets[i-1] = moveLast(buckets[i], buckets[i-1])
			continue
		}
		if i+1 < count && len(buckets[i+1])%2 == 1 {
			buckets[i], buckets[i+1] = moveLast(buckets[i], buckets[i+1])
		}
	}

	result := &PairingResult{Locations: active}
	placed := 0

	for i, bucket := range buckets {
		rng.Shuffle(len(bucket), func(a, b int) {
			bucket[a], bucket[b] = bucket[b], bucket[a]
		})
		if len(bucket)%2 == 1 {
			// No adjacent leftover to borrow, the last team sits out.
			result.Byes = append(result.Byes, bucket[len(bucket)-1])
			bucket = bucket[:len(bucket)-1]
			placed++
		}
		if len(bucket)%2 != 0 {
			return nil, fmt.Errorf("%w: location %q holds %d unpaired teams", ErrInvalidPairing, active[i], len(bucket))
		}
		for j := 0; j+1 < len(bucket); j += 2 {
			result.Pairs = append(result.Pairs, Pair{
				Team1ID:  bucket[j],
				Team2ID:  bucket[j+1],
				Location: active[i],
			})
			placed += 2
		}
	}

	if placed != len(teams) {
		return nil, fmt.Errorf("%w: placed %d of %d teams", ErrInvalidPairing, placed, len(teams))
	}
	return result, nil
}

// ladderIndex derives a team's location from its previous match: one step
// toward the front on a win, one toward the back on a loss, clamped at both
// ends. A team with no previous match lands in the middle.
func ladderIndex(t PairingTeam, locations []string, count int) int {
	if t.PrevLocation == nil || t.PrevWon == nil {
		return count / 2
	}
	idx := locationIndex(locations, *t.PrevLocation)
	if idx < 0 {
		return count / 2
	}
	if *t.PrevWon {
		idx--
	} else {
		idx++
	}
	if idx < 0 {
		idx = 0
	}
	if idx > count-1 {
		idx = count - 1
	}
	return idx
}

// withCapacity returns idx when the bucket still has room, otherwise the
// next location with capacity, scanning forward and wrapping. Falls back to
// idx when every bucket is at capacity.
func withCapacity(buckets [][]int, idx, limit int) int {
	for off := 0; off < len(buckets); off++ {
		i := (idx + off) % len(buckets)
		if len(buckets[i]) < limit {
			return i
		}
	}
	return idx
}

func moveLast(dst, src []int) (newDst, newSrc []int) {
	last := src[len(src)-1]
	return append(dst, last), src[:len(src)-1]
}

func locationIndex(locations []string, name string) int {
	for i, l := range locations {
		if l == name {
			return i
		}
	}
	return -1
}
