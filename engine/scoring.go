package engine

import "sort"

// BetRecord is one placed bet together with the quotes frozen at placement
// time.
type BetRecord struct {
	BettorTeamID int
	BackedTeamID int
	Odd1         float64
	Odd2         float64
}

// TeamScore is one line of the final payout table.
type TeamScore struct {
	TeamID       int     `json:"team_id"`
	FirstPoints  float64 `json:"first_points"`
	SecondPoints float64 `json:"second_points"`
	Total        float64 `json:"total"`
}

// ScoreBets computes the final betting payouts once first and second place
// are known. Every bet backing the first-place team pays its Odd1 to the
// bettor, every bet backing the second-place team pays its Odd2; payouts
// accumulate per bettor. teamIDs lists the whole field so teams without a
// winning bet still appear with a zero total.
//
// Results are ordered by total descending; equal totals are broken by team
// ID ascending so the ranking is stable across runs.
func ScoreBets(bets []BetRecord, firstPlaceID, secondPlaceID int, teamIDs []int) []TeamScore {
	byTeam := make(map[int]*TeamScore, len(teamIDs))
	for _, id := range teamIDs {
		byTeam[id] = &TeamScore{TeamID: id}
	}

	for _, bet := range bets {
		score, ok := byTeam[bet.BettorTeamID]
		if !ok {
			score = &TeamScore{TeamID: bet.BettorTeamID}
			byTeam[bet.BettorTeamID] = score
		}
		if bet.BackedTeamID == firstPlaceID {
			score.FirstPoints += bet.Odd1
		}
		if bet.BackedTeamID == secondPlaceID {
			score.SecondPoints += bet.Odd2
		}
	}

	results := make([]TeamScore, 0, len(byTeam))
	for _, score := range byTeam {
		score.Total = score.FirstPoints + score.SecondPoints
		results = append(results, *score)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		return results[i].TeamID < results[j].TeamID
	})

	return results
}
