package services

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/joust-league/engine"
	"github.com/Dosada05/joust-league/models"
	"github.com/Dosada05/joust-league/repositories"
)

// ActiveRound returns the single active round.
func (s *TournamentService) ActiveRound(ctx context.Context) (*models.Round, error) {
	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveRound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return round, nil
}

// TeamBalance returns how many bet tokens the team holds.
func (s *TournamentService) TeamBalance(ctx context.Context, teamID int) (int, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return 0, ErrTeamNotFound
		}
		return 0, err
	}
	return team.BetsAvailable, nil
}

// OpponentView describes the team's current match-up.
type OpponentView struct {
	Game     *models.Game `json:"game"`
	Opponent *models.Team `json:"opponent"`
}

// CurrentOpponent returns the team's game and opponent in the active joust
// or final round. A team sitting out on a bye has no game.
func (s *TournamentService) CurrentOpponent(ctx context.Context, teamID int) (*OpponentView, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	if round.Stage != models.StageJoust && round.Stage != models.StageFinal {
		return nil, ErrInactiveRound
	}

	games, err := s.gameRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	for _, game := range games {
		opponentID, ok := game.OpponentOf(teamID)
		if !ok {
			continue
		}
		opponent, err := s.teamRepo.GetByID(ctx, opponentID)
		if err != nil {
			return nil, err
		}
		return &OpponentView{Game: game, Opponent: opponent}, nil
	}
	return nil, ErrGameNotFound
}

// PendingBonus returns the team's unconsumed bonus in the active round.
func (s *TournamentService) PendingBonus(ctx context.Context, teamID int) (*models.Bonus, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	if round.Stage != models.StageBonus {
		return nil, ErrNoPendingBonus
	}
	bonus, err := s.bonusRepo.GetPending(ctx, round.ID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrBonusNotFound) {
			return nil, ErrNoPendingBonus
		}
		return nil, err
	}
	return bonus, nil
}

// BettingLine is one row of the betting table: a team, its frozen quotes and
// how many bets the caller already placed on it this round.
type BettingLine struct {
	Team       *models.Team `json:"team"`
	Odd1       float64      `json:"odd1"`
	Odd2       float64      `json:"odd2"`
	CallerBets int          `json:"caller_bets"`
}

// BettingTable returns the full table for the active betting round from the
// calling team's point of view.
func (s *TournamentService) BettingTable(ctx context.Context, callerTeamID int) ([]BettingLine, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	if round.Stage != models.StageBetting {
		return nil, ErrInactiveRound
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	odds, err := s.oddsRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	callerBets, err := s.betRepo.ListByRoundAndTeam(ctx, round.ID, callerTeamID)
	if err != nil {
		return nil, err
	}

	betsOn := make(map[int]int)
	for _, bet := range callerBets {
		betsOn[bet.BetOnTeamID]++
	}
	oddsByTeam := make(map[int]*models.Odds, len(odds))
	for _, o := range odds {
		oddsByTeam[o.TeamID] = o
	}

	table := make([]BettingLine, 0, len(teams))
	for _, team := range teams {
		line := BettingLine{Team: team, CallerBets: betsOn[team.ID]}
		if o, ok := oddsByTeam[team.ID]; ok {
			line.Odd1 = o.Odd1
			line.Odd2 = o.Odd2
		}
		table = append(table, line)
	}
	return table, nil
}

// CompletionFlag reports whether a team has done its part of the current
// stage: placed its finish bet, played its game or consumed its bonus.
type CompletionFlag struct {
	TeamID int  `json:"team_id"`
	Done   bool `json:"done"`
}

// CompletionFlags returns the per-team progress of the active round.
func (s *TournamentService) CompletionFlags(ctx context.Context) ([]CompletionFlag, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	flags := make([]CompletionFlag, 0, len(teams))
	switch round.Stage {
	case models.StageBetting:
		for _, team := range teams {
			done, err := s.betRepo.HasFinishBet(ctx, round.ID, team.ID)
			if err != nil {
				return nil, err
			}
			flags = append(flags, CompletionFlag{TeamID: team.ID, Done: done})
		}
	case models.StageJoust, models.StageFinal:
		games, err := s.gameRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return nil, err
		}
		for _, team := range teams {
			// A team without a game this round has nothing left to do.
			done := true
			for _, game := range games {
				if game.Involves(team.ID) {
					done = game.Finished
					break
				}
			}
			flags = append(flags, CompletionFlag{TeamID: team.ID, Done: done})
		}
	case models.StageBonus:
		bonuses, err := s.bonusRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return nil, err
		}
		finished := make(map[int]bool, len(bonuses))
		for _, bonus := range bonuses {
			finished[bonus.TeamID] = bonus.Finished
		}
		for _, team := range teams {
			flags = append(flags, CompletionFlag{TeamID: team.ID, Done: finished[team.ID]})
		}
	default:
		for _, team := range teams {
			flags = append(flags, CompletionFlag{TeamID: team.ID, Done: true})
		}
	}
	return flags, nil
}

// Snapshot is the full public state of the tournament at one moment.
type Snapshot struct {
	Round   *models.Round   `json:"round"`
	Teams   []*models.Team  `json:"teams"`
	Games   []*models.Game  `json:"games"`
	Odds    []*models.Odds  `json:"odds"`
	Bonuses []*models.Bonus `json:"bonuses"`
}

// Snapshot assembles the active round with every related collection, fetched
// concurrently.
func (s *TournamentService) Snapshot(ctx context.Context) (*Snapshot, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{Round: round}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.List(gctx)
		if err == nil {
			snapshot.Teams = teams
		}
		return err
	})
	g.Go(func() error {
		games, err := s.gameRepo.ListByRound(gctx, round.ID)
		if err == nil {
			snapshot.Games = games
		}
		return err
	})
	g.Go(func() error {
		odds, err := s.oddsRepo.ListByRound(gctx, round.ID)
		if err == nil {
			snapshot.Odds = odds
		}
		return err
	})
	g.Go(func() error {
		bonuses, err := s.bonusRepo.ListByRound(gctx, round.ID)
		if err == nil {
			snapshot.Bonuses = bonuses
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// FinalStanding is one team's payout line in the final table.
type FinalStanding struct {
	Team  *models.Team     `json:"team"`
	Score engine.TeamScore `json:"score"`
}

// FinalResults is the closed tournament's podium and payout table.
type FinalResults struct {
	FirstPlace  *models.Team    `json:"first_place"`
	SecondPlace *models.Team    `json:"second_place"`
	Standings   []FinalStanding `json:"standings"`
}

// FinalResults settles every bet of the tournament against the podium and
// returns the payout standings.
func (s *TournamentService) FinalResults(ctx context.Context) (*FinalResults, error) {
	round, err := s.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	if round.Stage != models.StageFinished || round.FirstPlaceTeamID == nil {
		return nil, ErrTournamentNotFinished
	}
	if round.SecondPlaceTeamID == nil {
		return nil, ErrSecondPlaceUnresolved
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	bets, err := s.betRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	oddsCache := make(map[int]*models.Odds)
	records := make([]engine.BetRecord, 0, len(bets))
	for _, bet := range bets {
		odds, ok := oddsCache[bet.OddsID]
		if !ok {
			odds, err = s.oddsRepo.GetByID(ctx, bet.OddsID)
			if err != nil {
				return nil, err
			}
			oddsCache[bet.OddsID] = odds
		}
		records = append(records, engine.BetRecord{
			BettorTeamID: bet.TeamID,
			BackedTeamID: bet.BetOnTeamID,
			Odd1:         odds.Odd1,
			Odd2:         odds.Odd2,
		})
	}

	teamIDs := make([]int, 0, len(teams))
	byID := make(map[int]*models.Team, len(teams))
	for _, team := range teams {
		teamIDs = append(teamIDs, team.ID)
		byID[team.ID] = team
	}
	sort.Ints(teamIDs)

	scores := engine.ScoreBets(records, *round.FirstPlaceTeamID, *round.SecondPlaceTeamID, teamIDs)
	standings := make([]FinalStanding, 0, len(scores))
	for _, score := range scores {
		standings = append(standings, FinalStanding{Team: byID[score.TeamID], Score: score})
	}

	return &FinalResults{
		FirstPlace:  byID[*round.FirstPlaceTeamID],
		SecondPlace: byID[*round.SecondPlaceTeamID],
		Standings:   standings,
	}, nil
}
