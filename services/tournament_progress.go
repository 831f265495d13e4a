package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/joust-league/engine"
	"github.com/Dosada05/joust-league/models"
	"github.com/Dosada05/joust-league/repositories"
)

type MatchResultInput struct {
	RoundID int
	GameID  int
	// TeamID is the reporting team; it must be one of the game's two sides.
	TeamID   int
	WinnerID int
}

type MatchResultOutcome struct {
	Game *models.Game
	// Round is the active round after the call. When this was the last game
	// of the round it is the next stage's round; on the last lap it is the
	// finished round carrying the podium.
	Round         *models.Round
	StageAdvanced bool
}

// RecordMatchResult writes the outcome of one joust (or final tie-break)
// game. The result that completes the round triggers the stage evaluation:
// winners advance one step, then the round rolls into the bonus stage, a
// tie-break stage or the finish.
func (s *TournamentService) RecordMatchResult(ctx context.Context, input MatchResultInput) (*MatchResultOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if !round.Active {
		return nil, ErrInactiveRound
	}
	if round.Stage != models.StageJoust && round.Stage != models.StageFinal {
		return nil, fmt.Errorf("%w: stage %s does not accept results", ErrInvalidOperation, round.Stage)
	}

	game, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if game.RoundID != round.ID {
		return nil, fmt.Errorf("%w: game %d belongs to another round", ErrGameNotFound, game.ID)
	}
	if !game.Involves(input.TeamID) || !game.Involves(input.WinnerID) {
		return nil, ErrInvalidParticipant
	}
	if game.Finished {
		return nil, ErrAlreadyFinished
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	games, err := s.gameRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	outcome := &MatchResultOutcome{Round: round}
	err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		team1Won := input.WinnerID == game.Team1ID
		if err := s.gameRepo.RecordResult(ctx, exec, game.ID, team1Won); err != nil {
			if errors.Is(err, repositories.ErrGameAlreadyFinished) {
				return ErrAlreadyFinished
			}
			return err
		}

		// The update is not visible through plain reads until commit, so the
		// in-memory copies carry the fresh result through the evaluation.
		game.Win = &team1Won
		game.Finished = true
		for i, g := range games {
			if g.ID == game.ID {
				games[i] = game
			}
		}
		outcome.Game = game

		for _, g := range games {
			if !g.Finished {
				return nil
			}
		}

		for _, g := range games {
			winnerID, ok := g.WinnerID()
			if !ok {
				continue
			}
			distance, err := s.teamRepo.AdjustDistance(ctx, exec, winnerID, 1)
			if err != nil {
				return fmt.Errorf("failed to advance team %d: %w", winnerID, err)
			}
			if team := findTeam(teams, winnerID); team != nil {
				team.Distance = distance
			}
		}

		var next *models.Round
		if round.Stage == models.StageFinal {
			next, err = s.resolveFinal(ctx, exec, round, game)
		} else {
			next, err = s.evaluateLapEnd(ctx, exec, round, teams, games)
		}
		if err != nil {
			return err
		}
		outcome.Round = next
		outcome.StageAdvanced = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.StageAdvanced {
		s.logger.Info("round completed",
			"round_number", round.Number,
			"from_stage", round.Stage,
			"to_stage", outcome.Round.Stage,
		)
		s.notifyStage(outcome.Round)
	}
	return outcome, nil
}

// resolveFinal closes the tournament off the tie-break game. A final played
// for second place keeps the pre-decided first place; a final between two
// tied leaders crowns its winner.
func (s *TournamentService) resolveFinal(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, game *models.Game) (*models.Round, error) {
	winnerID, ok := game.WinnerID()
	if !ok {
		return nil, fmt.Errorf("%w: final game has no recorded winner", ErrInvalidOperation)
	}
	loserID, _ := game.LoserID()

	firstID, secondID := winnerID, loserID
	if current.FirstPlaceTeamID != nil {
		firstID, secondID = *current.FirstPlaceTeamID, winnerID
	}
	return s.finishTournament(ctx, exec, current, firstID, &secondID)
}

// evaluateLapEnd decides what follows a completed joust round: the bonus
// stage when nobody has finished, otherwise one of the finishing branches.
func (s *TournamentService) evaluateLapEnd(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, teams []*models.Team, games []*models.Game) (*models.Round, error) {
	maxDistance := 0
	for _, team := range teams {
		if team.Distance > maxDistance {
			maxDistance = team.Distance
		}
	}
	if maxDistance < s.settings.FinishDistance {
		return s.moveToBonus(ctx, exec, current, teams, games)
	}

	var leaders []*models.Team
	for _, team := range teams {
		if team.Distance == maxDistance {
			leaders = append(leaders, team)
		}
	}

	switch len(leaders) {
	case 1:
		leader := leaders[0]
		secondDistance := -1
		for _, team := range teams {
			if team.ID != leader.ID && team.Distance > secondDistance {
				secondDistance = team.Distance
			}
		}
		var seconds []*models.Team
		for _, team := range teams {
			if team.ID != leader.ID && team.Distance == secondDistance {
				seconds = append(seconds, team)
			}
		}
		switch len(seconds) {
		case 1:
			return s.finishTournament(ctx, exec, current, leader.ID, &seconds[0].ID)
		case 2:
			// Two teams tied for second play a tie-break game.
			return s.createFinalRound(ctx, exec, current, seconds[0], seconds[1], leader)
		default:
			// More than two tied for second: the admin picks the runner-up.
			if err := s.roundRepo.SetActive(ctx, exec, current.ID, false); err != nil {
				return nil, err
			}
			round := &models.Round{
				Number:           current.Number,
				Stage:            models.StageFinalMultipleTie,
				Active:           true,
				FirstPlaceTeamID: &leader.ID,
			}
			if err := s.roundRepo.Create(ctx, exec, round); err != nil {
				return nil, err
			}
			return round, nil
		}
	case 2:
		// Two tied at the top play for first place.
		return s.createFinalRound(ctx, exec, current, leaders[0], leaders[1], nil)
	default:
		// Three or more tied at the top: the race goes on for another lap.
		s.logger.Info("finish extended", "tied_leaders", len(leaders), "distance", maxDistance)
		return s.startNextLap(ctx, exec, current, teams, games, nil)
	}
}

// createFinalRound opens a tie-break round with a single game between the two
// tied teams. leader, when non-nil, already holds first place and the game
// only decides second.
func (s *TournamentService) createFinalRound(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, team1, team2, leader *models.Team) (*models.Round, error) {
	if err := s.roundRepo.SetActive(ctx, exec, current.ID, false); err != nil {
		return nil, err
	}

	round := &models.Round{Number: current.Number, Stage: models.StageFinal, Active: true}
	if leader != nil {
		round.FirstPlaceTeamID = &leader.ID
	}
	if err := s.roundRepo.Create(ctx, exec, round); err != nil {
		return nil, err
	}

	// The tie-break is always fought on the home ground.
	home := s.settings.Locations[0]
	game := &models.Game{
		RoundID:  round.ID,
		Team1ID:  team1.ID,
		Team2ID:  team2.ID,
		Location: &home,
	}
	if err := s.gameRepo.Create(ctx, exec, game); err != nil {
		return nil, err
	}
	return round, nil
}

// moveToBonus opens the bonus stage: winners on a distance milestone and
// teams ground down at home earn a pending bonus, everyone else gets a
// pre-finished placeholder. A round with nothing pending rolls straight into
// the next lap.
func (s *TournamentService) moveToBonus(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, teams []*models.Team, games []*models.Game) (*models.Round, error) {
	if err := s.roundRepo.SetActive(ctx, exec, current.ID, false); err != nil {
		return nil, err
	}
	round := &models.Round{Number: current.Number, Stage: models.StageBonus, Active: true}
	if err := s.roundRepo.Create(ctx, exec, round); err != nil {
		return nil, err
	}

	pending := 0
	for _, team := range teams {
		won := false
		for _, g := range games {
			if winnerID, ok := g.WinnerID(); ok && winnerID == team.ID {
				won = true
				break
			}
		}
		streak, err := s.homeLossStreakFor(ctx, team.ID, games)
		if err != nil {
			return nil, err
		}

		bonus := &models.Bonus{RoundID: round.ID, TeamID: team.ID}
		switch {
		case !engine.BonusEligible(won, team.Distance, streak):
			bonus.Finished = true
			bonus.Description = "no bonus this round"
		case won:
			bonus.Description = fmt.Sprintf("bonus earned at distance %d", team.Distance)
			pending++
		default:
			bonus.Description = fmt.Sprintf("bonus for enduring %d losses at %s", streak, s.settings.Locations[0])
			pending++
		}
		if err := s.bonusRepo.Create(ctx, exec, bonus); err != nil {
			return nil, err
		}
	}

	if pending == 0 {
		return s.startNextLap(ctx, exec, round, teams, games, nil)
	}
	return round, nil
}

// homeLossStreakFor counts the team's consecutive losses at the home
// location, most recent first. current overrides the stored copies of games
// whose results are still inside the open transaction.
func (s *TournamentService) homeLossStreakFor(ctx context.Context, teamID int, current []*models.Game) (int, error) {
	recent, err := s.gameRepo.ListByTeam(ctx, teamID, engine.HomeLossStreak)
	if err != nil {
		return 0, err
	}
	byID := make(map[int]*models.Game, len(current))
	for _, g := range current {
		byID[g.ID] = g
	}
	home := s.settings.Locations[0]

	streak := 0
	for _, g := range recent {
		if override, ok := byID[g.ID]; ok {
			g = override
		}
		if !g.Finished || g.Location == nil || *g.Location != home {
			break
		}
		winnerID, ok := g.WinnerID()
		if !ok || winnerID == teamID {
			break
		}
		streak++
	}
	return streak, nil
}

type UseBonusInput struct {
	RoundID int
	TeamID  int
	// Effect is one of the bonus effect names; decline consumes the bonus
	// without any state change.
	Effect       string
	TargetTeamID *int
	Location     *string
}

type UseBonusResult struct {
	Bonus *models.Bonus
	// Round is the active round after the call: the next betting round when
	// this was the last pending bonus.
	Round         *models.Round
	StageAdvanced bool
}

// UseBonus consumes the team's pending bonus with the chosen effect. The last
// consumed bonus rolls the tournament into the next lap.
func (s *TournamentService) UseBonus(ctx context.Context, input UseBonusInput) (*UseBonusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if !round.Active {
		return nil, ErrInactiveRound
	}
	if round.Stage != models.StageBonus {
		return nil, fmt.Errorf("%w: stage %s has no bonuses", ErrInvalidOperation, round.Stage)
	}

	bonus, err := s.bonusRepo.GetPending(ctx, round.ID, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrBonusNotFound) {
			return nil, ErrNoPendingBonus
		}
		return nil, err
	}

	effect, err := engine.ParseEffect(input.Effect, input.TargetTeamID, input.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOperation, err)
	}
	if effect.Kind == models.BonusSelectLocation && !s.knownLocation(effect.Location) {
		return nil, fmt.Errorf("%w: unknown location %q", ErrInvalidOperation, effect.Location)
	}

	var target *models.Team
	if effect.TargetTeamID != 0 {
		target, err = s.teamRepo.GetByID(ctx, effect.TargetTeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
	}

	outcome, err := engine.ResolveEffect(effect, input.TeamID, target, s.settings.FinishDistance)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOperation, err)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	bonuses, err := s.bonusRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}

	result := &UseBonusResult{Bonus: bonus, Round: round}
	err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		if outcome.GrantTokenTeamID != nil {
			if _, err := s.teamRepo.AdjustBets(ctx, exec, *outcome.GrantTokenTeamID, 1); err != nil {
				return err
			}
		}
		for teamID, delta := range outcome.DistanceDelta {
			distance, err := s.teamRepo.AdjustDistance(ctx, exec, teamID, delta)
			if err != nil {
				return err
			}
			if team := findTeam(teams, teamID); team != nil {
				team.Distance = distance
			}
		}

		var bonusTarget *string
		switch {
		case target != nil:
			bonusTarget = &target.Identifier
		case outcome.SelectedLocation != nil:
			bonusTarget = outcome.SelectedLocation
		}
		if err := s.bonusRepo.MarkFinished(ctx, exec, bonus.ID, &effect.Kind, bonusTarget, outcome.Description); err != nil {
			if errors.Is(err, repositories.ErrBonusNotFound) {
				return ErrNoPendingBonus
			}
			return err
		}
		bonus.Finished = true
		bonus.BonusType = &effect.Kind
		bonus.BonusTarget = bonusTarget
		bonus.Description = outcome.Description

		for _, b := range bonuses {
			if !b.Finished && b.ID != bonus.ID {
				return nil
			}
		}

		selected := s.selectedLocations(bonuses)
		if effect.Kind == models.BonusSelectLocation {
			selected[input.TeamID] = effect.Location
		}

		joustRound, err := s.roundRepo.FindInactive(ctx, round.Number, models.StageJoust)
		if err != nil {
			return fmt.Errorf("failed to locate lap %d joust round: %w", round.Number, err)
		}
		games, err := s.gameRepo.ListByRound(ctx, joustRound.ID)
		if err != nil {
			return err
		}

		next, err := s.startNextLap(ctx, exec, round, teams, games, selected)
		if err != nil {
			return err
		}
		result.Round = next
		result.StageAdvanced = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.StageAdvanced {
		s.logger.Info("bonus round closed", "round_number", round.Number, "next_round_id", result.Round.ID)
		s.notifyStage(result.Round)
	}
	return result, nil
}

func (s *TournamentService) knownLocation(name string) bool {
	for _, location := range s.settings.Locations {
		if location == name {
			return true
		}
	}
	return false
}

// selectedLocations maps teams to the locations they claimed this lap through
// already-consumed select_location bonuses.
func (s *TournamentService) selectedLocations(bonuses []*models.Bonus) map[int]string {
	selected := make(map[int]string)
	for _, b := range bonuses {
		if !b.Finished || b.BonusType == nil || *b.BonusType != models.BonusSelectLocation {
			continue
		}
		if b.BonusTarget != nil {
			selected[b.TeamID] = *b.BonusTarget
		}
	}
	return selected
}

// ResolveSecondPlace records the admin's runner-up pick. It closes a
// final-multiple-ties round, and may also fill the second place on a
// finished round that still lacks one.
func (s *TournamentService) ResolveSecondPlace(ctx context.Context, teamID int) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, err := s.roundRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNoActiveRound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.FirstPlaceTeamID == nil {
		return nil, fmt.Errorf("%w: first place is not decided", ErrInvalidOperation)
	}
	if *round.FirstPlaceTeamID == teamID {
		return nil, fmt.Errorf("%w: first place cannot take second", ErrInvalidOperation)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	team := findTeam(teams, teamID)
	if team == nil {
		return nil, ErrTeamNotFound
	}

	switch round.Stage {
	case models.StageFinalMultipleTie:
		// The pick must come from the tied group.
		secondDistance := -1
		for _, t := range teams {
			if t.ID != *round.FirstPlaceTeamID && t.Distance > secondDistance {
				secondDistance = t.Distance
			}
		}
		if team.Distance != secondDistance {
			return nil, fmt.Errorf("%w: team %s is not among the tied runners-up", ErrInvalidOperation, team.Identifier)
		}

		var finished *models.Round
		err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
			finished, err = s.finishTournament(ctx, exec, round, *round.FirstPlaceTeamID, &teamID)
			return err
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("second place resolved", "team_id", teamID)
		s.notifyStage(finished)
		return finished, nil

	case models.StageFinished:
		if round.SecondPlaceTeamID != nil {
			return nil, fmt.Errorf("%w: second place is already decided", ErrInvalidOperation)
		}
		if err := s.roundRepo.SetPlacements(ctx, nil, round.ID, round.FirstPlaceTeamID, &teamID); err != nil {
			return nil, err
		}
		round.SecondPlaceTeamID = &teamID
		s.notifyStage(round)
		return round, nil
	}
	return nil, fmt.Errorf("%w: stage %s has no pending second place", ErrInvalidOperation, round.Stage)
}
