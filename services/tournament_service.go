package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/joust-league/engine"
	"github.com/Dosada05/joust-league/models"
	"github.com/Dosada05/joust-league/repositories"
)

// Settings carries the per-deployment tournament parameters.
type Settings struct {
	// FinishDistance is how many steps a team must cover to reach the finish.
	FinishDistance int
	// Locations is the ordered ladder of joust locations. The first entry is
	// the "home" ground where losing streaks earn a compensation bonus.
	Locations []string
}

// StageNotifier receives every stage transition. The websocket hub implements
// it; a nil notifier is allowed.
type StageNotifier interface {
	StageChanged(round *models.Round)
}

// TournamentService drives the tournament state machine: betting, joust and
// bonus rounds repeating until a team covers the finish distance, then the
// tie-break stages and the final payout.
type TournamentService struct {
	db *sql.DB

	teamRepo  repositories.TeamRepository
	roundRepo repositories.RoundRepository
	gameRepo  repositories.GameRepository
	oddsRepo  repositories.OddsRepository
	betRepo   repositories.BetRepository
	bonusRepo repositories.BonusRepository

	odds     engine.OddsStrategy
	settings Settings
	notifier StageNotifier
	logger   *slog.Logger
	rng      *rand.Rand

	// mu serializes every check-completion/transition sequence. Two teams
	// reporting the last results of a round concurrently must produce exactly
	// one stage transition.
	mu sync.Mutex
}

func NewTournamentService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	roundRepo repositories.RoundRepository,
	gameRepo repositories.GameRepository,
	oddsRepo repositories.OddsRepository,
	betRepo repositories.BetRepository,
	bonusRepo repositories.BonusRepository,
	odds engine.OddsStrategy,
	settings Settings,
	notifier StageNotifier,
	logger *slog.Logger,
) *TournamentService {
	if odds == nil {
		odds = engine.NewLeaderZeroOdds()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TournamentService{
		db:        db,
		teamRepo:  teamRepo,
		roundRepo: roundRepo,
		gameRepo:  gameRepo,
		oddsRepo:  oddsRepo,
		betRepo:   betRepo,
		bonusRepo: bonusRepo,
		odds:      odds,
		settings:  settings,
		notifier:  notifier,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Settings returns the deployment parameters the service was built with.
func (s *TournamentService) Settings() Settings {
	return s.settings
}

// withTx runs fn inside a database transaction. Without a database (unit
// tests wire repositories directly) fn runs against the repositories' own
// connections.
func (s *TournamentService) withTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *TournamentService) notifyStage(round *models.Round) {
	if s.notifier == nil || round == nil {
		return
	}
	s.notifier.StageChanged(round)
}

// StartTournament opens round one: every team receives one bet token, the
// first betting round goes active and the field is priced.
func (s *TournamentService) StartTournament(ctx context.Context) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.roundRepo.GetActive(ctx); err == nil {
		return nil, ErrTournamentAlreadyStarted
	} else if !errors.Is(err, repositories.ErrNoActiveRound) {
		return nil, err
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, ErrNotEnoughTeams
	}

	round := &models.Round{Number: 1, Stage: models.StageBetting, Active: true}
	err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, team := range teams {
			if _, err := s.teamRepo.AdjustBets(ctx, exec, team.ID, 1); err != nil {
				return fmt.Errorf("failed to grant starting bet token to team %d: %w", team.ID, err)
			}
		}
		if err := s.roundRepo.Create(ctx, exec, round); err != nil {
			return err
		}
		return s.createOdds(ctx, exec, round.ID, teams)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament started", "round_id", round.ID, "teams", len(teams))
	s.notifyStage(round)
	return round, nil
}

// createOdds prices every team for the betting round. The field is priced in
// team ID order, which also fixes the all-tied special case deterministically.
func (s *TournamentService) createOdds(ctx context.Context, exec repositories.SQLExecutor, roundID int, teams []*models.Team) error {
	distances := make([]int, len(teams))
	for i, team := range teams {
		distances[i] = team.Distance
	}
	pairs := s.odds.Compute(distances, s.settings.FinishDistance)
	for i, team := range teams {
		odds := &models.Odds{
			RoundID: roundID,
			TeamID:  team.ID,
			Odd1:    pairs[i].Odd1,
			Odd2:    pairs[i].Odd2,
		}
		if err := s.oddsRepo.Create(ctx, exec, odds); err != nil {
			return err
		}
	}
	return nil
}

type PlaceBetInput struct {
	RoundID     int
	TeamID      int
	BetOnTeamID int
}

type PlaceBetResult struct {
	Bet        *models.Bet
	TokensLeft int
	// Round is the active round after the call: the joust round when this bet
	// completed the betting stage, otherwise the betting round itself.
	Round         *models.Round
	StageAdvanced bool
}

// PlaceBet spends one of the team's tokens on another team at the frozen
// odds. The bet that exhausts the team's tokens is its finish bet; once every
// team has placed one the betting round closes and the joust round activates.
func (s *TournamentService) PlaceBet(ctx context.Context, input PlaceBetInput) (*PlaceBetResult, error) {
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
	if round.Stage != models.StageBetting {
		return nil, fmt.Errorf("%w: stage %s does not accept bets", ErrInvalidOperation, round.Stage)
	}

	odds, err := s.oddsRepo.GetByRoundAndTeam(ctx, round.ID, input.BetOnTeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrOddsNotFound) {
			return nil, ErrOddsNotFound
		}
		return nil, err
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if findTeam(teams, input.TeamID) == nil {
		return nil, ErrTeamNotFound
	}

	result := &PlaceBetResult{Round: round}
	err = s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		balance, err := s.teamRepo.AdjustBets(ctx, exec, input.TeamID, -1)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamBalanceWouldBeLower) {
				return ErrInsufficientTokens
			}
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		bet := &models.Bet{
			TeamID:      input.TeamID,
			BetOnTeamID: input.BetOnTeamID,
			OddsID:      odds.ID,
			RoundID:     round.ID,
			BetFinish:   balance == 0,
		}
		if err := s.betRepo.Create(ctx, exec, bet); err != nil {
			return err
		}
		result.Bet = bet
		result.TokensLeft = balance

		if !bet.BetFinish {
			return nil
		}
		done, err := s.allFinishBetsIn(ctx, round.ID, teams, input.TeamID)
		if err != nil || !done {
			return err
		}
		next, err := s.activateJoustRound(ctx, exec, round, teams)
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
		s.logger.Info("betting round closed", "round_number", round.Number, "joust_round_id", result.Round.ID)
		s.notifyStage(result.Round)
	}
	return result, nil
}

// allFinishBetsIn reports whether every team except excludeID has already
// placed its finish bet. The excluded team is the one whose finish bet is
// still inside the open transaction.
func (s *TournamentService) allFinishBetsIn(ctx context.Context, roundID int, teams []*models.Team, excludeID int) (bool, error) {
	for _, team := range teams {
		if team.ID == excludeID {
			continue
		}
		placed, err := s.betRepo.HasFinishBet(ctx, roundID, team.ID)
		if err != nil {
			return false, err
		}
		if !placed {
			return false, nil
		}
	}
	return true, nil
}

// activateJoustRound swaps the betting round for this lap's joust round.
// Laps after the first find their joust round pre-generated at lap rollover;
// round one generates it on the spot.
func (s *TournamentService) activateJoustRound(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, teams []*models.Team) (*models.Round, error) {
	next, err := s.roundRepo.FindInactive(ctx, current.Number, models.StageJoust)
	if errors.Is(err, repositories.ErrRoundNotFound) {
		next, err = s.generateJoustRound(ctx, exec, current.Number, nil, nil, teams)
	}
	if err != nil {
		return nil, err
	}

	if err := s.roundRepo.SetActive(ctx, exec, current.ID, false); err != nil {
		return nil, err
	}
	if err := s.roundRepo.SetActive(ctx, exec, next.ID, true); err != nil {
		return nil, err
	}
	next.Active = true
	return next, nil
}

// generateJoustRound creates an inactive joust round and its games. prevGames
// carry the previous lap's results that drive the location ladder; nil means
// a fresh first-round shuffle. selected holds locations claimed through
// select_location bonuses.
func (s *TournamentService) generateJoustRound(ctx context.Context, exec repositories.SQLExecutor, number int, prevGames []*models.Game, selected map[int]string, teams []*models.Team) (*models.Round, error) {
	pairingTeams := make([]engine.PairingTeam, 0, len(teams))
	for _, team := range teams {
		pt := engine.PairingTeam{TeamID: team.ID}
		if loc, ok := selected[team.ID]; ok {
			claimed := loc
			pt.SelectedLocation = &claimed
		}
		for _, game := range prevGames {
			if !game.Involves(team.ID) || !game.Finished {
				continue
			}
			winner, ok := game.WinnerID()
			if !ok {
				continue
			}
			won := winner == team.ID
			pt.PrevWon = &won
			pt.PrevLocation = game.Location
			break
		}
		pairingTeams = append(pairingTeams, pt)
	}

	plan, err := engine.PairRound(pairingTeams, s.settings.Locations, prevGames == nil, s.rng)
	if err != nil {
		return nil, err
	}
	for _, teamID := range plan.Byes {
		s.logger.Warn("team sits out this round", "team_id", teamID, "round_number", number)
	}

	round := &models.Round{Number: number, Stage: models.StageJoust}
	if err := s.roundRepo.Create(ctx, exec, round); err != nil {
		return nil, err
	}
	for _, pair := range plan.Pairs {
		location := pair.Location
		game := &models.Game{
			RoundID:  round.ID,
			Team1ID:  pair.Team1ID,
			Team2ID:  pair.Team2ID,
			Location: &location,
		}
		if err := s.gameRepo.Create(ctx, exec, game); err != nil {
			return nil, err
		}
	}
	return round, nil
}

// startNextLap rolls the tournament over into the next betting round: every
// team gets one more token, the field is re-priced on current distances and
// the next joust round is pre-generated from the previous lap's results.
func (s *TournamentService) startNextLap(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, teams []*models.Team, prevGames []*models.Game, selected map[int]string) (*models.Round, error) {
	for _, team := range teams {
		balance, err := s.teamRepo.AdjustBets(ctx, exec, team.ID, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to grant bet token to team %d: %w", team.ID, err)
		}
		team.BetsAvailable = balance
	}

	// Текущий раунд гасим до вставки нового: индекс единственного активного
	// раунда проверяется на каждом statement.
	if err := s.roundRepo.SetActive(ctx, exec, current.ID, false); err != nil {
		return nil, err
	}
	betting := &models.Round{Number: current.Number + 1, Stage: models.StageBetting, Active: true}
	if err := s.roundRepo.Create(ctx, exec, betting); err != nil {
		return nil, err
	}
	if err := s.createOdds(ctx, exec, betting.ID, teams); err != nil {
		return nil, err
	}
	if _, err := s.generateJoustRound(ctx, exec, betting.Number, prevGames, selected, teams); err != nil {
		return nil, err
	}
	return betting, nil
}

// finishTournament records the podium and closes the tournament.
func (s *TournamentService) finishTournament(ctx context.Context, exec repositories.SQLExecutor, current *models.Round, firstID int, secondID *int) (*models.Round, error) {
	if err := s.roundRepo.SetActive(ctx, exec, current.ID, false); err != nil {
		return nil, err
	}
	round := &models.Round{
		Number:            current.Number,
		Stage:             models.StageFinished,
		Active:            true,
		FirstPlaceTeamID:  &firstID,
		SecondPlaceTeamID: secondID,
	}
	if err := s.roundRepo.Create(ctx, exec, round); err != nil {
		return nil, err
	}
	return round, nil
}

func findTeam(teams []*models.Team, id int) *models.Team {
	for _, team := range teams {
		if team.ID == id {
			return team
		}
	}
	return nil
}
