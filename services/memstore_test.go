package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/joust-league/models"
	"github.com/Dosada05/joust-league/repositories"
)

// memStore is an in-memory stand-in for the postgres repositories. It keeps
// the same error contracts, which lets the service layer run without a
// database. The exec argument is ignored: there are no transactions here.
type memStore struct {
	mu      sync.Mutex
	teams   map[int]*models.Team
	rounds  map[int]*models.Round
	games   map[int]*models.Game
	odds    map[int]*models.Odds
	bets    map[int]*models.Bet
	bonuses map[int]*models.Bonus
	lastID  int
}

func newMemStore() *memStore {
	return &memStore{
		teams:   make(map[int]*models.Team),
		rounds:  make(map[int]*models.Round),
		games:   make(map[int]*models.Game),
		odds:    make(map[int]*models.Odds),
		bets:    make(map[int]*models.Bet),
		bonuses: make(map[int]*models.Bonus),
	}
}

func (s *memStore) nextID() int {
	s.lastID++
	return s.lastID
}

func (s *memStore) addTeam(name string, distance, bets int) *models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	team := &models.Team{
		ID:            s.nextID(),
		Identifier:    name,
		Name:          name,
		Distance:      distance,
		BetsAvailable: bets,
	}
	s.teams[team.ID] = team
	return copyTeam(team)
}

func (s *memStore) addRound(number int, stage models.Stage, active bool) *models.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	round := &models.Round{ID: s.nextID(), Number: number, Stage: stage, Active: active}
	s.rounds[round.ID] = round
	return copyRound(round)
}

func (s *memStore) addGame(roundID, team1, team2 int, location string, finished bool, team1Won bool) *models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	game := &models.Game{
		ID:       s.nextID(),
		RoundID:  roundID,
		Team1ID:  team1,
		Team2ID:  team2,
		Location: &location,
		Finished: finished,
	}
	if finished {
		won := team1Won
		game.Win = &won
	}
	s.games[game.ID] = game
	return copyGame(game)
}

func (s *memStore) addBonus(roundID, teamID int, finished bool) *models.Bonus {
	s.mu.Lock()
	defer s.mu.Unlock()
	bonus := &models.Bonus{ID: s.nextID(), RoundID: roundID, TeamID: teamID, Finished: finished}
	s.bonuses[bonus.ID] = bonus
	return copyBonus(bonus)
}

func (s *memStore) countRounds(stage models.Stage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, round := range s.rounds {
		if round.Stage == stage {
			count++
		}
	}
	return count
}

func (s *memStore) countActiveRounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, round := range s.rounds {
		if round.Active {
			count++
		}
	}
	return count
}

// otherActiveRound mirrors the partial unique index on rounds(active): at
// most one active round may exist at any statement boundary. Callers hold
// s.mu.
func (s *memStore) otherActiveRound(excludeID int) *models.Round {
	for _, round := range s.rounds {
		if round.Active && round.ID != excludeID {
			return round
		}
	}
	return nil
}

func copyTeam(t *models.Team) *models.Team {
	c := *t
	return &c
}

func copyRound(r *models.Round) *models.Round {
	c := *r
	return &c
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	return &c
}

func copyOdds(o *models.Odds) *models.Odds {
	c := *o
	return &c
}

func copyBet(b *models.Bet) *models.Bet {
	c := *b
	return &c
}

func copyBonus(b *models.Bonus) *models.Bonus {
	c := *b
	return &c
}

// --- TeamRepository ---

type memTeamRepo struct{ store *memStore }

func (r *memTeamRepo) List(ctx context.Context) ([]*models.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	teams := make([]*models.Team, 0, len(r.store.teams))
	for _, team := range r.store.teams {
		teams = append(teams, copyTeam(team))
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (r *memTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return copyTeam(team), nil
}

func (r *memTeamRepo) GetByIdentifier(ctx context.Context, identifier string) (*models.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, team := range r.store.teams {
		if team.Identifier == identifier {
			return copyTeam(team), nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *memTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.teams {
		if existing.Identifier == team.Identifier {
			return repositories.ErrTeamIdentifierConflict
		}
	}
	team.ID = r.store.nextID()
	r.store.teams[team.ID] = copyTeam(team)
	return nil
}

func (r *memTeamRepo) AdjustDistance(ctx context.Context, exec repositories.SQLExecutor, id int, delta int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return 0, repositories.ErrTeamNotFound
	}
	team.Distance += delta
	return team.Distance, nil
}

func (r *memTeamRepo) AdjustBets(ctx context.Context, exec repositories.SQLExecutor, id int, delta int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return 0, repositories.ErrTeamNotFound
	}
	if team.BetsAvailable+delta < 0 {
		return 0, repositories.ErrTeamBalanceWouldBeLower
	}
	team.BetsAvailable += delta
	return team.BetsAvailable, nil
}

func (r *memTeamRepo) UpdateEmblemKey(ctx context.Context, id int, key *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.EmblemKey = key
	return nil
}

// --- RoundRepository ---

type memRoundRepo struct{ store *memStore }

func (r *memRoundRepo) GetByID(ctx context.Context, id int) (*models.Round, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	round, ok := r.store.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	return copyRound(round), nil
}

func (r *memRoundRepo) GetActive(ctx context.Context) (*models.Round, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, round := range r.store.rounds {
		if round.Active {
			return copyRound(round), nil
		}
	}
	return nil, repositories.ErrNoActiveRound
}

func (r *memRoundRepo) FindInactive(ctx context.Context, number int, stage models.Stage) (*models.Round, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var found *models.Round
	for _, round := range r.store.rounds {
		if round.Number != number || round.Stage != stage || round.Active {
			continue
		}
		if found == nil || round.ID > found.ID {
			found = round
		}
	}
	if found == nil {
		return nil, repositories.ErrRoundNotFound
	}
	return copyRound(found), nil
}

func (r *memRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if round.Active {
		if other := r.store.otherActiveRound(0); other != nil {
			return fmt.Errorf("duplicate active round: round %d is still active", other.ID)
		}
	}
	round.ID = r.store.nextID()
	r.store.rounds[round.ID] = copyRound(round)
	return nil
}

func (r *memRoundRepo) SetActive(ctx context.Context, exec repositories.SQLExecutor, id int, active bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	round, ok := r.store.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	if active {
		if other := r.store.otherActiveRound(id); other != nil {
			return fmt.Errorf("duplicate active round: round %d is still active", other.ID)
		}
	}
	round.Active = active
	return nil
}

func (r *memRoundRepo) SetPlacements(ctx context.Context, exec repositories.SQLExecutor, id int, firstTeamID, secondTeamID *int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	round, ok := r.store.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.FirstPlaceTeamID = firstTeamID
	round.SecondPlaceTeamID = secondTeamID
	return nil
}

func (r *memRoundRepo) List(ctx context.Context) ([]*models.Round, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rounds := make([]*models.Round, 0, len(r.store.rounds))
	for _, round := range r.store.rounds {
		rounds = append(rounds, copyRound(round))
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].ID < rounds[j].ID })
	return rounds, nil
}

// --- GameRepository ---

type memGameRepo struct{ store *memStore }

func (r *memGameRepo) Create(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	game.ID = r.store.nextID()
	r.store.games[game.ID] = copyGame(game)
	return nil
}

func (r *memGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	game, ok := r.store.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return copyGame(game), nil
}

func (r *memGameRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Game, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	games := make([]*models.Game, 0)
	for _, game := range r.store.games {
		if game.RoundID == roundID {
			games = append(games, copyGame(game))
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (r *memGameRepo) ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.Game, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	games := make([]*models.Game, 0)
	for _, game := range r.store.games {
		if game.Involves(teamID) {
			games = append(games, copyGame(game))
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID > games[j].ID })
	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (r *memGameRepo) RecordResult(ctx context.Context, exec repositories.SQLExecutor, id int, team1Won bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	game, ok := r.store.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	if game.Finished {
		return repositories.ErrGameAlreadyFinished
	}
	won := team1Won
	game.Win = &won
	game.Finished = true
	return nil
}

// --- OddsRepository ---

type memOddsRepo struct{ store *memStore }

func (r *memOddsRepo) Create(ctx context.Context, exec repositories.SQLExecutor, odds *models.Odds) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.odds {
		if existing.RoundID == odds.RoundID && existing.TeamID == odds.TeamID {
			return repositories.ErrOddsConflict
		}
	}
	odds.ID = r.store.nextID()
	r.store.odds[odds.ID] = copyOdds(odds)
	return nil
}

func (r *memOddsRepo) GetByID(ctx context.Context, id int) (*models.Odds, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	odds, ok := r.store.odds[id]
	if !ok {
		return nil, repositories.ErrOddsNotFound
	}
	return copyOdds(odds), nil
}

func (r *memOddsRepo) GetByRoundAndTeam(ctx context.Context, roundID, teamID int) (*models.Odds, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, odds := range r.store.odds {
		if odds.RoundID == roundID && odds.TeamID == teamID {
			return copyOdds(odds), nil
		}
	}
	return nil, repositories.ErrOddsNotFound
}

func (r *memOddsRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Odds, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]*models.Odds, 0)
	for _, odds := range r.store.odds {
		if odds.RoundID == roundID {
			result = append(result, copyOdds(odds))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TeamID < result[j].TeamID })
	return result, nil
}

// --- BetRepository ---

type memBetRepo struct{ store *memStore }

func (r *memBetRepo) Create(ctx context.Context, exec repositories.SQLExecutor, bet *models.Bet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bet.ID = r.store.nextID()
	r.store.bets[bet.ID] = copyBet(bet)
	return nil
}

func (r *memBetRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Bet, error) {
	return r.list(func(b *models.Bet) bool { return b.RoundID == roundID })
}

func (r *memBetRepo) ListByRoundAndTeam(ctx context.Context, roundID, teamID int) ([]*models.Bet, error) {
	return r.list(func(b *models.Bet) bool { return b.RoundID == roundID && b.TeamID == teamID })
}

func (r *memBetRepo) HasFinishBet(ctx context.Context, roundID, teamID int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, bet := range r.store.bets {
		if bet.RoundID == roundID && bet.TeamID == teamID && bet.BetFinish {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBetRepo) ListAll(ctx context.Context) ([]*models.Bet, error) {
	return r.list(func(b *models.Bet) bool { return true })
}

func (r *memBetRepo) list(match func(*models.Bet) bool) ([]*models.Bet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bets := make([]*models.Bet, 0)
	for _, bet := range r.store.bets {
		if match(bet) {
			bets = append(bets, copyBet(bet))
		}
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].ID < bets[j].ID })
	return bets, nil
}

// --- BonusRepository ---

type memBonusRepo struct{ store *memStore }

func (r *memBonusRepo) Create(ctx context.Context, exec repositories.SQLExecutor, bonus *models.Bonus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.bonuses {
		if existing.RoundID == bonus.RoundID && existing.TeamID == bonus.TeamID {
			return repositories.ErrBonusConflict
		}
	}
	bonus.ID = r.store.nextID()
	r.store.bonuses[bonus.ID] = copyBonus(bonus)
	return nil
}

func (r *memBonusRepo) GetPending(ctx context.Context, roundID, teamID int) (*models.Bonus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, bonus := range r.store.bonuses {
		if bonus.RoundID == roundID && bonus.TeamID == teamID && !bonus.Finished {
			return copyBonus(bonus), nil
		}
	}
	return nil, repositories.ErrBonusNotFound
}

func (r *memBonusRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Bonus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bonuses := make([]*models.Bonus, 0)
	for _, bonus := range r.store.bonuses {
		if bonus.RoundID == roundID {
			bonuses = append(bonuses, copyBonus(bonus))
		}
	}
	sort.Slice(bonuses, func(i, j int) bool { return bonuses[i].TeamID < bonuses[j].TeamID })
	return bonuses, nil
}

func (r *memBonusRepo) MarkFinished(ctx context.Context, exec repositories.SQLExecutor, id int, bonusType *models.BonusEffect, bonusTarget *string, description string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bonus, ok := r.store.bonuses[id]
	if !ok || bonus.Finished {
		return repositories.ErrBonusNotFound
	}
	bonus.Finished = true
	bonus.BonusType = bonusType
	bonus.BonusTarget = bonusTarget
	bonus.Description = description
	return nil
}
