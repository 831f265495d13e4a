package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/joust-league/models"
	"github.com/lib/pq"
)

var (
	ErrBetNotFound    = errors.New("bet not found")
	ErrBetTeamInvalid = errors.New("bet team conflict or invalid")
)

type BetRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bet *models.Bet) error
	ListByRound(ctx context.Context, roundID int) ([]*models.Bet, error)
	ListByRoundAndTeam(ctx context.Context, roundID, teamID int) ([]*models.Bet, error)
	// HasFinishBet reports whether the team already placed the bet that
	// exhausted its tokens for the round.
	HasFinishBet(ctx context.Context, roundID, teamID int) (bool, error)
	ListAll(ctx context.Context) ([]*models.Bet, error)
}

type postgresBetRepository struct {
	db *sql.DB
}

func NewPostgresBetRepository(db *sql.DB) BetRepository {
	return &postgresBetRepository{db: db}
}

const betColumns = `id, team_id, bet_on_team_id, odds_id, round_id, bet_finish, created_at`

func scanBet(row interface{ Scan(dest ...interface{}) error }) (*models.Bet, error) {
	bet := &models.Bet{}
	err := row.Scan(
		&bet.ID,
		&bet.TeamID,
		&bet.BetOnTeamID,
		&bet.OddsID,
		&bet.RoundID,
		&bet.BetFinish,
		&bet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bet, nil
}

func (r *postgresBetRepository) Create(ctx context.Context, exec SQLExecutor, bet *models.Bet) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO bets (team_id, bet_on_team_id, odds_id, round_id, bet_finish)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		bet.TeamID,
		bet.BetOnTeamID,
		bet.OddsID,
		bet.RoundID,
		bet.BetFinish,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "bets_team_id_fkey", "bets_bet_on_team_id_fkey":
				return ErrBetTeamInvalid
			case "bets_odds_id_fkey":
				return ErrOddsNotFound
			case "bets_round_id_fkey":
				return ErrRoundNotFound
			}
		}
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

func (r *postgresBetRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 ORDER BY id ASC`

	return r.queryBets(ctx, query, roundID)
}

func (r *postgresBetRepository) ListByRoundAndTeam(ctx context.Context, roundID, teamID int) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 AND team_id = $2 ORDER BY id ASC`

	return r.queryBets(ctx, query, roundID, teamID)
}

func (r *postgresBetRepository) HasFinishBet(ctx context.Context, roundID, teamID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bets WHERE round_id = $1 AND team_id = $2 AND bet_finish = true)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, roundID, teamID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check finish bet for round %d team %d: %w", roundID, teamID, err)
	}
	return exists, nil
}

func (r *postgresBetRepository) ListAll(ctx context.Context) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets ORDER BY id ASC`

	return r.queryBets(ctx, query)
}

func (r *postgresBetRepository) queryBets(ctx context.Context, query string, args ...interface{}) ([]*models.Bet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	bets := make([]*models.Bet, 0)
	for rows.Next() {
		bet, scanErr := scanBet(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bet row: %w", scanErr)
		}
		bets = append(bets, bet)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bet rows iteration: %w", err)
	}
	return bets, nil
}
