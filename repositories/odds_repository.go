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
	ErrOddsNotFound = errors.New("odds not found")
	ErrOddsConflict = errors.New("odds already exist for this round and team")
)

type OddsRepository interface {
	Create(ctx context.Context, exec SQLExecutor, odds *models.Odds) error
	GetByID(ctx context.Context, id int) (*models.Odds, error)
	GetByRoundAndTeam(ctx context.Context, roundID, teamID int) (*models.Odds, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Odds, error)
}

type postgresOddsRepository struct {
	db *sql.DB
}

func NewPostgresOddsRepository(db *sql.DB) OddsRepository {
	return &postgresOddsRepository{db: db}
}

const oddsColumns = `id, round_id, team_id, odd1, odd2, created_at`

func scanOdds(row interface{ Scan(dest ...interface{}) error }) (*models.Odds, error) {
	odds := &models.Odds{}
	err := row.Scan(
		&odds.ID,
		&odds.RoundID,
		&odds.TeamID,
		&odds.Odd1,
		&odds.Odd2,
		&odds.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return odds, nil
}

func (r *postgresOddsRepository) Create(ctx context.Context, exec SQLExecutor, odds *models.Odds) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO odds (round_id, team_id, odd1, odd2)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		odds.RoundID,
		odds.TeamID,
		odds.Odd1,
		odds.Odd2,
	).Scan(&odds.ID, &odds.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "odds_round_id_team_id_key" {
			return ErrOddsConflict
		}
		return fmt.Errorf("failed to create odds for round %d team %d: %w", odds.RoundID, odds.TeamID, err)
	}
	return nil
}

func (r *postgresOddsRepository) GetByID(ctx context.Context, id int) (*models.Odds, error) {
	query := `SELECT ` + oddsColumns + ` FROM odds WHERE id = $1`

	odds, err := scanOdds(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOddsNotFound
		}
		return nil, fmt.Errorf("failed to scan odds by id %d: %w", id, err)
	}
	return odds, nil
}

func (r *postgresOddsRepository) GetByRoundAndTeam(ctx context.Context, roundID, teamID int) (*models.Odds, error) {
	query := `SELECT ` + oddsColumns + ` FROM odds WHERE round_id = $1 AND team_id = $2`

	odds, err := scanOdds(r.db.QueryRowContext(ctx, query, roundID, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOddsNotFound
		}
		return nil, fmt.Errorf("failed to scan odds for round %d team %d: %w", roundID, teamID, err)
	}
	return odds, nil
}

func (r *postgresOddsRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Odds, error) {
	query := `SELECT ` + oddsColumns + ` FROM odds WHERE round_id = $1 ORDER BY team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds for round %d: %w", roundID, err)
	}
	defer rows.Close()

	result := make([]*models.Odds, 0)
	for rows.Next() {
		odds, scanErr := scanOdds(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan odds row: %w", scanErr)
		}
		result = append(result, odds)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during odds rows iteration: %w", err)
	}
	return result, nil
}
