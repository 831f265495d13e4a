package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/joust-league/models"
)

var (
	ErrRoundNotFound = errors.New("round not found")
	ErrNoActiveRound = errors.New("no active round")
)

type RoundRepository interface {
	GetByID(ctx context.Context, id int) (*models.Round, error)
	// GetActive returns the single active round, ErrNoActiveRound otherwise.
	GetActive(ctx context.Context) (*models.Round, error)
	// FindInactive looks up a pre-generated round awaiting activation.
	FindInactive(ctx context.Context, number int, stage models.Stage) (*models.Round, error)
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	SetActive(ctx context.Context, exec SQLExecutor, id int, active bool) error
	SetPlacements(ctx context.Context, exec SQLExecutor, id int, firstTeamID, secondTeamID *int) error
	List(ctx context.Context) ([]*models.Round, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

const roundColumns = `id, number, stage, active, first_place_team_id, second_place_team_id, created_at, updated_at`

func scanRound(row interface{ Scan(dest ...interface{}) error }) (*models.Round, error) {
	round := &models.Round{}
	err := row.Scan(
		&round.ID,
		&round.Number,
		&round.Stage,
		&round.Active,
		&round.FirstPlaceTeamID,
		&round.SecondPlaceTeamID,
		&round.CreatedAt,
		&round.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return round, nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`

	round, err := scanRound(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round by id %d: %w", id, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) GetActive(ctx context.Context) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE active = true`

	round, err := scanRound(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveRound
		}
		return nil, fmt.Errorf("failed to scan active round: %w", err)
	}
	return round, nil
}

func (r *postgresRoundRepository) FindInactive(ctx context.Context, number int, stage models.Stage) (*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE number = $1 AND stage = $2 AND active = false
		ORDER BY id DESC
		LIMIT 1`

	round, err := scanRound(r.db.QueryRowContext(ctx, query, number, stage))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan inactive round %d/%s: %w", number, stage, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO rounds (number, stage, active, first_place_team_id, second_place_team_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		round.Number,
		round.Stage,
		round.Active,
		round.FirstPlaceTeamID,
		round.SecondPlaceTeamID,
	).Scan(&round.ID, &round.CreatedAt, &round.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round %d/%s: %w", round.Number, round.Stage, err)
	}
	return nil
}

func (r *postgresRoundRepository) SetActive(ctx context.Context, exec SQLExecutor, id int, active bool) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE rounds SET active = $1, updated_at = now() WHERE id = $2`

	result, err := exec.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to set round %d active=%t: %w", id, active, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) SetPlacements(ctx context.Context, exec SQLExecutor, id int, firstTeamID, secondTeamID *int) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE rounds
		SET first_place_team_id = $1, second_place_team_id = $2, updated_at = now()
		WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, firstTeamID, secondTeamID, id)
	if err != nil {
		return fmt.Errorf("failed to set placements on round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) List(ctx context.Context) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		round, scanErr := scanRound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}
