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
	ErrTeamNotFound            = errors.New("team not found")
	ErrTeamIdentifierConflict  = errors.New("team identifier is already in use")
	ErrTeamBalanceWouldBeLower = errors.New("team balance update would go negative")
)

type TeamRepository interface {
	List(ctx context.Context) ([]*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Team, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	// AdjustDistance atomically applies delta and returns the new distance.
	AdjustDistance(ctx context.Context, exec SQLExecutor, id int, delta int) (int, error)
	// AdjustBets atomically applies delta and returns the new balance.
	// Fails with ErrTeamBalanceWouldBeLower instead of going negative.
	AdjustBets(ctx context.Context, exec SQLExecutor, id int, delta int) (int, error)
	UpdateEmblemKey(ctx context.Context, id int, key *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, identifier, name, description, distance, bets_available, emblem_key, created_at, updated_at`

func scanTeam(row interface{ Scan(dest ...interface{}) error }) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(
		&team.ID,
		&team.Identifier,
		&team.Name,
		&team.Description,
		&team.Distance,
		&team.BetsAvailable,
		&team.EmblemKey,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE identifier = $1`

	team, err := scanTeam(r.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by identifier %q: %w", identifier, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO teams (identifier, name, description, distance, bets_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		team.Identifier,
		team.Name,
		team.Description,
		team.Distance,
		team.BetsAvailable,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) AdjustDistance(ctx context.Context, exec SQLExecutor, id int, delta int) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE teams
		SET distance = distance + $1, updated_at = now()
		WHERE id = $2
		RETURNING distance`

	var distance int
	err := exec.QueryRowContext(ctx, query, delta, id).Scan(&distance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTeamNotFound
		}
		return 0, fmt.Errorf("failed to adjust distance for team %d: %w", id, err)
	}
	return distance, nil
}

func (r *postgresTeamRepository) AdjustBets(ctx context.Context, exec SQLExecutor, id int, delta int) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE teams
		SET bets_available = bets_available + $1, updated_at = now()
		WHERE id = $2 AND bets_available + $1 >= 0
		RETURNING bets_available`

	var balance int
	err := exec.QueryRowContext(ctx, query, delta, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the team does not exist or the update would go negative.
			// The check goes through exec: rows inserted earlier in the same
			// transaction are not visible to the pooled connection.
			var exists bool
			checkErr := exec.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1)`, id,
			).Scan(&exists)
			if checkErr != nil {
				return 0, fmt.Errorf("failed to adjust bet balance for team %d: %w", id, checkErr)
			}
			if !exists {
				return 0, ErrTeamNotFound
			}
			return 0, ErrTeamBalanceWouldBeLower
		}
		return 0, fmt.Errorf("failed to adjust bet balance for team %d: %w", id, err)
	}
	return balance, nil
}

func (r *postgresTeamRepository) UpdateEmblemKey(ctx context.Context, id int, key *string) error {
	query := `UPDATE teams SET emblem_key = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return fmt.Errorf("failed to update emblem key for team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23505": unique_violation
		switch pqErr.Constraint {
		case "teams_identifier_key":
			return ErrTeamIdentifierConflict
		}
	}
	return err
}
