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
	ErrGameNotFound        = errors.New("game not found")
	ErrGameTeamInvalid     = errors.New("game team conflict or invalid")
	ErrGameAlreadyFinished = errors.New("game is already finished")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Game, error)
	// ListByTeam returns the team's games most recent first. The per-team
	// lookup replaces ad hoc "team1 or team2" filtering at call sites.
	ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.Game, error)
	// RecordResult writes the outcome of an unfinished game exactly once.
	RecordResult(ctx context.Context, exec SQLExecutor, id int, team1Won bool) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, round_id, team1_id, team2_id, location, win, finished, created_at, updated_at`

func scanGame(row interface{ Scan(dest ...interface{}) error }) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(
		&game.ID,
		&game.RoundID,
		&game.Team1ID,
		&game.Team2ID,
		&game.Location,
		&game.Win,
		&game.Finished,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO games (round_id, team1_id, team2_id, location, win, finished)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		game.RoundID,
		game.Team1ID,
		game.Team2ID,
		game.Location,
		game.Win,
		game.Finished,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE round_id = $1 ORDER BY id ASC`

	return r.queryGames(ctx, query, roundID)
}

func (r *postgresGameRepository) ListByTeam(ctx context.Context, teamID int, limit int) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE team1_id = $1 OR team2_id = $1
		ORDER BY id DESC
		LIMIT $2`

	return r.queryGames(ctx, query, teamID, limit)
}

func (r *postgresGameRepository) RecordResult(ctx context.Context, exec SQLExecutor, id int, team1Won bool) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE games
		SET win = $1, finished = true, updated_at = now()
		WHERE id = $2 AND finished = false`

	result, err := exec.ExecContext(ctx, query, team1Won, id)
	if err != nil {
		return fmt.Errorf("failed to record result for game %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the game does not exist or its result is already in.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrGameAlreadyFinished
	}
	return nil
}

func (r *postgresGameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]*models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game, scanErr := scanGame(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, game)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23503": foreign_key_violation, "23514": check_violation
		switch pqErr.Constraint {
		case "games_team1_id_fkey", "games_team2_id_fkey", "games_distinct_teams_check":
			return ErrGameTeamInvalid
		case "games_round_id_fkey":
			return ErrRoundNotFound
		}
	}
	return err
}
