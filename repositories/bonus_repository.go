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
	ErrBonusNotFound = errors.New("bonus not found")
	ErrBonusConflict = errors.New("bonus already exists for this round and team")
)

type BonusRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bonus *models.Bonus) error
	// GetPending returns the team's unfinished bonus for the round.
	GetPending(ctx context.Context, roundID, teamID int) (*models.Bonus, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Bonus, error)
	// MarkFinished consumes a pending bonus exactly once, recording the
	// chosen effect.
	MarkFinished(ctx context.Context, exec SQLExecutor, id int, bonusType *models.BonusEffect, bonusTarget *string, description string) error
}

type postgresBonusRepository struct {
	db *sql.DB
}

func NewPostgresBonusRepository(db *sql.DB) BonusRepository {
	return &postgresBonusRepository{db: db}
}

const bonusColumns = `id, round_id, team_id, finished, description, bonus_type, bonus_target, created_at, updated_at`

func scanBonus(row interface{ Scan(dest ...interface{}) error }) (*models.Bonus, error) {
	bonus := &models.Bonus{}
	err := row.Scan(
		&bonus.ID,
		&bonus.RoundID,
		&bonus.TeamID,
		&bonus.Finished,
		&bonus.Description,
		&bonus.BonusType,
		&bonus.BonusTarget,
		&bonus.CreatedAt,
		&bonus.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bonus, nil
}

func (r *postgresBonusRepository) Create(ctx context.Context, exec SQLExecutor, bonus *models.Bonus) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO bonuses (round_id, team_id, finished, description, bonus_type, bonus_target)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		bonus.RoundID,
		bonus.TeamID,
		bonus.Finished,
		bonus.Description,
		bonus.BonusType,
		bonus.BonusTarget,
	).Scan(&bonus.ID, &bonus.CreatedAt, &bonus.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "bonuses_round_id_team_id_key" {
			return ErrBonusConflict
		}
		return fmt.Errorf("failed to create bonus for round %d team %d: %w", bonus.RoundID, bonus.TeamID, err)
	}
	return nil
}

func (r *postgresBonusRepository) GetPending(ctx context.Context, roundID, teamID int) (*models.Bonus, error) {
	query := `SELECT ` + bonusColumns + ` FROM bonuses WHERE round_id = $1 AND team_id = $2 AND finished = false`

	bonus, err := scanBonus(r.db.QueryRowContext(ctx, query, roundID, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBonusNotFound
		}
		return nil, fmt.Errorf("failed to scan pending bonus for round %d team %d: %w", roundID, teamID, err)
	}
	return bonus, nil
}

func (r *postgresBonusRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Bonus, error) {
	query := `SELECT ` + bonusColumns + ` FROM bonuses WHERE round_id = $1 ORDER BY team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonuses for round %d: %w", roundID, err)
	}
	defer rows.Close()

	bonuses := make([]*models.Bonus, 0)
	for rows.Next() {
		bonus, scanErr := scanBonus(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bonus row: %w", scanErr)
		}
		bonuses = append(bonuses, bonus)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bonus rows iteration: %w", err)
	}
	return bonuses, nil
}

func (r *postgresBonusRepository) MarkFinished(ctx context.Context, exec SQLExecutor, id int, bonusType *models.BonusEffect, bonusTarget *string, description string) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE bonuses
		SET finished = true, bonus_type = $1, bonus_target = $2, description = $3, updated_at = now()
		WHERE id = $4 AND finished = false`

	result, err := exec.ExecContext(ctx, query, bonusType, bonusTarget, description, id)
	if err != nil {
		return fmt.Errorf("failed to mark bonus %d finished: %w", id, err)
	}
	return checkAffectedRows(result, ErrBonusNotFound)
}
