package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Dosada05/joust-league/models"
	"github.com/Dosada05/joust-league/repositories"
	"github.com/Dosada05/joust-league/storage"
)

var ErrTeamIdentifierTaken = errors.New("team identifier is already taken")

// TeamService manages the participating teams and their emblems.
type TeamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader, logger *slog.Logger) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamService{
		teamRepo: teamRepo,
		uploader: uploader,
		logger:   logger,
	}
}

type CreateTeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Identifier is the team's access credential. Left empty, a random one is
	// generated.
	Identifier string `json:"identifier,omitempty"`
}

// Create registers a new team at the start line with zero tokens.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		identifier = uuid.NewString()
	}

	team := &models.Team{
		Identifier:  identifier,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		if errors.Is(err, repositories.ErrTeamIdentifierConflict) {
			return nil, ErrTeamIdentifierTaken
		}
		return nil, err
	}
	s.logger.Info("team registered", "team_id", team.ID, "name", team.Name)
	return team, nil
}

// List returns every team with public emblem URLs resolved.
func (s *TeamService) List(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		populateEmblemURL(team, s.uploader)
	}
	return teams, nil
}

func (s *TeamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	populateEmblemURL(team, s.uploader)
	return team, nil
}

// GetByIdentifier resolves a team by its access credential.
func (s *TeamService) GetByIdentifier(ctx context.Context, identifier string) (*models.Team, error) {
	team, err := s.teamRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	populateEmblemURL(team, s.uploader)
	return team, nil
}

// UploadEmblem stores a new emblem image and swaps the team's storage key.
// The previous object is deleted best-effort.
func (s *TeamService) UploadEmblem(ctx context.Context, teamID int, contentType string, reader io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrEmblemNotConfigured
	}
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOperation, err)
	}
	key := fmt.Sprintf("emblems/team_%d_%s%s", teamID, uuid.NewString(), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload emblem for team %d: %w", teamID, err)
	}

	oldKey := team.EmblemKey
	if err := s.teamRepo.UpdateEmblemKey(ctx, teamID, &result.Key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous emblem", "team_id", teamID, "key", *oldKey, "error", err)
		}
	}

	team.EmblemKey = &result.Key
	team.EmblemURL = nil
	populateEmblemURL(team, s.uploader)
	return team, nil
}
