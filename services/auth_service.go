package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/joust-league/models"
)

const (
	RoleAdmin = "admin"
	RoleTeam  = "team"
)

const defaultTokenTTL = 24 * time.Hour

type AuthConfig struct {
	JWTSecret string
	// AdminPasswordHash is the bcrypt hash the admin password is checked
	// against.
	AdminPasswordHash string
	TokenTTL          time.Duration
}

// AuthService issues the JWTs both roles use: the admin authenticates with a
// password, a team with its identifier.
type AuthService struct {
	cfg    AuthConfig
	teams  *TeamService
	logger *slog.Logger
}

func NewAuthService(cfg AuthConfig, teams *TeamService, logger *slog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{cfg: cfg, teams: teams, logger: logger}
}

// LoginAdmin checks the admin password and returns a signed token.
func (s *AuthService) LoginAdmin(ctx context.Context, password string) (string, error) {
	err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrAuthInvalidCredentials
		}
		return "", fmt.Errorf("failed to compare password hash: %w", err)
	}
	return s.signToken(jwt.MapClaims{"role": RoleAdmin})
}

// LoginTeam exchanges a team identifier for a signed token carrying the team
// ID.
func (s *AuthService) LoginTeam(ctx context.Context, identifier string) (string, *models.Team, error) {
	team, err := s.teams.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return "", nil, ErrAuthInvalidCredentials
		}
		return "", nil, err
	}
	token, err := s.signToken(jwt.MapClaims{"role": RoleTeam, "team_id": team.ID})
	if err != nil {
		return "", nil, err
	}
	return token, team, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	now := time.Now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(s.cfg.TokenTTL).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
