package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки бизнес-правил турнира
	ErrInactiveRound      = errors.New("operation targets a non-active round")
	ErrInsufficientTokens = errors.New("team has no bet tokens available")
	ErrInvalidParticipant = errors.New("team is not a participant of the referenced game")
	ErrAlreadyFinished    = errors.New("game result is already recorded")
	ErrNoPendingBonus     = errors.New("team has no pending bonus in this round")
	ErrInvalidOperation   = errors.New("operation is not valid in the current state")

	// Ошибки жизненного цикла турнира
	ErrTournamentAlreadyStarted = errors.New("tournament is already started")
	ErrTournamentNotFinished    = errors.New("tournament is not finished yet")
	ErrNotEnoughTeams           = errors.New("not enough teams to start a tournament")
	ErrSecondPlaceUnresolved    = errors.New("second place has not been resolved")

	// Ошибки, специфичные для сущностей (дублируют ErrNotFound, но дают больше контекста)
	ErrTeamNotFound  = errors.New("team not found")
	ErrRoundNotFound = errors.New("round not found")
	ErrGameNotFound  = errors.New("game not found")
	ErrOddsNotFound  = errors.New("odds not found for this round and team")
	ErrBonusNotFound = errors.New("bonus not found")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid admin credentials")

	// Ошибки команд
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrEmblemNotConfigured = errors.New("emblem storage is not configured")
)
