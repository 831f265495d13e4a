package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/joust-league/middleware"
	"github.com/Dosada05/joust-league/services"
)

type TournamentHandler struct {
	tournamentService *services.TournamentService
}

func NewTournamentHandler(tournamentService *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

// Start handles POST /tournament/start.
func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	round, err := h.tournamentService.StartTournament(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil)
}

// ActiveRound handles GET /tournament/round.
func (h *TournamentHandler) ActiveRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.tournamentService.ActiveRound(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil)
}

// Snapshot handles GET /tournament/snapshot.
func (h *TournamentHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.tournamentService.Snapshot(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot, nil)
}

// Completion handles GET /tournament/completion.
func (h *TournamentHandler) Completion(w http.ResponseWriter, r *http.Request) {
	flags, err := h.tournamentService.CompletionFlags(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"completion": flags}, nil)
}

// BettingTable handles GET /tournament/betting-table.
func (h *TournamentHandler) BettingTable(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.TeamIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "team token required")
		return
	}

	table, err := h.tournamentService.BettingTable(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"table": table}, nil)
}

// PlaceBet handles POST /tournament/bets.
func (h *TournamentHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.TeamIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "team token required")
		return
	}

	var input struct {
		RoundID     int `json:"round_id"`
		BetOnTeamID int `json:"bet_on_team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.PlaceBet(r.Context(), services.PlaceBetInput{
		RoundID:     input.RoundID,
		TeamID:      teamID,
		BetOnTeamID: input.BetOnTeamID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

// CurrentOpponent handles GET /tournament/opponent.
func (h *TournamentHandler) CurrentOpponent(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.TeamIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "team token required")
		return
	}

	view, err := h.tournamentService.CurrentOpponent(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

// RecordResult handles POST /tournament/results.
func (h *TournamentHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.TeamIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "team token required")
		return
	}

	var input struct {
		RoundID  int `json:"round_id"`
		GameID   int `json:"game_id"`
		WinnerID int `json:"winner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.tournamentService.RecordMatchResult(r.Context(), services.MatchResultInput{
		RoundID:  input.RoundID,
		GameID:   input.GameID,
		TeamID:   teamID,
		WinnerID: input.WinnerID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome, nil)
}

// PendingBonus handles GET /tournament/bonus.
func (h *TournamentHandler) PendingBonus(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.TeamIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "team token required")
		return
	}

	bonus, err := h.tournamentService.PendingBonus(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"bonus": bonus}, nil)
}

// UseBonus handles POST /tournament/bonus.
func (h *TournamentHandler) UseBonus(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.TeamIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "team token required")
		return
	}

	var input struct {
		RoundID      int     `json:"round_id"`
		Effect       string  `json:"effect"`
		TargetTeamID *int    `json:"target_team_id,omitempty"`
		Location     *string `json:"location,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.UseBonus(r.Context(), services.UseBonusInput{
		RoundID:      input.RoundID,
		TeamID:       teamID,
		Effect:       input.Effect,
		TargetTeamID: input.TargetTeamID,
		Location:     input.Location,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

// ResolveSecondPlace handles POST /tournament/second-place.
func (h *TournamentHandler) ResolveSecondPlace(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TeamID int `json:"team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamID < 1 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}

	round, err := h.tournamentService.ResolveSecondPlace(r.Context(), input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil)
}

// FinalResults handles GET /tournament/final-results.
func (h *TournamentHandler) FinalResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.tournamentService.FinalResults(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results, nil)
}
