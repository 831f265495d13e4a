package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/joust-league/handlers"
	"github.com/Dosada05/joust-league/middleware"
	"github.com/Dosada05/joust-league/services"
)

// SetupRoutes wires every handler into the router.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/admin/login", authHandler.LoginAdmin)
	router.Post("/auth/team/login", authHandler.LoginTeam)

	router.Get("/ws", webSocketHandler.ServeWs)

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/{teamID}", teamHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(services.RoleAdmin))
			r.Post("/", teamHandler.Create)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(services.RoleAdmin, services.RoleTeam))
			r.Post("/{teamID}/emblem", teamHandler.UploadEmblem)
		})
	})

	router.Route("/tournament", func(r chi.Router) {
		// Public spectator endpoints.
		r.Get("/round", tournamentHandler.ActiveRound)
		r.Get("/snapshot", tournamentHandler.Snapshot)
		r.Get("/completion", tournamentHandler.Completion)
		r.Get("/final-results", tournamentHandler.FinalResults)

		// Team actions.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(services.RoleTeam))

			r.Get("/betting-table", tournamentHandler.BettingTable)
			r.Post("/bets", tournamentHandler.PlaceBet)
			r.Get("/opponent", tournamentHandler.CurrentOpponent)
			r.Post("/results", tournamentHandler.RecordResult)
			r.Get("/bonus", tournamentHandler.PendingBonus)
			r.Post("/bonus", tournamentHandler.UseBonus)
		})

		// Admin actions.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(services.RoleAdmin))

			r.Post("/start", tournamentHandler.Start)
			r.Post("/second-place", tournamentHandler.ResolveSecondPlace)
		})
	})
}
