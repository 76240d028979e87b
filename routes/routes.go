package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brainiak-app/brainiak-core/handlers"
	"github.com/brainiak-app/brainiak-core/middleware"
)

// SetupRoutes mounts all HTTP and websocket routes on the router.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	matchmakingHandler *handlers.MatchmakingHandler,
	battleRoomHandler *handlers.BattleRoomHandler,
	gameHandler *handlers.GameHandler,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/users/me", profileHandler.GetMe)
		r.Put("/users/me/avatar", profileHandler.UploadAvatar)
		r.Get("/users/{userID}", profileHandler.GetUser)
		r.Get("/leaderboard", profileHandler.Leaderboard)

		r.Route("/queue", func(r chi.Router) {
			r.Post("/", matchmakingHandler.JoinQueue)
			r.Delete("/", matchmakingHandler.LeaveQueue)
			r.Get("/match", matchmakingHandler.CheckMatch)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", battleRoomHandler.CreateRoom)
			r.Post("/join", battleRoomHandler.JoinRoom)
			r.Get("/{roomID}", battleRoomHandler.GetRoom)
			r.Put("/{roomID}/ready", battleRoomHandler.SetReady)
			r.Post("/{roomID}/start", battleRoomHandler.StartGame)
			r.Delete("/{roomID}", battleRoomHandler.CancelRoom)
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/current", gameHandler.GetCurrentGame)
			r.Get("/{roomID}", gameHandler.GetGame)
			r.Post("/{roomID}/start", gameHandler.StartGame)
			r.Post("/{roomID}/answers", gameHandler.SubmitAnswer)
			r.Post("/{roomID}/end", gameHandler.EndGame)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", tournamentHandler.CreateTournament)
			r.Get("/", tournamentHandler.ListTournaments)
			r.Get("/mine", tournamentHandler.ListMyTournaments)
			r.Get("/{tournamentID}", tournamentHandler.GetTournament)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinTournament)
			r.Delete("/{tournamentID}/leave", tournamentHandler.LeaveTournament)
			r.Delete("/{tournamentID}", tournamentHandler.CancelTournament)
			r.Post("/{tournamentID}/matches/next", tournamentHandler.StartNextMatch)
			r.Post("/{tournamentID}/matches/resume", tournamentHandler.ResumeMatch)
			r.Get("/{tournamentID}/matches/mine", tournamentHandler.GetPlayerNextMatch)
			r.Post("/{tournamentID}/chat", tournamentHandler.SendChatMessage)
		})

		r.Get("/ws/{scope}", webSocketHandler.Subscribe)
		r.Get("/ws/{scope}/{id}", webSocketHandler.Subscribe)
	})
}
