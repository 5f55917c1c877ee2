package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/prode/handlers"
	"github.com/Dosada05/prode/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Stage     *handlers.StageHandler
	Match     *handlers.MatchHandler
	Bet       *handlers.BetHandler
	Ranking   *handlers.RankingHandler
	User      *handlers.UserHandler
	WebSocket *handlers.WebSocketHandler
	Health    http.HandlerFunc
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.RankingMemo)

	authenticate := middleware.Authenticate(opts.JWTSecret)
	optionalAuth := middleware.OptionalAuthenticate(opts.JWTSecret)

	if h.Health != nil {
		router.Get("/healthz", h.Health)
	}

	router.Route("/auth", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(10 * time.Second))
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	// Список этапов доступен и анонимно, но тогда он пуст
	router.With(optionalAuth).Get("/stages", h.Stage.List)

	// WebSocket: браузер не умеет передавать Authorization при upgrade
	router.With(optionalAuth).Get("/ws/stages/{slug}", h.WebSocket.ServeStage)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.With(middleware.RequirePrivileged).Post("/stages", h.Stage.Create)
		r.Route("/stages/{slug}", func(r chi.Router) {
			r.Get("/", h.Stage.Get)
			r.Get("/next-action", h.Stage.NextAction)
			r.Get("/matches", h.Match.ListByStage)
			r.Get("/ranking", h.Ranking.Stage)
			r.Get("/bets/form", h.Bet.Form)
			r.Put("/bets", h.Bet.Submit)
			r.Get("/bets", h.Bet.ListStage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrivileged)
				r.Put("/", h.Stage.Update)
				r.Delete("/", h.Stage.Delete)
				r.Post("/matches", h.Match.Create)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Use(middleware.RequirePrivileged)
			r.Put("/", h.Match.Update)
			r.Delete("/", h.Match.Delete)
			r.Put("/result", h.Match.SetResult)
			r.Delete("/result", h.Match.ClearResult)
		})

		r.Get("/ranking", h.Ranking.Global)
		r.Get("/ranking/me", h.Ranking.Me)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.User.List)
			r.Put("/me", h.User.UpdateMe)
			r.Post("/me/avatar", h.User.UploadAvatar)
			r.Get("/{username}", h.User.GetProfile)
		})
	})
}
