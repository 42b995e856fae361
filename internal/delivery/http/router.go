package http

import (
	"net/http"

	"github.com/frontandrew/garage/internal/delivery/http/middleware"
	"github.com/frontandrew/garage/internal/pkg/config"
	"github.com/frontandrew/garage/internal/pkg/jwt"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	authHandler    *AuthHandler
	garageHandler  *GarageHandler
	weatherHandler *WeatherHandler
	tokenService   *jwt.TokenService
	config         *config.Config
	logger         logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	authHandler *AuthHandler,
	garageHandler *GarageHandler,
	weatherHandler *WeatherHandler,
	tokenService *jwt.TokenService,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		garageHandler:  garageHandler,
		weatherHandler: weatherHandler,
		tokenService:   tokenService,
		config:         config,
		logger:         logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: rt.config.CORS.AllowedOrigins,
		AllowedMethods: rt.config.CORS.AllowedMethods,
		AllowedHeaders: rt.config.CORS.AllowedHeaders,
	}))

	// Health check endpoint (публичный)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (без аутентификации)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.authHandler.Register)
			r.Post("/login", rt.authHandler.Login)
		})

		// Прогноз погоды (публичный - нужен еще на экране входа)
		r.Get("/weather/{city}", rt.weatherHandler.GetForecast)

		// Protected routes (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.tokenService))

			r.Get("/auth/me", rt.authHandler.GetMe)

			// Garage endpoints
			r.Route("/garage/vehicles", func(r chi.Router) {
				r.Get("/", rt.garageHandler.ListVehicles)
				r.Post("/", rt.garageHandler.CreateVehicle)
				r.Put("/{id}", rt.garageHandler.UpdateVehicle)
				r.Delete("/{id}", rt.garageHandler.DeleteVehicle)
			})
		})
	})

	return r
}
