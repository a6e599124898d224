package server

import (
	"github.com/nulzo/gemini-bridge/internal/server/middleware"
	v1 "github.com/nulzo/gemini-bridge/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Health check stays public.
	healthHandler := v1.NewHealthHandler(s.service)
	s.router.GET("/health", healthHandler.Health)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))

	limiter := middleware.NewRateLimiter(
		s.config.RateLimit.RequestsPerSecond,
		s.config.RateLimit.Burst,
		s.logger,
	)
	api.Use(limiter.Middleware())

	{
		generateHandler := v1.NewGenerateHandler(s.service, s.validator)
		api.POST("/generate", generateHandler.CreateGeneration)

		chatHandler := v1.NewChatHandler(s.service, s.validator)
		api.POST("/chat/completions", chatHandler.CreateCompletion)

		modelHandler := v1.NewModelHandler()
		api.GET("/models", modelHandler.ListModels)

		statusHandler := v1.NewStatusHandler(s.service)
		api.GET("/status", statusHandler.Status)
	}
}
