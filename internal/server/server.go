package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/gemini-bridge/internal/config"
	"github.com/nulzo/gemini-bridge/internal/gateway"
	"github.com/nulzo/gemini-bridge/internal/server/middleware"
	"github.com/nulzo/gemini-bridge/internal/server/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	service   *gateway.Service
	validator *validator.Validator
}

func New(cfg *config.Config, logger *zap.Logger, service *gateway.Service) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))
	engine.Use(otelgin.Middleware("gemini-bridge"))

	s := &Server{
		router:    engine,
		config:    cfg,
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
