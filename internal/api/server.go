package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/api/handlers"
	"sentinel-core-go/internal/api/middleware"
	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/services"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler  *handlers.HealthHandler
	processHandler *handlers.ProcessHandler
	modelsHandler  *handlers.ModelsHandler
	streamHandler  *handlers.StreamHandler
	cameraHandler  *handlers.CameraHandler
	alertHandler   *handlers.AlertHandler
}

func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:         cfg,
		router:         gin.New(),
		healthHandler:  handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, container.Messaging),
		processHandler: handlers.NewProcessHandler(container.Processor),
		modelsHandler:  handlers.NewModelsHandler(container.Models),
		streamHandler:  handlers.NewStreamHandler(cfg, container.StreamProxy, container.Store),
		cameraHandler:  handlers.NewCameraHandler(container.Store, container.FrameSource),
		alertHandler:   handlers.NewAlertHandler(container.Store, container.Store),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestID())
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting API server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping API server")
	return s.server.Shutdown(ctx)
}
