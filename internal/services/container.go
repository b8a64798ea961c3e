package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/services/detector"
	"sentinel-core-go/internal/services/framesource"
	"sentinel-core-go/internal/services/messaging"
	"sentinel-core-go/internal/services/notification"
	"sentinel-core-go/internal/services/streamproxy"
	"sentinel-core-go/internal/services/videoprocessor"
	"sentinel-core-go/internal/store"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config       *config.Config
	Store        *store.Memory
	Models       *detector.Manager
	FrameSource  *framesource.Service
	StreamProxy  *streamproxy.Service
	Processor    *videoprocessor.Service
	Notification *notification.Engine
	Messaging    *messaging.Service
}

// NewServiceContainer creates a new service container
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	mem := store.NewMemory()

	manager := detector.NewManager(cfg)
	if report := manager.ValidateModels(); !report.AllValid {
		for _, missing := range report.Missing {
			log.Warn().Str("model", missing.Key).Str("path", missing.Path).Msg("Model file missing, detector will be unavailable")
		}
	}

	sources := framesource.NewService(cfg)
	proxy := streamproxy.NewService(cfg, sources)
	engine := notification.NewEngine(cfg, mem, mem, mem)

	// NATS is optional: without it alert events stay local
	var events *messaging.Service
	if cfg.NatsEnabled {
		var err error
		events, err = messaging.NewService(cfg)
		if err != nil {
			return nil, err
		}
	}

	processor := videoprocessor.NewService(cfg, manager, sources, mem, mem, engine, events)

	return &ServiceContainer{
		Config:       cfg,
		Store:        mem,
		Models:       manager,
		FrameSource:  sources,
		StreamProxy:  proxy,
		Processor:    processor,
		Notification: engine,
		Messaging:    events,
	}, nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.StreamProxy != nil {
		sc.StreamProxy.StopAll()
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			return err
		}
	}

	if sc.Models != nil {
		sc.Models.Close()
	}

	return nil
}
