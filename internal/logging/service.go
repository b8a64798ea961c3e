package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
)

// Setup configures the global zerolog logger for the worker. In
// development the console writer is used, otherwise plain JSON. When
// Logdy is enabled log lines are teed into its web UI.
func Setup(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if cfg.Environment == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	if cfg.LogdyEnabled {
		if tee, url, err := StartLogdy(cfg); err == nil {
			out = io.MultiWriter(out, tee)
			log.Info().Str("url", url).Msg("Log tee to Logdy enabled")
		} else {
			log.Warn().Err(err).Msg("Failed to start Logdy, continuing without it")
		}
	}

	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("worker_id", cfg.WorkerID).
		Logger()
}

// ForService returns a logger tagged with a service name
func ForService(service string) zerolog.Logger {
	return log.With().Str("service", service).Logger()
}

// WithCamera returns a logger with camera context
func WithCamera(base zerolog.Logger, cameraID int64) zerolog.Logger {
	return base.With().Int64("camera_id", cameraID).Logger()
}
