package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Media storage root; alert videos, thumbnails and HLS segments are
	// written under it with stable relative paths
	MediaRoot string

	// Detector models
	ModelDir string

	// Capture
	CaptureTimeout time.Duration
	FileStride     int // score every Nth frame in file mode

	// Stream proxy (ffmpeg HLS)
	FFmpegBinary       string
	HLSSegmentSeconds  int
	HLSPlaylistSize    int
	ProxyStartupWait   time.Duration
	ProxyMonitorPeriod time.Duration
	ProxyStopGrace     time.Duration

	// NATS (alert events)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	AlertsSubject      string

	// Notification channels. Each is a shoutrrr service URL; SMS and push
	// fall back to logged intents when left empty.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	SMSGateway   string
	PushGateway  string

	// Graceful shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "sentinel-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Media storage
		MediaRoot: getEnv("MEDIA_ROOT", "media"),
		ModelDir:  getEnv("MODEL_DIR", "models"),

		// Capture
		CaptureTimeout: getEnvDuration("CAPTURE_TIMEOUT", 5*time.Second),
		FileStride:     getEnvInt("FILE_FRAME_STRIDE", 5),

		// Stream proxy
		FFmpegBinary:       getEnv("FFMPEG_BINARY", "ffmpeg"),
		HLSSegmentSeconds:  getEnvInt("HLS_SEGMENT_SECONDS", 2),
		HLSPlaylistSize:    getEnvInt("HLS_PLAYLIST_SIZE", 5),
		ProxyStartupWait:   getEnvDuration("PROXY_STARTUP_WAIT", 2*time.Second),
		ProxyMonitorPeriod: getEnvDuration("PROXY_MONITOR_PERIOD", 5*time.Second),
		ProxyStopGrace:     getEnvDuration("PROXY_STOP_GRACE", 5*time.Second),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1),
		AlertsSubject:      getEnv("ALERTS_SUBJECT", "alerts.created"),

		// Notification channels
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "alerts@sentinel.local"),
		SMSGateway:   getEnv("SMS_GATEWAY_URL", ""),
		PushGateway:  getEnv("PUSH_GATEWAY_URL", ""),

		// Graceful shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// AlertVideoDir returns the directory alert videos are written to
func (c *Config) AlertVideoDir() string {
	return filepath.Join(c.MediaRoot, "alerts", "videos")
}

// AlertThumbnailDir returns the directory alert thumbnails are written to
func (c *Config) AlertThumbnailDir() string {
	return filepath.Join(c.MediaRoot, "alerts", "thumbnails")
}

// StreamDir returns the HLS output directory for one camera
func (c *Config) StreamDir(cameraID int64) string {
	return filepath.Join(c.MediaRoot, "streams", strconv.FormatInt(cameraID, 10))
}

// ModelPath resolves a model artifact name against the model directory
func (c *Config) ModelPath(name string) string {
	return filepath.Join(c.ModelDir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer in environment, using default")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid boolean in environment, using default")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration in environment, using default")
	}
	return defaultValue
}
