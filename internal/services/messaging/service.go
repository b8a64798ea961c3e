package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
)

// Service publishes pipeline events to NATS so the surrounding platform
// (dashboards, recorders, downstream automations) can react to alerts
// without polling. Optional: a nil Service is a valid no-op publisher.
type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name(cfg.WorkerID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

// AlertEvent is the wire payload for alert lifecycle events
type AlertEvent struct {
	WorkerID   string        `json:"worker_id"`
	Alert      *models.Alert `json:"alert"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// PublishAlert emits the alert on the configured subject. Safe on a nil
// receiver.
func (s *Service) PublishAlert(alert *models.Alert) {
	if s == nil {
		return
	}
	event := AlertEvent{
		WorkerID:   s.cfg.WorkerID,
		Alert:      alert,
		OccurredAt: time.Now(),
	}
	if err := s.Publish(s.cfg.AlertsSubject, event); err != nil {
		log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to publish alert event")
		return
	}
	log.Debug().Int64("alert_id", alert.ID).Str("subject", s.cfg.AlertsSubject).Msg("Alert event published")
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.conn.Publish(subject, payload)
}

func (s *Service) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

func (s *Service) IsConnected() bool {
	return s != nil && s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s == nil || s.conn == nil {
		return nil
	}
	// Try graceful drain, fall back to immediate close
	if err := s.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
		s.conn.Close()
	}
	return nil
}
