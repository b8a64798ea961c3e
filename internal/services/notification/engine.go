package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/store"
)

// Engine evaluates a user's notification policy against a finished alert
// and dispatches to each eligible channel independently. One channel
// failing never blocks the others; every attempt leaves a log record.
type Engine struct {
	cfg      *config.Config
	cameras  store.CameraStore
	users    store.UserStore
	settings store.NotificationStore
	senders  map[models.NotificationChannel]Sender

	// injectable clock for quiet-hours evaluation
	now func() time.Time
}

// NewEngine creates a notification engine with config-built senders
func NewEngine(cfg *config.Config, cameras store.CameraStore, users store.UserStore, settings store.NotificationStore) *Engine {
	return &Engine{
		cfg:      cfg,
		cameras:  cameras,
		users:    users,
		settings: settings,
		senders:  NewSenders(cfg),
		now:      time.Now,
	}
}

// Dispatch fans the alert out to the owning user's channels. Alerts
// without a resolvable camera owner are skipped silently: file-mode runs
// may not belong to anyone.
func (e *Engine) Dispatch(ctx context.Context, alert *models.Alert) {
	if alert.CameraID == 0 {
		log.Debug().Int64("alert_id", alert.ID).Msg("Alert has no camera, skipping notifications")
		return
	}
	camera, err := e.cameras.GetCamera(alert.CameraID)
	if err != nil {
		log.Warn().Err(err).Int64("alert_id", alert.ID).Int64("camera_id", alert.CameraID).Msg("Camera lookup failed, skipping notifications")
		return
	}
	user, err := e.users.GetUser(camera.UserID)
	if err != nil {
		log.Warn().Err(err).Int64("alert_id", alert.ID).Int64("user_id", camera.UserID).Msg("Owner lookup failed, skipping notifications")
		return
	}

	setting, err := e.settings.GetSettings(user.ID)
	if errors.Is(err, store.ErrNotFound) {
		// never configured is not an error, just nothing to do
		log.Warn().Int64("user_id", user.ID).Msg("No notification settings configured, skipping notifications")
		return
	} else if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load notification settings")
		return
	}

	title := fmt.Sprintf("%s Alert", alert.Type.DisplayName())
	message := buildMessage(alert, camera)

	quiet := setting.QuietHoursEnabled &&
		alert.Severity != models.SeverityCritical &&
		quietHoursActive(e.now(), setting.QuietHoursStart, setting.QuietHoursEnd)

	for _, channel := range models.Channels() {
		e.dispatchChannel(ctx, channel, alert, user, setting, title, message, quiet)
	}
}

func (e *Engine) dispatchChannel(ctx context.Context, channel models.NotificationChannel, alert *models.Alert, user *models.User, setting *models.NotificationSetting, title, message string, quiet bool) {
	logger := log.With().
		Str("channel", channel.String()).
		Int64("alert_id", alert.ID).
		Int64("user_id", user.ID).
		Logger()

	if !setting.ChannelEnabled(channel) {
		logger.Debug().Msg("Channel disabled")
		return
	}
	if !setting.TypeEnabled(channel, alert.Type) {
		logger.Debug().Str("alert_type", alert.Type.String()).Msg("Alert type muted on channel")
		return
	}
	if alert.Severity.Rank() < setting.MinSeverity(channel).Rank() {
		logger.Debug().
			Str("severity", alert.Severity.String()).
			Str("min_severity", setting.MinSeverity(channel).String()).
			Msg("Below channel severity threshold")
		return
	}
	if quiet {
		logger.Info().Msg("Suppressed by quiet hours")
		return
	}
	if channel == models.ChannelSMS && user.PhoneNumber == "" {
		logger.Info().Msg("No phone number on file, skipping SMS")
		return
	}

	entry := &models.NotificationLog{
		UserID:  user.ID,
		AlertID: alert.ID,
		Title:   title,
		Message: message,
		Channel: channel,
		Status:  models.NotificationPending,
	}
	if err := e.settings.CreateLog(entry); err != nil {
		logger.Error().Err(err).Msg("Failed to create notification log")
		return
	}

	sender, ok := e.senders[channel]
	if !ok {
		entry.Status = models.NotificationFailed
		entry.ErrorMessage = "no sender configured"
	} else if err := sender.Send(user, title, message); err != nil {
		logger.Error().Err(err).Msg("Notification delivery failed")
		entry.Status = models.NotificationFailed
		entry.ErrorMessage = err.Error()
	} else {
		entry.Status = models.NotificationSent
		entry.SentAt = e.now()
		logger.Info().Msg("Notification sent")
	}
	if err := e.settings.UpdateLog(entry); err != nil {
		logger.Error().Err(err).Msg("Failed to update notification log")
	}
}

// buildMessage renders the one-line alert summary used on every channel
func buildMessage(alert *models.Alert, camera *models.Camera) string {
	location := camera.Location
	if location == "" {
		location = "unknown location"
	}
	return fmt.Sprintf("ALERT: %s detected at %s (%s) with %.0f%% confidence",
		alert.Type.DisplayName(), camera.Name, location, alert.Confidence*100)
}

// quietHoursActive reports whether the clock falls inside the window.
// Windows may cross midnight: 22:00-07:00 covers late evening and early
// morning. Malformed times disable the window rather than suppressing
// alerts unpredictably.
func quietHoursActive(now time.Time, start, end string) bool {
	startMin, err := parseClock(start)
	if err != nil {
		return false
	}
	endMin, err := parseClock(end)
	if err != nil {
		return false
	}
	cur := now.Hour()*60 + now.Minute()

	if startMin <= endMin {
		return cur >= startMin && cur < endMin
	}
	// overnight window
	return cur >= startMin || cur < endMin
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
