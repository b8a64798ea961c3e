package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/store"
)

type fakeSender struct {
	sent []string // "channel title message" per call
	err  error
}

func (f *fakeSender) Send(user *models.User, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title+" | "+message)
	return nil
}

type fixture struct {
	engine  *Engine
	mem     *store.Memory
	email   *fakeSender
	sms     *fakeSender
	push    *fakeSender
	alert   *models.Alert
	setting *models.NotificationSetting
}

// daytime falls outside the default 22:00-07:00 quiet window
var daytime = time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()

	mem.PutUser(&models.User{ID: 1, Email: "owner@example.com", PhoneNumber: "+15550001111"})
	mem.PutCamera(&models.Camera{
		ID:       10,
		UserID:   1,
		Name:     "Front Door",
		Location: "Entrance",
	})

	setting := models.DefaultNotificationSetting(1)
	setting.SMSEnabled = true
	setting.MinSeveritySMS = models.SeverityMedium
	mem.PutSettings(setting)

	alert := &models.Alert{
		Title:    "Fire and Smoke Detection",
		Type:     models.AlertTypeFireSmoke,
		Status:   models.AlertStatusNew,
		Severity: models.SeverityHigh,
		CameraID: 10,
	}
	alert.RecordConfidence(0.82)
	require.NoError(t, mem.CreateAlert(alert))

	f := &fixture{
		mem:     mem,
		email:   &fakeSender{},
		sms:     &fakeSender{},
		push:    &fakeSender{},
		alert:   alert,
		setting: setting,
	}
	f.engine = &Engine{
		cfg:      &config.Config{},
		cameras:  mem,
		users:    mem,
		settings: mem,
		senders: map[models.NotificationChannel]Sender{
			models.ChannelEmail: f.email,
			models.ChannelSMS:   f.sms,
			models.ChannelPush:  f.push,
		},
		now: func() time.Time { return daytime },
	}
	return f
}

func logsByChannel(t *testing.T, mem *store.Memory, alertID int64) map[models.NotificationChannel]*models.NotificationLog {
	t.Helper()
	entries, err := mem.ListLogsByAlert(alertID)
	require.NoError(t, err)
	out := make(map[models.NotificationChannel]*models.NotificationLog, len(entries))
	for _, entry := range entries {
		out[entry.Channel] = entry
	}
	return out
}

func TestDispatchSendsOnAllEligibleChannels(t *testing.T) {
	f := newFixture(t)
	f.engine.Dispatch(context.Background(), f.alert)

	assert.Len(t, f.email.sent, 1)
	assert.Len(t, f.sms.sent, 1)
	assert.Len(t, f.push.sent, 1)
	assert.Equal(t, "Fire and Smoke Alert | ALERT: Fire and Smoke detected at Front Door (Entrance) with 82% confidence", f.email.sent[0])

	logs := logsByChannel(t, f.mem, f.alert.ID)
	require.Len(t, logs, 3)
	for _, entry := range logs {
		assert.Equal(t, models.NotificationSent, entry.Status)
		assert.False(t, entry.SentAt.IsZero())
	}
}

func TestDispatchChannelFailureIsIndependent(t *testing.T) {
	f := newFixture(t)
	f.email.err = errors.New("smtp refused")

	f.engine.Dispatch(context.Background(), f.alert)

	assert.Empty(t, f.email.sent)
	assert.Len(t, f.sms.sent, 1)
	assert.Len(t, f.push.sent, 1)

	logs := logsByChannel(t, f.mem, f.alert.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, models.NotificationFailed, logs[models.ChannelEmail].Status)
	assert.Contains(t, logs[models.ChannelEmail].ErrorMessage, "smtp refused")
	assert.Equal(t, models.NotificationSent, logs[models.ChannelSMS].Status)
	assert.Equal(t, models.NotificationSent, logs[models.ChannelPush].Status)
}

func TestDispatchRespectsSeverityThreshold(t *testing.T) {
	f := newFixture(t)
	f.setting.MinSeveritySMS = models.SeverityCritical
	f.mem.PutSettings(f.setting)

	f.engine.Dispatch(context.Background(), f.alert)

	assert.Len(t, f.email.sent, 1)
	assert.Empty(t, f.sms.sent)
	logs := logsByChannel(t, f.mem, f.alert.ID)
	assert.NotContains(t, logs, models.ChannelSMS, "ineligible channel leaves no log")
}

func TestDispatchRespectsTypeToggle(t *testing.T) {
	f := newFixture(t)
	f.setting.EmailTypes[models.AlertTypeFireSmoke] = false
	f.mem.PutSettings(f.setting)

	f.engine.Dispatch(context.Background(), f.alert)

	assert.Empty(t, f.email.sent)
	assert.Len(t, f.push.sent, 1)
}

func TestDispatchQuietHoursSuppressesNonCritical(t *testing.T) {
	f := newFixture(t)
	f.setting.QuietHoursEnabled = true
	f.mem.PutSettings(f.setting)
	f.engine.now = func() time.Time {
		return time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	}

	f.engine.Dispatch(context.Background(), f.alert)

	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.sms.sent)
	assert.Empty(t, f.push.sent)
}

func TestDispatchQuietHoursCriticalBypasses(t *testing.T) {
	f := newFixture(t)
	f.setting.QuietHoursEnabled = true
	f.mem.PutSettings(f.setting)
	f.engine.now = func() time.Time {
		return time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	}
	f.alert.RecordConfidence(0.95)
	require.Equal(t, models.SeverityCritical, f.alert.Severity)

	f.engine.Dispatch(context.Background(), f.alert)

	assert.Len(t, f.email.sent, 1)
	assert.Len(t, f.sms.sent, 1)
	assert.Len(t, f.push.sent, 1)
}

func TestDispatchSkipsSMSWithoutPhoneNumber(t *testing.T) {
	f := newFixture(t)
	f.mem.PutUser(&models.User{ID: 1, Email: "owner@example.com"})

	f.engine.Dispatch(context.Background(), f.alert)

	assert.Empty(t, f.sms.sent)
	assert.Len(t, f.email.sent, 1)
	logs := logsByChannel(t, f.mem, f.alert.ID)
	assert.NotContains(t, logs, models.ChannelSMS)
}

func TestDispatchWithoutSettingsIsSilent(t *testing.T) {
	f := newFixture(t)
	mem := store.NewMemory()
	mem.PutUser(&models.User{ID: 2, Email: "new@example.com"})
	mem.PutCamera(&models.Camera{ID: 20, UserID: 2, Name: "Yard"})
	alert := &models.Alert{
		Type:     models.AlertTypeFall,
		Status:   models.AlertStatusNew,
		Severity: models.SeverityCritical,
		CameraID: 20,
	}
	require.NoError(t, mem.CreateAlert(alert))
	f.engine.cameras = mem
	f.engine.users = mem
	f.engine.settings = mem

	// no settings row exists for the owner: not configured means no
	// channel fires and no log entry is written
	f.engine.Dispatch(context.Background(), alert)

	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.sms.sent)
	assert.Empty(t, f.push.sent)
	logs, err := mem.ListLogsByAlert(alert.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDispatchWithoutCameraIsNoop(t *testing.T) {
	f := newFixture(t)
	orphan := &models.Alert{
		Type:     models.AlertTypeFireSmoke,
		Status:   models.AlertStatusNew,
		Severity: models.SeverityHigh,
	}
	require.NoError(t, f.mem.CreateAlert(orphan))

	f.engine.Dispatch(context.Background(), orphan)

	assert.Empty(t, f.email.sent)
	logs, err := f.mem.ListLogsByAlert(orphan.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestQuietHoursActive(t *testing.T) {
	at := func(hour, min int) time.Time {
		return time.Date(2024, 6, 1, hour, min, 0, 0, time.UTC)
	}
	tests := []struct {
		name       string
		now        time.Time
		start, end string
		want       bool
	}{
		{"same day inside", at(13, 0), "12:00", "14:00", true},
		{"same day before", at(11, 59), "12:00", "14:00", false},
		{"same day at start", at(12, 0), "12:00", "14:00", true},
		{"same day at end", at(14, 0), "12:00", "14:00", false},
		{"overnight late evening", at(23, 30), "22:00", "07:00", true},
		{"overnight early morning", at(6, 30), "22:00", "07:00", true},
		{"overnight midday", at(12, 0), "22:00", "07:00", false},
		{"overnight at end", at(7, 0), "22:00", "07:00", false},
		{"malformed start", at(23, 30), "25:99", "07:00", false},
		{"malformed end", at(23, 30), "22:00", "oops", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quietHoursActive(tt.now, tt.start, tt.end))
		})
	}
}
