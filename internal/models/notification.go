package models

import (
	"time"
)

// NotificationChannel represents a delivery channel for alerts
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
)

// String returns the string representation of NotificationChannel
func (nc NotificationChannel) String() string {
	return string(nc)
}

// Channels lists all delivery channels in dispatch order
func Channels() []NotificationChannel {
	return []NotificationChannel{ChannelEmail, ChannelSMS, ChannelPush}
}

// NotificationSetting is a user's notification policy: per-channel
// enablement, a channel x alert-type toggle matrix, per-channel minimum
// severity and an optional quiet-hours window.
type NotificationSetting struct {
	UserID int64 `json:"user_id"`

	EmailEnabled bool `json:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`

	// alert type -> enabled, per channel
	EmailTypes map[AlertType]bool `json:"email_types"`
	SMSTypes   map[AlertType]bool `json:"sms_types"`
	PushTypes  map[AlertType]bool `json:"push_types"`

	MinSeverityEmail Severity `json:"min_severity_email"`
	MinSeveritySMS   Severity `json:"min_severity_sms"`
	MinSeverityPush  Severity `json:"min_severity_push"`

	QuietHoursEnabled bool   `json:"quiet_hours_enabled"`
	QuietHoursStart   string `json:"quiet_hours_start"` // "HH:MM"
	QuietHoursEnd     string `json:"quiet_hours_end"`   // "HH:MM"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultNotificationSetting mirrors the defaults a fresh account gets:
// email and push on at medium, SMS off and stricter at high.
func DefaultNotificationSetting(userID int64) *NotificationSetting {
	allTypes := func() map[AlertType]bool {
		return map[AlertType]bool{
			AlertTypeFireSmoke:        true,
			AlertTypeFall:             true,
			AlertTypeViolence:         true,
			AlertTypeChoking:          true,
			AlertTypeUnauthorizedFace: true,
		}
	}
	return &NotificationSetting{
		UserID:           userID,
		EmailEnabled:     true,
		SMSEnabled:       false,
		PushEnabled:      true,
		EmailTypes:       allTypes(),
		SMSTypes:         allTypes(),
		PushTypes:        allTypes(),
		MinSeverityEmail: SeverityMedium,
		MinSeveritySMS:   SeverityHigh,
		MinSeverityPush:  SeverityMedium,
		QuietHoursStart:  "22:00",
		QuietHoursEnd:    "07:00",
	}
}

// ChannelEnabled reports whether the channel is globally enabled
func (ns *NotificationSetting) ChannelEnabled(channel NotificationChannel) bool {
	switch channel {
	case ChannelEmail:
		return ns.EmailEnabled
	case ChannelSMS:
		return ns.SMSEnabled
	case ChannelPush:
		return ns.PushEnabled
	default:
		return false
	}
}

// TypeEnabled reports whether the channel is enabled for an alert type
func (ns *NotificationSetting) TypeEnabled(channel NotificationChannel, alertType AlertType) bool {
	var m map[AlertType]bool
	switch channel {
	case ChannelEmail:
		m = ns.EmailTypes
	case ChannelSMS:
		m = ns.SMSTypes
	case ChannelPush:
		m = ns.PushTypes
	default:
		return false
	}
	return m[alertType]
}

// MinSeverity returns the channel's minimum severity threshold
func (ns *NotificationSetting) MinSeverity(channel NotificationChannel) Severity {
	switch channel {
	case ChannelEmail:
		return ns.MinSeverityEmail
	case ChannelSMS:
		return ns.MinSeveritySMS
	case ChannelPush:
		return ns.MinSeverityPush
	default:
		return SeverityMedium
	}
}

// NotificationStatus represents the state of one dispatch attempt
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// NotificationLog records a single dispatch attempt on one channel
type NotificationLog struct {
	ID           int64               `json:"id"`
	UserID       int64               `json:"user_id"`
	AlertID      int64               `json:"alert_id,omitempty"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	Channel      NotificationChannel `json:"channel"`
	Status       NotificationStatus  `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	SentAt       time.Time           `json:"sent_at,omitempty"`
}

// User is the slice of the account record the pipeline needs
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
}
