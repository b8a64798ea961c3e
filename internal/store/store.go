// Package store defines the persistence boundary of the detection
// pipeline. The record schemas are owned by the surrounding platform;
// the pipeline only depends on these narrow interfaces.
package store

import (
	"errors"

	"sentinel-core-go/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrAlertResolved is returned when mutating a manually resolved alert
	ErrAlertResolved = errors.New("alert already resolved")
)

// CameraStore provides access to camera records
type CameraStore interface {
	GetCamera(id int64) (*models.Camera, error)
	ListCameras() ([]*models.Camera, error)
	UpdateCameraStatus(id int64, status models.CameraStatus) error
}

// AlertStore provides access to alert records
type AlertStore interface {
	CreateAlert(alert *models.Alert) error
	GetAlert(id int64) (*models.Alert, error)
	// UpdateAlert persists confidence/severity/description/artifact
	// changes made during a processing run. Manually resolved alerts
	// reject every change except notes.
	UpdateAlert(alert *models.Alert) error
	// ResolveAlert applies a terminal disposition on behalf of a reviewer
	ResolveAlert(id int64, status models.AlertStatus, userID int64) (*models.Alert, error)
	// SetNotes updates reviewer notes; allowed even after resolution
	SetNotes(id int64, notes string) error
	DeleteAlertsByCamera(cameraID int64) error
}

// NotificationStore provides access to notification policy and logs
type NotificationStore interface {
	// GetSettings returns the user's notification policy, or ErrNotFound
	// when the user never configured one.
	GetSettings(userID int64) (*models.NotificationSetting, error)
	CreateLog(entry *models.NotificationLog) error
	UpdateLog(entry *models.NotificationLog) error
	ListLogsByAlert(alertID int64) ([]*models.NotificationLog, error)
}

// UserStore provides access to user records
type UserStore interface {
	GetUser(id int64) (*models.User, error)
}
