package models

import (
	"time"
)

// AlertType represents the kind of event an alert was raised for
type AlertType string

const (
	AlertTypeFireSmoke        AlertType = "fire_smoke"
	AlertTypeFall             AlertType = "fall"
	AlertTypeViolence         AlertType = "violence"
	AlertTypeChoking          AlertType = "choking"
	AlertTypeUnauthorizedFace AlertType = "unauthorized_face"
	AlertTypeOther            AlertType = "other"
)

// String returns the string representation of AlertType
func (at AlertType) String() string {
	return string(at)
}

// DisplayName returns a human readable name for the alert type
func (at AlertType) DisplayName() string {
	switch at {
	case AlertTypeFireSmoke:
		return "Fire and Smoke"
	case AlertTypeFall:
		return "Fall Detection"
	case AlertTypeViolence:
		return "Violence"
	case AlertTypeChoking:
		return "Choking"
	case AlertTypeUnauthorizedFace:
		return "Unauthorized Face"
	default:
		return "Other"
	}
}

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusNew           AlertStatus = "new"
	AlertStatusConfirmed     AlertStatus = "confirmed"
	AlertStatusDismissed     AlertStatus = "dismissed"
	AlertStatusFalsePositive AlertStatus = "false_positive"
)

// String returns the string representation of AlertStatus
func (as AlertStatus) String() string {
	return string(as)
}

// IsResolution reports whether the status is a terminal disposition
func (as AlertStatus) IsResolution() bool {
	switch as {
	case AlertStatusConfirmed, AlertStatusDismissed, AlertStatusFalsePositive:
		return true
	default:
		return false
	}
}

// Severity represents how serious an alert is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// Rank returns the ordinal rank of the severity (low=1 .. critical=4).
// Unknown values rank as medium.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 2
	}
}

// SeverityForConfidence maps a detection confidence to a severity.
// This is the single place the 0.9/0.7/0.5 rule lives.
func SeverityForConfidence(confidence float64) Severity {
	switch {
	case confidence >= 0.9:
		return SeverityCritical
	case confidence >= 0.7:
		return SeverityHigh
	case confidence >= 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Alert represents one detection episode
type Alert struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Type        AlertType   `json:"alert_type"`
	Status      AlertStatus `json:"status"`
	Severity    Severity    `json:"severity"`
	Confidence  float64     `json:"confidence"`

	DetectionTime time.Time `json:"detection_time"`
	ResolvedTime  time.Time `json:"resolved_time,omitempty"`
	ResolvedBy    int64     `json:"resolved_by,omitempty"`

	CameraID int64  `json:"camera_id,omitempty"`
	Location string `json:"location,omitempty"`

	// Artifact paths relative to the media root
	VideoFile string `json:"video_file,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsResolved reports whether the alert reached a terminal disposition
func (a *Alert) IsResolved() bool {
	return a.Status.IsResolution()
}

// RecordConfidence folds a scored detection confidence into the alert.
// Confidence is monotonically non-decreasing during a processing run and
// severity is recomputed whenever it grows. Returns true when the alert
// changed and needs to be persisted.
func (a *Alert) RecordConfidence(confidence float64) bool {
	if confidence <= a.Confidence {
		return false
	}
	a.Confidence = confidence
	a.Severity = SeverityForConfidence(confidence)
	return true
}
