package models

import (
	"time"
)

// CameraType represents the transport used to reach a camera
type CameraType string

const (
	CameraTypeRTSP  CameraType = "rtsp"
	CameraTypeHTTP  CameraType = "http"
	CameraTypeLocal CameraType = "local"
	CameraTypeFile  CameraType = "file"
)

// String returns the string representation of CameraType
func (ct CameraType) String() string {
	return string(ct)
}

// IsValid checks if the camera type is valid
func (ct CameraType) IsValid() bool {
	switch ct {
	case CameraTypeRTSP, CameraTypeHTTP, CameraTypeLocal, CameraTypeFile:
		return true
	default:
		return false
	}
}

// CameraStatus represents the camera operational status
type CameraStatus string

const (
	CameraStatusOnline   CameraStatus = "online"
	CameraStatusOffline  CameraStatus = "offline"
	CameraStatusError    CameraStatus = "error"
	CameraStatusInactive CameraStatus = "inactive"
)

// String returns the string representation of CameraStatus
func (cs CameraStatus) String() string {
	return string(cs)
}

// IsValid checks if the camera status is valid
func (cs CameraStatus) IsValid() bool {
	switch cs {
	case CameraStatusOnline, CameraStatusOffline, CameraStatusError, CameraStatusInactive:
		return true
	default:
		return false
	}
}

// Camera represents a registered camera and its detection settings
type Camera struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	Location   string       `json:"location,omitempty"`
	Type       CameraType   `json:"camera_type"`
	URL        string       `json:"url"`
	Username   string       `json:"username,omitempty"`
	Password   string       `json:"-"`
	Port       int          `json:"port"`
	Status     CameraStatus `json:"status"`
	LastOnline time.Time    `json:"last_online,omitempty"`

	// Owner
	UserID int64 `json:"user_id"`

	// Detection toggles
	DetectionEnabled bool `json:"detection_enabled"`
	FireSmokeEnabled bool `json:"fire_smoke_detection"`
	FallEnabled      bool `json:"fall_detection"`
	ViolenceEnabled  bool `json:"violence_detection"`
	ChokingEnabled   bool `json:"choking_detection"`
	FaceRecognition  bool `json:"face_recognition"`

	// Inference tuning
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	IOUThreshold        float64 `json:"iou_threshold"`
	ImageSize           int     `json:"image_size"`
	FrameRate           int     `json:"frame_rate"` // score every Nth frame in live mode

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FrameStride returns the live-mode scoring stride, guarding against
// unset or nonsense values on the record.
func (c *Camera) FrameStride() int {
	if c.FrameRate <= 0 {
		return 10
	}
	return c.FrameRate
}

// HasCredentials reports whether the camera carries authentication data
func (c *Camera) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}
