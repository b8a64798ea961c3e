package models

import (
	"image"
)

// Detection represents a single detected region in one frame
type Detection struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
	Label      string          `json:"label"`
}

// MaxConfidence returns the highest confidence in a detection set,
// or 0.0 for an empty set.
func MaxConfidence(detections []Detection) float64 {
	best := 0.0
	for _, d := range detections {
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	return best
}

// DetectorConfig holds the per-detector inference tunables
type DetectorConfig struct {
	ConfThreshold float64 `json:"conf_threshold"`
	IOUThreshold  float64 `json:"iou_threshold"`
	ImageSize     int     `json:"image_size"`
}

// ModelInfo describes a detector's backing model for introspection
type ModelInfo struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Classes     []string `json:"classes"`
	Description string   `json:"description"`
}
