package detector

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
)

// ErrUnknownDetector is returned for a detector key that is not registered
var ErrUnknownDetector = errors.New("unknown detector")

// Detector keys
const (
	KeyFireSmoke = "fire_smoke"
	KeyFall      = "fall"
	KeyViolence  = "violence"
	KeyChoking   = "choking"
)

// defaultConfig is the hardcoded fallback for unconfigured detectors
var defaultConfig = models.DetectorConfig{
	ConfThreshold: 0.25,
	IOUThreshold:  0.45,
	ImageSize:     640,
}

// ValidationReport lists model artifacts missing on disk
type ValidationReport struct {
	AllValid bool               `json:"all_valid"`
	Missing  []models.ModelInfo `json:"missing_models"`
}

// Manager is the registry of detectors plus their mutable inference
// configuration. Configuration is read-mostly: every processing run
// reads it, updates come in rarely through the API.
type Manager struct {
	mu        sync.RWMutex
	detectors map[string]*Detector
	configs   map[string]models.DetectorConfig
	activeKey string
}

// NewManager builds the registry with the four stock detectors
func NewManager(cfg *config.Config) *Manager {
	detectors := map[string]*Detector{
		KeyFireSmoke: NewDetector(
			KeyFireSmoke, "Fire and Smoke", cfg.ModelPath("fire_smoke.onnx"),
			"Detects fire and smoke in images and videos. Can help in early detection of fire incidents.",
			[]string{"fire", "smoke"},
		),
		KeyFall: NewDetector(
			KeyFall, "Fall Detection", cfg.ModelPath("fall.onnx"),
			"Detects people falling. Useful for monitoring elderly or vulnerable individuals.",
			[]string{"person", "fall"},
		),
		KeyViolence: NewDetector(
			KeyViolence, "Violence", cfg.ModelPath("violence.onnx"),
			"Detects violent behavior between people in the camera feed.",
			[]string{"violence"},
		),
		KeyChoking: NewDetector(
			KeyChoking, "Choking", cfg.ModelPath("choking.onnx"),
			"Detects choking incidents for rapid medical response.",
			[]string{"person", "choking"},
		),
	}

	configs := map[string]models.DetectorConfig{
		KeyFireSmoke: {ConfThreshold: 0.25, IOUThreshold: 0.45, ImageSize: 640},
		KeyFall:      {ConfThreshold: 0.40, IOUThreshold: 0.37, ImageSize: 512},
		KeyViolence:  {ConfThreshold: 0.35, IOUThreshold: 0.35, ImageSize: 736},
		KeyChoking:   {ConfThreshold: 0.25, IOUThreshold: 0.30, ImageSize: 640},
	}

	return &Manager{
		detectors: detectors,
		configs:   configs,
		activeKey: KeyFireSmoke,
	}
}

// Get returns the detector for a key, or the active detector when the
// key is empty. Unknown keys are an error, never silently defaulted.
func (m *Manager) Get(key string) (*Detector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if key == "" {
		key = m.activeKey
	}
	det, ok := m.detectors[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, key)
	}
	return det, nil
}

// SetActive switches the process-wide default detector. The active key
// only resets on process restart.
func (m *Manager) SetActive(key string) (*Detector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	det, ok := m.detectors[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, key)
	}
	m.activeKey = key
	log.Info().Str("detector", key).Msg("Active detector changed")
	return det, nil
}

// ActiveKey returns the current default detector key
func (m *Manager) ActiveKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeKey
}

// ListAvailable returns metadata for every registered detector, sorted
// by key for stable output.
func (m *Manager) ListAvailable() []models.ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ModelInfo, 0, len(m.detectors))
	for _, det := range m.detectors {
		out = append(out, det.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// GetConfig returns the detector's tunables, falling back to the
// hardcoded default triple when the key was never configured.
func (m *Manager) GetConfig(key string) models.DetectorConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cfg, ok := m.configs[key]; ok {
		return cfg
	}
	return defaultConfig
}

// ConfigUpdate carries a partial config change; nil fields are untouched
type ConfigUpdate struct {
	ConfThreshold *float64 `json:"conf_threshold,omitempty"`
	IOUThreshold  *float64 `json:"iou_threshold,omitempty"`
	ImageSize     *int     `json:"image_size,omitempty"`
}

// UpdateConfig applies a partial update to a detector's tunables
func (m *Manager) UpdateConfig(key string, update ConfigUpdate) (models.DetectorConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.detectors[key]; !ok {
		return models.DetectorConfig{}, fmt.Errorf("%w: %s", ErrUnknownDetector, key)
	}
	cfg, ok := m.configs[key]
	if !ok {
		cfg = defaultConfig
	}
	if update.ConfThreshold != nil {
		cfg.ConfThreshold = *update.ConfThreshold
	}
	if update.IOUThreshold != nil {
		cfg.IOUThreshold = *update.IOUThreshold
	}
	if update.ImageSize != nil {
		cfg.ImageSize = *update.ImageSize
	}
	m.configs[key] = cfg
	log.Info().Str("detector", key).Interface("config", cfg).Msg("Detector config updated")
	return cfg, nil
}

// ValidateModels reports which model artifacts are missing on disk. It
// never raises; a missing model is a deployment problem, not a crash.
func (m *Manager) ValidateModels() ValidationReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report := ValidationReport{AllValid: true, Missing: []models.ModelInfo{}}
	for _, det := range m.detectors {
		if _, err := os.Stat(det.ModelPath); err != nil {
			report.AllValid = false
			report.Missing = append(report.Missing, det.Info())
			log.Warn().Str("detector", det.Key).Str("path", det.ModelPath).Msg("Model file not found")
		}
	}
	sort.Slice(report.Missing, func(i, j int) bool { return report.Missing[i].Key < report.Missing[j].Key })
	return report
}

// Close releases every loaded model
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, det := range m.detectors {
		det.Close()
	}
}
