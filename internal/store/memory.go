package store

import (
	"sync"
	"time"

	"sentinel-core-go/internal/models"
)

// Memory is an in-memory implementation of the store interfaces. The
// production deployment plugs the platform's persistence in behind the
// same interfaces; this one backs tests and standalone runs.
type Memory struct {
	mu sync.RWMutex

	cameras  map[int64]*models.Camera
	alerts   map[int64]*models.Alert
	settings map[int64]*models.NotificationSetting
	logs     map[int64]*models.NotificationLog
	users    map[int64]*models.User

	nextAlertID int64
	nextLogID   int64
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		cameras:     make(map[int64]*models.Camera),
		alerts:      make(map[int64]*models.Alert),
		settings:    make(map[int64]*models.NotificationSetting),
		logs:        make(map[int64]*models.NotificationLog),
		users:       make(map[int64]*models.User),
		nextAlertID: 1,
		nextLogID:   1,
	}
}

// Seed helpers used by wiring and tests.

func (m *Memory) PutCamera(camera *models.Camera) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *camera
	m.cameras[camera.ID] = &cp
}

func (m *Memory) PutUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
}

func (m *Memory) PutSettings(settings *models.NotificationSetting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *settings
	m.settings[settings.UserID] = &cp
}

func (m *Memory) GetCamera(id int64) (*models.Camera, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	camera, ok := m.cameras[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *camera
	return &cp, nil
}

func (m *Memory) ListCameras() ([]*models.Camera, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Camera, 0, len(m.cameras))
	for _, camera := range m.cameras {
		cp := *camera
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) UpdateCameraStatus(id int64, status models.CameraStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	camera, ok := m.cameras[id]
	if !ok {
		return ErrNotFound
	}
	camera.Status = status
	camera.UpdatedAt = time.Now()
	if status == models.CameraStatusOnline {
		camera.LastOnline = time.Now()
	}
	return nil
}

func (m *Memory) CreateAlert(alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert.ID = m.nextAlertID
	m.nextAlertID++
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	if alert.DetectionTime.IsZero() {
		alert.DetectionTime = now
	}
	cp := *alert
	m.alerts[alert.ID] = &cp
	return nil
}

func (m *Memory) GetAlert(id int64) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *alert
	return &cp, nil
}

func (m *Memory) UpdateAlert(alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.alerts[alert.ID]
	if !ok {
		return ErrNotFound
	}
	// Manual dispositions freeze the record; only SetNotes may follow.
	if stored.IsResolved() && stored.ResolvedBy != 0 {
		return ErrAlertResolved
	}
	alert.UpdatedAt = time.Now()
	cp := *alert
	m.alerts[alert.ID] = &cp
	return nil
}

func (m *Memory) ResolveAlert(id int64, status models.AlertStatus, userID int64) (*models.Alert, error) {
	if !status.IsResolution() {
		return nil, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if alert.IsResolved() && alert.ResolvedBy != 0 {
		return nil, ErrAlertResolved
	}
	alert.Status = status
	alert.ResolvedTime = time.Now()
	alert.ResolvedBy = userID
	alert.UpdatedAt = time.Now()
	cp := *alert
	return &cp, nil
}

func (m *Memory) SetNotes(id int64, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert, ok := m.alerts[id]
	if !ok {
		return ErrNotFound
	}
	alert.Notes = notes
	alert.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) DeleteAlertsByCamera(cameraID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, alert := range m.alerts {
		if alert.CameraID == cameraID {
			delete(m.alerts, id)
		}
	}
	return nil
}

func (m *Memory) GetSettings(userID int64) (*models.NotificationSetting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	settings, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *settings
	return &cp, nil
}

func (m *Memory) CreateLog(entry *models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextLogID
	m.nextLogID++
	entry.CreatedAt = time.Now()
	cp := *entry
	m.logs[entry.ID] = &cp
	return nil
}

func (m *Memory) UpdateLog(entry *models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[entry.ID]; !ok {
		return ErrNotFound
	}
	cp := *entry
	m.logs[entry.ID] = &cp
	return nil
}

func (m *Memory) ListLogsByAlert(alertID int64) ([]*models.NotificationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.NotificationLog
	for _, entry := range m.logs {
		if entry.AlertID == alertID {
			cp := *entry
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) GetUser(id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}
