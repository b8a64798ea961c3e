package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-core-go/internal/models"
)

func TestAlertLifecycle(t *testing.T) {
	m := NewMemory()

	alert := &models.Alert{
		Title:    "Fire and Smoke Detection",
		Type:     models.AlertTypeFireSmoke,
		Status:   models.AlertStatusNew,
		Severity: models.SeverityMedium,
		CameraID: 7,
	}
	require.NoError(t, m.CreateAlert(alert))
	require.NotZero(t, alert.ID)

	alert.RecordConfidence(0.8)
	require.NoError(t, m.UpdateAlert(alert))

	got, err := m.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestResolvedAlertIsImmutableExceptNotes(t *testing.T) {
	m := NewMemory()

	alert := &models.Alert{Type: models.AlertTypeFall, Status: models.AlertStatusNew, Severity: models.SeverityMedium}
	require.NoError(t, m.CreateAlert(alert))

	resolved, err := m.ResolveAlert(alert.ID, models.AlertStatusConfirmed, 42)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusConfirmed, resolved.Status)
	assert.Equal(t, int64(42), resolved.ResolvedBy)
	assert.False(t, resolved.ResolvedTime.IsZero())

	// further field updates are rejected
	resolved.Confidence = 0.99
	assert.ErrorIs(t, m.UpdateAlert(resolved), ErrAlertResolved)

	// double resolution is rejected
	_, err = m.ResolveAlert(alert.ID, models.AlertStatusDismissed, 42)
	assert.ErrorIs(t, err, ErrAlertResolved)

	// notes stay mutable
	require.NoError(t, m.SetNotes(alert.ID, "verified on playback"))
	got, err := m.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "verified on playback", got.Notes)
}

func TestAutomaticFalsePositiveStaysMutable(t *testing.T) {
	m := NewMemory()

	// zero-detection runs mark alerts false_positive automatically; that
	// disposition has no resolver and must not freeze the record.
	alert := &models.Alert{Type: models.AlertTypeChoking, Status: models.AlertStatusNew, Severity: models.SeverityMedium}
	require.NoError(t, m.CreateAlert(alert))

	alert.Status = models.AlertStatusFalsePositive
	alert.Description = "No choking detected in the video."
	require.NoError(t, m.UpdateAlert(alert))

	alert.Thumbnail = "alerts/thumbnails/thumb_x.jpg"
	assert.NoError(t, m.UpdateAlert(alert))
}

func TestDeleteAlertsByCamera(t *testing.T) {
	m := NewMemory()

	a := &models.Alert{CameraID: 1, Status: models.AlertStatusNew}
	b := &models.Alert{CameraID: 2, Status: models.AlertStatusNew}
	require.NoError(t, m.CreateAlert(a))
	require.NoError(t, m.CreateAlert(b))

	require.NoError(t, m.DeleteAlertsByCamera(1))

	_, err := m.GetAlert(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetAlert(b.ID)
	assert.NoError(t, err)
}

func TestCameraStatusUpdate(t *testing.T) {
	m := NewMemory()
	m.PutCamera(&models.Camera{ID: 5, Status: models.CameraStatusOffline})

	require.NoError(t, m.UpdateCameraStatus(5, models.CameraStatusOnline))

	camera, err := m.GetCamera(5)
	require.NoError(t, err)
	assert.Equal(t, models.CameraStatusOnline, camera.Status)
	assert.False(t, camera.LastOnline.IsZero())

	assert.ErrorIs(t, m.UpdateCameraStatus(99, models.CameraStatusError), ErrNotFound)
}
