package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-core-go/internal/config"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{ModelDir: dir}
	return NewManager(cfg), dir
}

func TestGetDefaultsToActiveDetector(t *testing.T) {
	m, _ := testManager(t)

	det, err := m.Get("")
	require.NoError(t, err)
	assert.Equal(t, KeyFireSmoke, det.Key)

	_, err = m.SetActive(KeyFall)
	require.NoError(t, err)

	det, err = m.Get("")
	require.NoError(t, err)
	assert.Equal(t, KeyFall, det.Key)
}

func TestUnknownKeyIsRejected(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.Get("pose")
	assert.ErrorIs(t, err, ErrUnknownDetector)

	_, err = m.SetActive("pose")
	assert.ErrorIs(t, err, ErrUnknownDetector)
	// a rejected SetActive must not disturb the active key
	assert.Equal(t, KeyFireSmoke, m.ActiveKey())

	_, err = m.UpdateConfig("pose", ConfigUpdate{})
	assert.ErrorIs(t, err, ErrUnknownDetector)
}

func TestListAvailable(t *testing.T) {
	m, _ := testManager(t)

	available := m.ListAvailable()
	require.Len(t, available, 4)

	keys := make([]string, 0, len(available))
	for _, info := range available {
		keys = append(keys, info.Key)
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Description)
	}
	assert.Equal(t, []string{KeyChoking, KeyFall, KeyFireSmoke, KeyViolence}, keys)
}

func TestGetConfigFallsBackToDefault(t *testing.T) {
	m, _ := testManager(t)

	cfg := m.GetConfig(KeyFall)
	assert.InDelta(t, 0.40, cfg.ConfThreshold, 1e-9)
	assert.Equal(t, 512, cfg.ImageSize)

	// unconfigured key yields the hardcoded defaults
	cfg = m.GetConfig("something_else")
	assert.InDelta(t, 0.25, cfg.ConfThreshold, 1e-9)
	assert.InDelta(t, 0.45, cfg.IOUThreshold, 1e-9)
	assert.Equal(t, 640, cfg.ImageSize)
}

func TestUpdateConfigPartial(t *testing.T) {
	m, _ := testManager(t)

	conf := 0.6
	updated, err := m.UpdateConfig(KeyViolence, ConfigUpdate{ConfThreshold: &conf})
	require.NoError(t, err)

	assert.InDelta(t, 0.6, updated.ConfThreshold, 1e-9)
	// untouched fields keep their values
	assert.InDelta(t, 0.35, updated.IOUThreshold, 1e-9)
	assert.Equal(t, 736, updated.ImageSize)

	assert.Equal(t, updated, m.GetConfig(KeyViolence))
}

func TestValidateModelsReportsMissing(t *testing.T) {
	m, dir := testManager(t)

	report := m.ValidateModels()
	assert.False(t, report.AllValid)
	assert.Len(t, report.Missing, 4)

	// drop one artifact in place and it leaves the missing list
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fall.onnx"), []byte("stub"), 0o644))

	report = m.ValidateModels()
	assert.False(t, report.AllValid)
	assert.Len(t, report.Missing, 3)
	for _, info := range report.Missing {
		assert.NotEqual(t, KeyFall, info.Key)
	}
}

func TestPredictFailsFatallyForMissingModel(t *testing.T) {
	m, _ := testManager(t)

	det, err := m.Get(KeyFireSmoke)
	require.NoError(t, err)

	// load failure is fatal to this detector only and is cached
	require.Error(t, det.load())
	require.Error(t, det.load())

	other, err := m.Get(KeyFall)
	require.NoError(t, err)
	assert.NotSame(t, det, other)
}
