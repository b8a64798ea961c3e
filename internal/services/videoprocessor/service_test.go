package videoprocessor

import (
	"context"
	"errors"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/services/detector"
	"sentinel-core-go/internal/store"
)

// matReader yields a fixed number of synthetic frames
type matReader struct {
	remaining int
}

func (r *matReader) Read(img *gocv.Mat) bool {
	if r.remaining <= 0 {
		return false
	}
	r.remaining--
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(img)
	return true
}

// countWriter records how many frames reached the output
type countWriter struct {
	frames int
	err    error
}

func (w *countWriter) Write(img gocv.Mat) error {
	if w.err != nil {
		return w.err
	}
	w.frames++
	return nil
}

// scriptPredictor returns one scripted confidence per scored frame.
// A negative value simulates an inference failure.
type scriptPredictor struct {
	script []float64
	calls  int
}

func (p *scriptPredictor) Predict(frame gocv.Mat, confThreshold, iouThreshold float64, imageSize int) (gocv.Mat, []models.Detection, error) {
	idx := p.calls
	p.calls++
	conf := 0.0
	if idx < len(p.script) {
		conf = p.script[idx]
	}
	if conf < 0 {
		return gocv.Mat{}, nil, errors.New("inference backend unavailable")
	}
	annotated := frame.Clone()
	if conf == 0 {
		return annotated, nil, nil
	}
	return annotated, []models.Detection{{Confidence: conf, Label: "object"}}, nil
}

type recordingNotifier struct {
	alerts []*models.Alert
}

func (n *recordingNotifier) Dispatch(ctx context.Context, alert *models.Alert) {
	n.alerts = append(n.alerts, alert)
}

func testService(t *testing.T) (*Service, *store.Memory, *recordingNotifier) {
	t.Helper()
	cfg := &config.Config{
		MediaRoot:  t.TempDir(),
		FileStride: 5,
	}
	mem := store.NewMemory()
	notifier := &recordingNotifier{}
	return NewService(cfg, detector.NewManager(cfg), nil, mem, mem, notifier, nil), mem, notifier
}

func seedAlert(t *testing.T, alerts store.AlertStore) *models.Alert {
	t.Helper()
	alert := &models.Alert{
		Title:    "Fire and Smoke Detection",
		Type:     models.AlertTypeFireSmoke,
		Status:   models.AlertStatusNew,
		Severity: models.SeverityMedium,
	}
	require.NoError(t, alerts.CreateAlert(alert))
	return alert
}

func TestRunScoresEveryStrideFrame(t *testing.T) {
	svc, mem, _ := testService(t)
	alert := seedAlert(t, mem)

	// stride 2 over 10 frames scores frames 2, 4, 6, 8, 10
	predictor := &scriptPredictor{script: []float64{0, 0.55, 0.92, 0.40, 0.60}}
	writer := &countWriter{}
	stats := svc.run(context.Background(), &matReader{remaining: 10}, writer, predictor, alert, runParams{
		config: models.DetectorConfig{ConfThreshold: 0.25, IOUThreshold: 0.45, ImageSize: 640},
		stride: 2,
	})

	assert.Equal(t, 10, stats.frameCount)
	assert.Equal(t, 5, predictor.calls)
	assert.Equal(t, 4, stats.detectionCount)
	assert.InDelta(t, 0.92, stats.bestConfidence, 1e-9)
	assert.Equal(t, 6, stats.bestFrameIndex)
	assert.Equal(t, 10, writer.frames)
	require.True(t, stats.hasBestFrame)
	assert.False(t, stats.bestFrame.Empty())
	stats.bestFrame.Close()

	// confidence never regresses and severity tracks the peak
	assert.InDelta(t, 0.92, alert.Confidence, 1e-9)
	assert.Equal(t, models.SeverityCritical, alert.Severity)

	persisted, err := mem.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.92, persisted.Confidence, 1e-9)
	assert.Equal(t, models.SeverityCritical, persisted.Severity)
}

func TestRunSurvivesFrameInferenceFailure(t *testing.T) {
	svc, mem, _ := testService(t)
	alert := seedAlert(t, mem)

	predictor := &scriptPredictor{script: []float64{-1, 0.62, -1}}
	writer := &countWriter{}
	stats := svc.run(context.Background(), &matReader{remaining: 3}, writer, predictor, alert, runParams{
		config: models.DetectorConfig{ConfThreshold: 0.25},
		stride: 1,
	})

	assert.Equal(t, 3, stats.frameCount)
	assert.Equal(t, 1, stats.detectionCount)
	// failed frames still reach the output as originals
	assert.Equal(t, 3, writer.frames)
	require.True(t, stats.hasBestFrame)
	stats.bestFrame.Close()
}

func TestRunStopsAtFrameLimit(t *testing.T) {
	svc, mem, _ := testService(t)
	alert := seedAlert(t, mem)

	writer := &countWriter{}
	stats := svc.run(context.Background(), &matReader{remaining: 100}, writer, &scriptPredictor{}, alert, runParams{
		config:     models.DetectorConfig{ConfThreshold: 0.25},
		stride:     1,
		frameLimit: 7,
	})

	assert.Equal(t, 7, stats.frameCount)
	assert.Equal(t, 7, writer.frames)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	svc, mem, _ := testService(t)
	alert := seedAlert(t, mem)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	writer := &countWriter{}
	stats := svc.run(ctx, &matReader{remaining: 100}, writer, &scriptPredictor{}, alert, runParams{
		config: models.DetectorConfig{ConfThreshold: 0.25},
		stride: 1,
	})

	assert.Equal(t, 0, stats.frameCount)
}

func TestRunDropsDetectionsBelowThreshold(t *testing.T) {
	svc, mem, _ := testService(t)
	alert := seedAlert(t, mem)

	predictor := &scriptPredictor{script: []float64{0.10, 0.20, 0.24}}
	stats := svc.run(context.Background(), &matReader{remaining: 3}, &countWriter{}, predictor, alert, runParams{
		config: models.DetectorConfig{ConfThreshold: 0.25},
		stride: 1,
	})

	assert.Equal(t, 0, stats.detectionCount)
	assert.Zero(t, alert.Confidence)
	assert.Equal(t, models.SeverityMedium, alert.Severity)
}

func TestMergeConfigPartialOverride(t *testing.T) {
	base := models.DetectorConfig{ConfThreshold: 0.25, IOUThreshold: 0.45, ImageSize: 640}

	// overriding one tunable leaves the others at their configured values
	merged := mergeConfig(base, models.DetectorConfig{ConfThreshold: 0.6})
	assert.InDelta(t, 0.6, merged.ConfThreshold, 1e-9)
	assert.InDelta(t, 0.45, merged.IOUThreshold, 1e-9)
	assert.Equal(t, 640, merged.ImageSize)

	merged = mergeConfig(base, models.DetectorConfig{IOUThreshold: 0.3, ImageSize: 512})
	assert.InDelta(t, 0.25, merged.ConfThreshold, 1e-9)
	assert.InDelta(t, 0.3, merged.IOUThreshold, 1e-9)
	assert.Equal(t, 512, merged.ImageSize)

	assert.Equal(t, base, mergeConfig(base, models.DetectorConfig{}))
}

func TestFinalizeZeroDetectionsMarksFalsePositive(t *testing.T) {
	svc, mem, notifier := testService(t)
	alert := seedAlert(t, mem)

	det := detector.NewDetector("fire_smoke", "Fire and Smoke", "", "", nil)
	svc.finalize(context.Background(), alert, det, &runStats{frameCount: 30}, "fire_smoke_x.mp4", "video")

	persisted, err := mem.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusFalsePositive, persisted.Status)
	assert.Equal(t, "No fire and smoke detected in the video.", persisted.Description)
	assert.Empty(t, persisted.Thumbnail)
	assert.Empty(t, notifier.alerts, "false positives are not dispatched")
}

func TestFinalizeWritesSummaryAndThumbnail(t *testing.T) {
	svc, mem, notifier := testService(t)
	alert := seedAlert(t, mem)
	alert.RecordConfidence(0.8)

	best := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	det := detector.NewDetector("fire_smoke", "Fire and Smoke", "", "", nil)
	svc.finalize(context.Background(), alert, det, &runStats{
		frameCount:     30,
		detectionCount: 4,
		confidenceSum:  2.6,
		bestConfidence: 0.8,
		bestFrameIndex: 15,
		bestFrame:      best,
		hasBestFrame:   true,
	}, "fire_smoke_20240101_120000_ab12cd34.mp4", "video")

	persisted, err := mem.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "Detected fire and smoke in 4 frames. Average confidence: 0.65.", persisted.Description)
	assert.Equal(t, path.Join("alerts", "thumbnails", "thumb_fire_smoke_20240101_120000_ab12cd34.jpg"), persisted.Thumbnail)

	abs := path.Join(svc.cfg.AlertThumbnailDir(), "thumb_fire_smoke_20240101_120000_ab12cd34.jpg")
	info, err := os.Stat(abs)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, alert.ID, notifier.alerts[0].ID)
}
