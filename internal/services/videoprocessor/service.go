package videoprocessor

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/helpers"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/services/detector"
	"sentinel-core-go/internal/services/framesource"
	"sentinel-core-go/internal/store"
)

const thumbnailMaxDim = 400

// Predictor scores one frame. Satisfied by detector.Detector.
type Predictor interface {
	Predict(frame gocv.Mat, confThreshold, iouThreshold float64, imageSize int) (gocv.Mat, []models.Detection, error)
}

// Notifier fans a finished alert out to the owner's channels.
// Satisfied by notification.Engine.
type Notifier interface {
	Dispatch(ctx context.Context, alert *models.Alert)
}

// EventPublisher announces alert lifecycle events to the platform bus.
// Satisfied by messaging.Service.
type EventPublisher interface {
	PublishAlert(alert *models.Alert)
}

// frameReader yields frames until the stream ends.
// *gocv.VideoCapture satisfies it.
type frameReader interface {
	Read(img *gocv.Mat) bool
}

// frameWriter receives every output frame. *gocv.VideoWriter satisfies it.
type frameWriter interface {
	Write(img gocv.Mat) error
}

// Service orchestrates frame iteration, detection, alert aggregation and
// artifact generation for one processing run at a time. Runs are
// independent jobs; multiple Services or goroutines may run concurrently
// as each run owns its Alert for the duration.
type Service struct {
	cfg      *config.Config
	manager  *detector.Manager
	sources  *framesource.Service
	cameras  store.CameraStore
	alerts   store.AlertStore
	notifier Notifier
	events   EventPublisher
}

// NewService creates a new video processor
func NewService(cfg *config.Config, manager *detector.Manager, sources *framesource.Service, cameras store.CameraStore, alerts store.AlertStore, notifier Notifier, events EventPublisher) *Service {
	return &Service{
		cfg:      cfg,
		manager:  manager,
		sources:  sources,
		cameras:  cameras,
		alerts:   alerts,
		notifier: notifier,
		events:   events,
	}
}

// ProcessVideoFile runs a detector over a finite video file. Thresholds
// may be nil to use the detector's configured tunables. Returns the
// output video path and the finalized alert.
func (s *Service) ProcessVideoFile(ctx context.Context, videoPath, detectorKey string, thresholds *models.DetectorConfig, cameraID int64) (string, *models.Alert, error) {
	det, err := s.manager.Get(detectorKey)
	if err != nil {
		return "", nil, err
	}
	cfg := s.manager.GetConfig(det.Key)
	if thresholds != nil {
		cfg = mergeConfig(cfg, *thresholds)
	}

	cap, resolved, err := s.sources.OpenFile(videoPath)
	if err != nil {
		return "", nil, err
	}
	defer cap.Close()

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 10
	}
	width := int(cap.Get(gocv.VideoCaptureFrameWidth))
	height := int(cap.Get(gocv.VideoCaptureFrameHeight))

	log.Info().
		Str("video", resolved).
		Str("detector", det.Key).
		Int("width", width).
		Int("height", height).
		Float64("fps", fps).
		Msg("Processing video file")

	filename := fmt.Sprintf("%s_%s_%s.mp4",
		det.Key, time.Now().Format("20060102_150405"), shortID())
	writer, outputPath, err := s.openWriter(filename, fps, width, height)
	if err != nil {
		return "", nil, err
	}
	defer writer.Close()

	var camera *models.Camera
	location := ""
	if cameraID != 0 {
		camera, err = s.cameras.GetCamera(cameraID)
		if err != nil {
			log.Warn().Int64("camera_id", cameraID).Msg("Camera not found, continuing without it")
		} else {
			location = camera.Location
		}
	}

	alert := &models.Alert{
		Title:       fmt.Sprintf("%s Detection", det.Name),
		Description: fmt.Sprintf("Automatic detection of %s in video.", strings.ToLower(det.Name)),
		Type:        models.AlertType(det.Key),
		Status:      models.AlertStatusNew,
		Severity:    models.SeverityMedium, // placeholder pending first detection
		Location:    location,
		VideoFile:   path.Join("alerts", "videos", filename),
	}
	if camera != nil {
		alert.CameraID = camera.ID
	}
	if err := s.alerts.CreateAlert(alert); err != nil {
		return "", nil, fmt.Errorf("failed to create alert: %w", err)
	}
	if s.events != nil {
		s.events.PublishAlert(alert)
	}

	stats := s.run(ctx, cap, writer, det, alert, runParams{
		config: cfg,
		stride: s.cfg.FileStride,
	})

	s.finalize(ctx, alert, det, stats, filename, "video")

	log.Info().Str("output", outputPath).Int64("alert_id", alert.ID).Msg("Video processing complete")
	return outputPath, alert, nil
}

// ProcessCameraStream runs a detector over a camera's live stream for a
// bounded duration or frame count, whichever is reached first.
func (s *Service) ProcessCameraStream(ctx context.Context, cameraID int64, detectorKey string, duration time.Duration, frameLimit int) (string, *models.Alert, error) {
	camera, err := s.cameras.GetCamera(cameraID)
	if err != nil {
		return "", nil, fmt.Errorf("camera %d: %w", cameraID, err)
	}

	det, err := s.manager.Get(detectorKey)
	if err != nil {
		return "", nil, err
	}
	cfg := s.manager.GetConfig(det.Key)
	if camera.ConfidenceThreshold > 0 {
		cfg.ConfThreshold = camera.ConfidenceThreshold
	}
	if camera.IOUThreshold > 0 {
		cfg.IOUThreshold = camera.IOUThreshold
	}
	if camera.ImageSize > 0 {
		cfg.ImageSize = camera.ImageSize
	}

	cap, err := s.sources.OpenStream(camera)
	if err != nil {
		if statusErr := s.cameras.UpdateCameraStatus(camera.ID, models.CameraStatusOffline); statusErr != nil {
			log.Error().Err(statusErr).Int64("camera_id", camera.ID).Msg("Failed to mark camera offline")
		}
		return "", nil, err
	}
	defer cap.Close()

	if err := s.cameras.UpdateCameraStatus(camera.ID, models.CameraStatusOnline); err != nil {
		log.Error().Err(err).Int64("camera_id", camera.ID).Msg("Failed to mark camera online")
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 10
	}
	width := int(cap.Get(gocv.VideoCaptureFrameWidth))
	height := int(cap.Get(gocv.VideoCaptureFrameHeight))

	log.Info().
		Int64("camera_id", camera.ID).
		Str("detector", det.Key).
		Dur("duration", duration).
		Int("frame_limit", frameLimit).
		Msg("Processing camera stream")

	filename := fmt.Sprintf("camera_%d_%s_%s.mp4",
		camera.ID, det.Key, time.Now().Format("20060102_150405"))
	writer, outputPath, err := s.openWriter(filename, fps, width, height)
	if err != nil {
		return "", nil, err
	}
	defer writer.Close()

	alert := &models.Alert{
		Title:       fmt.Sprintf("%s Detection - %s", det.Name, camera.Name),
		Description: fmt.Sprintf("Real-time detection of %s from camera %s.", strings.ToLower(det.Name), camera.Name),
		Type:        models.AlertType(det.Key),
		Status:      models.AlertStatusNew,
		Severity:    models.SeverityMedium, // placeholder pending first detection
		CameraID:    camera.ID,
		Location:    camera.Location,
		VideoFile:   path.Join("alerts", "videos", filename),
	}
	if err := s.alerts.CreateAlert(alert); err != nil {
		return "", nil, fmt.Errorf("failed to create alert: %w", err)
	}
	if s.events != nil {
		s.events.PublishAlert(alert)
	}

	stats := s.run(ctx, cap, writer, det, alert, runParams{
		config:     cfg,
		stride:     camera.FrameStride(),
		duration:   duration,
		frameLimit: frameLimit,
	})

	s.finalize(ctx, alert, det, stats, filename, "camera stream")

	log.Info().Str("output", outputPath).Int64("alert_id", alert.ID).Msg("Camera stream processing complete")
	return outputPath, alert, nil
}

// mergeConfig lays non-zero override fields over the detector's
// configured tunables. A partial override must never zero the fields it
// leaves out: an image size of 0 would fail every scored frame.
func mergeConfig(base, override models.DetectorConfig) models.DetectorConfig {
	if override.ConfThreshold > 0 {
		base.ConfThreshold = override.ConfThreshold
	}
	if override.IOUThreshold > 0 {
		base.IOUThreshold = override.IOUThreshold
	}
	if override.ImageSize > 0 {
		base.ImageSize = override.ImageSize
	}
	return base
}

type runParams struct {
	config     models.DetectorConfig
	stride     int
	duration   time.Duration // 0 = run to end of stream
	frameLimit int           // 0 = no frame limit
}

// runStats aggregates what happened across one run's scored frames
type runStats struct {
	frameCount     int
	detectionCount int
	confidenceSum  float64
	bestConfidence float64
	bestFrameIndex int
	bestFrame      gocv.Mat // clone of the highest-confidence frame
	hasBestFrame   bool
}

// setBestFrame replaces the retained best frame with a clone of img
func (s *runStats) setBestFrame(img gocv.Mat) {
	if s.hasBestFrame {
		s.bestFrame.Close()
	}
	s.bestFrame = img.Clone()
	s.hasBestFrame = true
}

// run is the shared frame loop behind both entry points. Only every
// stride-th frame is scored; the rest pass through to the output
// unmodified. A single frame failure is never fatal to the run.
func (s *Service) run(ctx context.Context, reader frameReader, writer frameWriter, predictor Predictor, alert *models.Alert, p runParams) *runStats {
	stats := &runStats{}
	stride := p.stride
	if stride <= 0 {
		stride = 1
	}

	img := gocv.NewMat()
	defer img.Close()

	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Info().Int64("alert_id", alert.ID).Msg("Processing cancelled")
			return stats
		default:
		}

		if p.duration > 0 && time.Since(start) >= p.duration {
			break
		}
		if p.frameLimit > 0 && stats.frameCount >= p.frameLimit {
			break
		}

		if ok := reader.Read(&img); !ok || img.Empty() {
			break
		}
		stats.frameCount++

		if stats.frameCount%stride != 0 {
			s.writeFrame(writer, img, alert.ID)
			continue
		}

		annotated, detections, err := predictor.Predict(img, p.config.ConfThreshold, p.config.IOUThreshold, p.config.ImageSize)
		if err != nil {
			// degraded frame: pass the original through, keep going
			log.Error().Err(err).Int("frame", stats.frameCount).Int64("alert_id", alert.ID).Msg("Frame inference failed")
			s.writeFrame(writer, img, alert.ID)
			continue
		}

		maxConf := models.MaxConfidence(detections)
		if len(detections) > 0 && maxConf >= p.config.ConfThreshold {
			stats.detectionCount++
			stats.confidenceSum += maxConf
			if maxConf > stats.bestConfidence {
				stats.bestConfidence = maxConf
				stats.bestFrameIndex = stats.frameCount
				stats.setBestFrame(img)
			}

			// incremental persistence: consumers may observe the alert
			// escalating while the run continues
			if alert.RecordConfidence(maxConf) {
				if err := s.alerts.UpdateAlert(alert); err != nil {
					log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to persist alert confidence")
				}
			}
		}

		s.writeFrame(writer, annotated, alert.ID)
		annotated.Close()
	}

	return stats
}

// finalize sets the closing description, generates the thumbnail or
// applies the automatic false-positive disposition, then hands the alert
// to the notifier.
func (s *Service) finalize(ctx context.Context, alert *models.Alert, det *detector.Detector, stats *runStats, filename, sourceKind string) {
	lower := strings.ToLower(det.Name)

	if stats.detectionCount == 0 {
		// automatic disposition, distinct from a reviewer's verdict
		alert.Status = models.AlertStatusFalsePositive
		alert.Description = fmt.Sprintf("No %s detected in the %s.", lower, sourceKind)
		if err := s.alerts.UpdateAlert(alert); err != nil {
			log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to persist alert disposition")
		}
		return
	}

	avg := stats.confidenceSum / float64(stats.detectionCount)
	alert.Description = fmt.Sprintf("Detected %s in %d frames. Average confidence: %.2f.",
		lower, stats.detectionCount, avg)
	if err := s.alerts.UpdateAlert(alert); err != nil {
		log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to persist alert description")
	}

	if stats.hasBestFrame {
		defer stats.bestFrame.Close()
		thumbName := "thumb_" + strings.TrimSuffix(filename, path.Ext(filename)) + ".jpg"
		thumbPath := path.Join(s.cfg.AlertThumbnailDir(), thumbName)
		if err := helpers.SaveThumbnail(stats.bestFrame, thumbPath, thumbnailMaxDim); err != nil {
			// artifact failure degrades, never aborts
			log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to write thumbnail")
		} else {
			alert.Thumbnail = path.Join("alerts", "thumbnails", thumbName)
			if err := s.alerts.UpdateAlert(alert); err != nil {
				log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to persist thumbnail path")
			}
			log.Debug().
				Int64("alert_id", alert.ID).
				Int("frame", stats.bestFrameIndex).
				Msg("Thumbnail generated from best frame")
		}
	}

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, alert)
	}
}

func (s *Service) openWriter(filename string, fps float64, width, height int) (*gocv.VideoWriter, string, error) {
	if err := os.MkdirAll(s.cfg.AlertVideoDir(), 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := path.Join(s.cfg.AlertVideoDir(), filename)
	writer, err := gocv.VideoWriterFile(outputPath, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open output video %s: %w", outputPath, err)
	}
	return writer, outputPath, nil
}

func (s *Service) writeFrame(writer frameWriter, img gocv.Mat, alertID int64) {
	if err := writer.Write(img); err != nil {
		log.Error().Err(err).Int64("alert_id", alertID).Msg("Failed to write output frame")
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
