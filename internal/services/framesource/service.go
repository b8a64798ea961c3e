package framesource

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/store"
)

var (
	// ErrOpenFailed means the source could not be opened at all
	ErrOpenFailed = errors.New("failed to open source")
	// ErrReadFailed means the source opened but produced no frame
	ErrReadFailed = errors.New("failed to read frame")
	// ErrUnsupportedType means the camera transport kind is unknown
	ErrUnsupportedType = errors.New("unsupported camera type")
)

// CaptureResult is the uniform outcome of a capture or verification.
// Transports never let errors escape this shape.
type CaptureResult struct {
	Success bool
	Message string
	Frame   *gocv.Mat // nil unless Success; caller owns Close
	Err     error     // ErrOpenFailed / ErrReadFailed / ErrUnsupportedType
}

// Service acquires frames across the four camera transports
type Service struct {
	cfg    *config.Config
	client *http.Client
}

// NewService creates a new frame source service
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.CaptureTimeout,
		},
	}
}

// CaptureFrame grabs a single frame from a camera
func (s *Service) CaptureFrame(camera *models.Camera) CaptureResult {
	switch camera.Type {
	case models.CameraTypeRTSP:
		return s.captureRTSP(camera)
	case models.CameraTypeHTTP:
		return s.captureHTTP(camera)
	case models.CameraTypeLocal:
		return s.captureLocal(camera)
	case models.CameraTypeFile:
		return s.captureFile(camera)
	default:
		return CaptureResult{
			Message: fmt.Sprintf("unsupported camera type: %s", camera.Type),
			Err:     ErrUnsupportedType,
		}
	}
}

// VerifyConnection checks whether a camera can be connected to and read
// from, without handing a frame back.
func (s *Service) VerifyConnection(camera *models.Camera) CaptureResult {
	result := s.CaptureFrame(camera)
	if result.Frame != nil {
		result.Frame.Close()
		result.Frame = nil
	}
	return result
}

// OpenStream opens a camera as a continuous frame stream for the
// detection pipeline. Unlike CaptureFrame this hands the capture handle
// to the caller, which owns Close.
func (s *Service) OpenStream(camera *models.Camera) (*gocv.VideoCapture, error) {
	switch camera.Type {
	case models.CameraTypeRTSP:
		url, err := s.StreamInputURL(camera)
		if err != nil {
			return nil, err
		}
		configureFFmpegTimeout(s.cfg.CaptureTimeout)
		cap, err := gocv.OpenVideoCaptureWithAPI(url, gocv.VideoCaptureFFmpeg)
		if err != nil || !cap.IsOpened() {
			return nil, fmt.Errorf("%w: rtsp stream %s", ErrOpenFailed, camera.URL)
		}
		return cap, nil
	case models.CameraTypeLocal:
		index := deviceIndex(camera.URL)
		cap, err := gocv.OpenVideoCapture(index)
		if err != nil || !cap.IsOpened() {
			return nil, fmt.Errorf("%w: device index %d", ErrOpenFailed, index)
		}
		return cap, nil
	case models.CameraTypeFile:
		path, err := s.resolveFilePath(camera.URL)
		if err != nil {
			return nil, err
		}
		cap, err := gocv.OpenVideoCapture(path)
		if err != nil || !cap.IsOpened() {
			return nil, fmt.Errorf("%w: video file %s", ErrOpenFailed, path)
		}
		return cap, nil
	case models.CameraTypeHTTP:
		// MJPEG-over-HTTP streams open fine through ffmpeg as well
		url, err := s.StreamInputURL(camera)
		if err != nil {
			return nil, err
		}
		cap, err := gocv.OpenVideoCaptureWithAPI(url, gocv.VideoCaptureFFmpeg)
		if err != nil || !cap.IsOpened() {
			return nil, fmt.Errorf("%w: http stream %s", ErrOpenFailed, camera.URL)
		}
		return cap, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, camera.Type)
	}
}

// OpenFile opens a standalone video file resolved against the media root
func (s *Service) OpenFile(path string) (*gocv.VideoCapture, string, error) {
	resolved, err := s.resolveFilePath(path)
	if err != nil {
		return nil, "", err
	}
	cap, err := gocv.OpenVideoCapture(resolved)
	if err != nil || !cap.IsOpened() {
		return nil, "", fmt.Errorf("%w: video file %s", ErrOpenFailed, resolved)
	}
	return cap, resolved, nil
}

// StreamInputURL builds the transport input URL the way ffmpeg and
// OpenCV expect it, embedding credentials where the camera carries them.
func (s *Service) StreamInputURL(camera *models.Camera) (string, error) {
	switch camera.Type {
	case models.CameraTypeRTSP, models.CameraTypeHTTP:
		return embedCredentials(camera.URL, camera.Username, camera.Password), nil
	case models.CameraTypeLocal:
		return fmt.Sprintf("/dev/video%d", deviceIndex(camera.URL)), nil
	case models.CameraTypeFile:
		return s.resolveFilePath(camera.URL)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, camera.Type)
	}
}

// UpdateCameraStatuses verifies every camera and pushes the resulting
// status transition into the store. Open failures mark a camera offline,
// read failures mark it error.
func (s *Service) UpdateCameraStatuses(cameras []*models.Camera, cameraStore store.CameraStore) {
	for _, camera := range cameras {
		result := s.VerifyConnection(camera)

		status := models.CameraStatusOnline
		if !result.Success {
			status = models.CameraStatusOffline
			if errors.Is(result.Err, ErrReadFailed) {
				status = models.CameraStatusError
			}
		}
		if camera.Status == status {
			continue
		}
		if err := cameraStore.UpdateCameraStatus(camera.ID, status); err != nil {
			log.Error().Err(err).Int64("camera_id", camera.ID).Msg("Failed to update camera status")
			continue
		}
		log.Info().
			Int64("camera_id", camera.ID).
			Str("from", camera.Status.String()).
			Str("to", status.String()).
			Str("reason", result.Message).
			Msg("Camera status changed")
	}
}

func (s *Service) captureRTSP(camera *models.Camera) CaptureResult {
	url := embedCredentials(camera.URL, camera.Username, camera.Password)

	configureFFmpegTimeout(s.cfg.CaptureTimeout)

	cap, err := gocv.OpenVideoCaptureWithAPI(url, gocv.VideoCaptureFFmpeg)
	if err != nil {
		return CaptureResult{Message: "failed to open RTSP stream", Err: ErrOpenFailed}
	}
	defer cap.Close()

	if !cap.IsOpened() {
		return CaptureResult{Message: "failed to open RTSP stream", Err: ErrOpenFailed}
	}

	img := gocv.NewMat()
	if ok := cap.Read(&img); !ok || img.Empty() {
		img.Close()
		// opened but unreadable is a distinct failure mode
		return CaptureResult{Message: "failed to read frame from RTSP stream", Err: ErrReadFailed}
	}

	return CaptureResult{Success: true, Message: "frame captured", Frame: &img}
}

func (s *Service) captureHTTP(camera *models.Camera) CaptureResult {
	req, err := http.NewRequest(http.MethodGet, camera.URL, nil)
	if err != nil {
		return CaptureResult{Message: fmt.Sprintf("invalid camera URL: %v", err), Err: ErrOpenFailed}
	}
	if camera.HasCredentials() {
		req.SetBasicAuth(camera.Username, camera.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return CaptureResult{Message: fmt.Sprintf("HTTP request failed: %v", err), Err: ErrOpenFailed}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CaptureResult{
			Message: fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			Err:     ErrOpenFailed,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") && !strings.Contains(contentType, "video") {
		return CaptureResult{
			Message: fmt.Sprintf("unexpected content type %q", contentType),
			Err:     ErrReadFailed,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return CaptureResult{Message: fmt.Sprintf("failed to read HTTP response: %v", err), Err: ErrReadFailed}
	}

	img, err := gocv.IMDecode(body, gocv.IMReadColor)
	if err != nil || img.Empty() {
		return CaptureResult{Message: "failed to decode image from HTTP response", Err: ErrReadFailed}
	}

	return CaptureResult{Success: true, Message: "frame captured", Frame: &img}
}

func (s *Service) captureLocal(camera *models.Camera) CaptureResult {
	index := deviceIndex(camera.URL)

	cap, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return CaptureResult{
			Message: fmt.Sprintf("failed to open device at index %d", index),
			Err:     ErrOpenFailed,
		}
	}
	defer cap.Close()

	if !cap.IsOpened() {
		return CaptureResult{
			Message: fmt.Sprintf("failed to open device at index %d", index),
			Err:     ErrOpenFailed,
		}
	}

	img := gocv.NewMat()
	if ok := cap.Read(&img); !ok || img.Empty() {
		img.Close()
		return CaptureResult{Message: "failed to read frame from device", Err: ErrReadFailed}
	}

	return CaptureResult{Success: true, Message: "frame captured", Frame: &img}
}

func (s *Service) captureFile(camera *models.Camera) CaptureResult {
	path, err := s.resolveFilePath(camera.URL)
	if err != nil {
		return CaptureResult{Message: fmt.Sprintf("video file not found: %s", camera.URL), Err: ErrOpenFailed}
	}

	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return CaptureResult{Message: fmt.Sprintf("failed to open video file: %s", path), Err: ErrOpenFailed}
	}
	defer cap.Close()

	if !cap.IsOpened() {
		return CaptureResult{Message: fmt.Sprintf("failed to open video file: %s", path), Err: ErrOpenFailed}
	}

	img := gocv.NewMat()
	if ok := cap.Read(&img); !ok || img.Empty() {
		img.Close()
		return CaptureResult{Message: "failed to read frame from video file", Err: ErrReadFailed}
	}

	return CaptureResult{Success: true, Message: "frame captured", Frame: &img}
}

// resolveFilePath accepts absolute paths as-is and falls back to the
// media root for relative ones before declaring the file missing.
func (s *Service) resolveFilePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	resolved := filepath.Join(s.cfg.MediaRoot, path)
	if _, err := os.Stat(resolved); err == nil {
		return resolved, nil
	}
	return "", fmt.Errorf("%w: video file %s", ErrOpenFailed, path)
}

// deviceIndex parses a local camera's address as a numeric device index.
// Non-numeric addresses fall back to device 0.
func deviceIndex(address string) int {
	if index, err := strconv.Atoi(strings.TrimSpace(address)); err == nil && index >= 0 {
		return index
	}
	return 0
}

// embedCredentials inserts user:pass into a stream URL unless the URL
// already carries its own
func embedCredentials(url, username, password string) string {
	if username == "" || password == "" {
		return url
	}
	if strings.Contains(url, "@") {
		return url
	}
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return url
	}
	return fmt.Sprintf("%s://%s:%s@%s", parts[0], username, password, parts[1])
}

// configureFFmpegTimeout pushes a socket timeout into OpenCV's ffmpeg
// backend so a dead camera fails within the capture timeout instead of
// stalling a worker.
func configureFFmpegTimeout(timeout time.Duration) {
	micros := strconv.FormatInt(timeout.Microseconds(), 10)
	options := fmt.Sprintf("rtsp_transport;tcp|stimeout;%s|rw_timeout;%s", micros, micros)
	os.Setenv("OPENCV_FFMPEG_CAPTURE_OPTIONS", options)
}
