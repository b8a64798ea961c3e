package streamproxy

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/services/framesource"
)

// Service transcodes live camera feeds into rolling HLS output for
// browser playback, one ffmpeg child process per camera. It is fully
// independent of the detection pipeline.
type Service struct {
	cfg     *config.Config
	sources *framesource.Service

	mu      sync.Mutex
	proxies map[int64]*proxy
	locks   map[int64]*sync.Mutex
}

// proxy tracks one running transcoder
type proxy struct {
	cameraID int64
	cmd      *exec.Cmd
	done     chan error // closed by the wait goroutine with the exit result
	stopCh   chan struct{}
}

// NewService creates a new stream proxy service
func NewService(cfg *config.Config, sources *framesource.Service) *Service {
	return &Service{
		cfg:     cfg,
		sources: sources,
		proxies: make(map[int64]*proxy),
		locks:   make(map[int64]*sync.Mutex),
	}
}

// cameraLock returns the per-camera mutex, creating it on first use.
// The lock is held for the whole of start/stop so two starts can never
// interleave and leak a transcoder.
func (s *Service) cameraLock(cameraID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[cameraID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[cameraID] = lock
	}
	return lock
}

// Start launches the HLS transcoder for a camera, tearing down any
// prior process first.
func (s *Service) Start(camera *models.Camera) error {
	lock := s.cameraLock(camera.ID)
	lock.Lock()
	defer lock.Unlock()

	s.stopLocked(camera.ID)

	outputDir := s.cfg.StreamDir(camera.ID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create stream directory: %w", err)
	}
	clearSegments(outputDir)

	inputURL, err := s.sources.StreamInputURL(camera)
	if err != nil {
		return fmt.Errorf("failed to build stream input URL: %w", err)
	}

	cmd := exec.Command(s.cfg.FFmpegBinary, s.ffmpegArgs(inputURL, outputDir)...)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start transcoder: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// confirm the process survived launch before declaring success
	select {
	case err := <-done:
		return fmt.Errorf("transcoder exited immediately: %w", err)
	case <-time.After(s.cfg.ProxyStartupWait):
	}

	p := &proxy{
		cameraID: camera.ID,
		cmd:      cmd,
		done:     done,
		stopCh:   make(chan struct{}),
	}

	s.mu.Lock()
	s.proxies[camera.ID] = p
	s.mu.Unlock()

	go s.monitor(p)

	log.Info().
		Int64("camera_id", camera.ID).
		Str("output_dir", outputDir).
		Msg("Stream proxy started")
	return nil
}

// Stop terminates a camera's transcoder: graceful SIGTERM first, SIGKILL
// after the grace period. Always reaches a clean not-running state, even
// when the process is already dead.
func (s *Service) Stop(camera *models.Camera) {
	lock := s.cameraLock(camera.ID)
	lock.Lock()
	defer lock.Unlock()

	s.stopLocked(camera.ID)
}

func (s *Service) stopLocked(cameraID int64) {
	s.mu.Lock()
	p, ok := s.proxies[cameraID]
	if ok {
		delete(s.proxies, cameraID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	close(p.stopCh)

	if p.cmd.Process != nil {
		// terminate signal may fail if the process already exited;
		// the wait below settles it either way
		_ = p.cmd.Process.Signal(syscall.SIGTERM)

		select {
		case <-p.done:
		case <-time.After(s.cfg.ProxyStopGrace):
			_ = p.cmd.Process.Kill()
			<-p.done
		}
	}

	log.Info().Int64("camera_id", cameraID).Msg("Stream proxy stopped")
}

// IsRunning reports whether a transcoder is live for the camera
func (s *Service) IsRunning(cameraID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.proxies[cameraID]
	return ok
}

// PlaylistPath returns the on-disk path of a camera's HLS playlist
func (s *Service) PlaylistPath(cameraID int64) string {
	return filepath.Join(s.cfg.StreamDir(cameraID), "index.m3u8")
}

// StopAll tears down every running proxy; used on shutdown and when a
// camera is deleted.
func (s *Service) StopAll() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.proxies))
	for id := range s.proxies {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		lock := s.cameraLock(id)
		lock.Lock()
		s.stopLocked(id)
		lock.Unlock()
	}
}

// monitor watches the transcoder for unexpected exit. It observes the
// cooperative stop signal promptly so camera deletion never orphans a
// goroutine.
func (s *Service) monitor(p *proxy) {
	ticker := time.NewTicker(s.cfg.ProxyMonitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case err := <-p.done:
			// keep the exit result observable for stopLocked
			p.done <- err

			s.mu.Lock()
			current, ok := s.proxies[p.cameraID]
			if ok && current == p {
				delete(s.proxies, p.cameraID)
				log.Warn().
					Int64("camera_id", p.cameraID).
					AnErr("exit_error", err).
					Msg("Stream proxy exited unexpectedly")
			}
			s.mu.Unlock()
			return
		case <-ticker.C:
			// liveness poll; exit is delivered through done
		}
	}
}

// ffmpegArgs builds the HLS transcode command: 2-second segments, a
// 5-segment sliding window and deletion of segments that fall out of it.
func (s *Service) ffmpegArgs(inputURL, outputDir string) []string {
	return []string{
		"-i", inputURL,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-sc_threshold", "0",
		"-g", "30",
		"-hls_time", fmt.Sprintf("%d", s.cfg.HLSSegmentSeconds),
		"-hls_list_size", fmt.Sprintf("%d", s.cfg.HLSPlaylistSize),
		"-hls_flags", "delete_segments",
		"-hls_segment_type", "mpegts",
		"-hls_segment_filename", filepath.Join(outputDir, "segment_%03d.ts"),
		"-f", "hls",
		"-loglevel", "warning",
		filepath.Join(outputDir, "index.m3u8"),
	}
}

// clearSegments removes stale playlist and segment files from a prior run
func clearSegments(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove stale segment")
		}
	}
}
