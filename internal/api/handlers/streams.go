package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/services/streamproxy"
	"sentinel-core-go/internal/store"
)

type StreamHandler struct {
	cfg     *config.Config
	proxy   *streamproxy.Service
	cameras store.CameraStore
}

func NewStreamHandler(cfg *config.Config, proxy *streamproxy.Service, cameras store.CameraStore) *StreamHandler {
	return &StreamHandler{
		cfg:     cfg,
		proxy:   proxy,
		cameras: cameras,
	}
}

// StartStream launches the HLS transcoder for a camera
func (h *StreamHandler) StartStream(c *gin.Context) {
	camera, ok := h.cameraFromParam(c)
	if !ok {
		return
	}

	if err := h.proxy.Start(camera); err != nil {
		log.Error().Err(err).Int64("camera_id", camera.ID).Msg("Failed to start stream proxy")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"camera_id": camera.ID,
		"playlist":  "/streams/" + strconv.FormatInt(camera.ID, 10) + "/index.m3u8",
	})
}

// StopStream terminates a camera's HLS transcoder. Stopping a camera
// with no running proxy is a no-op.
func (h *StreamHandler) StopStream(c *gin.Context) {
	camera, ok := h.cameraFromParam(c)
	if !ok {
		return
	}

	h.proxy.Stop(camera)
	c.JSON(http.StatusOK, gin.H{"message": "Stream stopped"})
}

// StreamStatus reports whether the camera's transcoder is running
func (h *StreamHandler) StreamStatus(c *gin.Context) {
	cameraID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"camera_id": cameraID,
		"running":   h.proxy.IsRunning(cameraID),
	})
}

// ServeStreamFile serves HLS playlists and segments from the camera's
// stream directory. Only .m3u8 and .ts files inside that directory are
// reachable.
func (h *StreamHandler) ServeStreamFile(c *gin.Context) {
	cameraID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return
	}

	name := filepath.Base(c.Param("file"))
	ext := filepath.Ext(name)
	if ext != ".m3u8" && ext != ".ts" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	full := filepath.Join(h.cfg.StreamDir(cameraID), name)
	if !strings.HasPrefix(full, filepath.Clean(h.cfg.StreamDir(cameraID))+string(filepath.Separator)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if ext == ".m3u8" {
		c.Header("Content-Type", "application/vnd.apple.mpegurl")
	} else {
		c.Header("Content-Type", "video/mp2t")
	}
	c.Header("Cache-Control", "no-cache")
	c.File(full)
}

func (h *StreamHandler) cameraFromParam(c *gin.Context) (*models.Camera, bool) {
	cameraID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return nil, false
	}

	camera, err := h.cameras.GetCamera(cameraID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Camera not found"})
		return nil, false
	}
	return camera, true
}
