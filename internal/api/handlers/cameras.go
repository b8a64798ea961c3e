package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/services/framesource"
	"sentinel-core-go/internal/store"
)

type CameraHandler struct {
	cameras store.CameraStore
	sources *framesource.Service
}

func NewCameraHandler(cameras store.CameraStore, sources *framesource.Service) *CameraHandler {
	return &CameraHandler{
		cameras: cameras,
		sources: sources,
	}
}

// ListCameras lists all cameras
func (h *CameraHandler) ListCameras(c *gin.Context) {
	cameras, err := h.cameras.ListCameras()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cameras": cameras, "count": len(cameras)})
}

// GetCamera gets camera details
func (h *CameraHandler) GetCamera(c *gin.Context) {
	camera, ok := h.cameraFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, camera)
}

// GetFrame captures a single frame from the camera and returns it as
// JPEG
func (h *CameraHandler) GetFrame(c *gin.Context) {
	camera, ok := h.cameraFromParam(c)
	if !ok {
		return
	}

	result := h.sources.CaptureFrame(camera)
	if !result.Success {
		log.Warn().Int64("camera_id", camera.ID).Str("reason", result.Message).Msg("Frame capture failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": result.Message})
		return
	}
	defer result.Frame.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *result.Frame)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode frame"})
		return
	}
	defer buf.Close()

	c.Data(http.StatusOK, "image/jpeg", buf.GetBytes())
}

// VerifyCamera checks connectivity and persists the resulting status
// transition
func (h *CameraHandler) VerifyCamera(c *gin.Context) {
	camera, ok := h.cameraFromParam(c)
	if !ok {
		return
	}

	h.sources.UpdateCameraStatuses([]*models.Camera{camera}, h.cameras)

	refreshed, err := h.cameras.GetCamera(camera.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"camera_id": refreshed.ID,
		"status":    refreshed.Status,
	})
}

// RefreshStatuses verifies every camera and persists status transitions
func (h *CameraHandler) RefreshStatuses(c *gin.Context) {
	cameras, err := h.cameras.ListCameras()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.sources.UpdateCameraStatuses(cameras, h.cameras)
	c.JSON(http.StatusOK, gin.H{"checked": len(cameras)})
}

func (h *CameraHandler) cameraFromParam(c *gin.Context) (*models.Camera, bool) {
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
