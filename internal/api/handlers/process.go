package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/services/detector"
	"sentinel-core-go/internal/services/framesource"
	"sentinel-core-go/internal/services/videoprocessor"
	"sentinel-core-go/internal/store"
)

type ProcessHandler struct {
	processor *videoprocessor.Service
}

func NewProcessHandler(processor *videoprocessor.Service) *ProcessHandler {
	return &ProcessHandler{processor: processor}
}

// ProcessVideoRequest selects a video file and detector, with optional
// threshold overrides. Omitted thresholds fall back to the detector's
// configured tunables.
type ProcessVideoRequest struct {
	VideoPath           string   `json:"video_path" binding:"required"`
	Detector            string   `json:"detector"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	IOUThreshold        *float64 `json:"iou_threshold"`
	ImageSize           *int     `json:"image_size"`
	CameraID            int64    `json:"camera_id"`
}

// ProcessStreamRequest bounds a live detection run. At least one of
// duration and frame limit must be set so a run always terminates.
type ProcessStreamRequest struct {
	Detector        string `json:"detector"`
	DurationSeconds int    `json:"duration_seconds"`
	FrameLimit      int    `json:"frame_limit"`
}

// ProcessVideo runs a detector over an uploaded or mounted video file
func (h *ProcessHandler) ProcessVideo(c *gin.Context) {
	var req ProcessVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var thresholds *models.DetectorConfig
	if req.ConfidenceThreshold != nil || req.IOUThreshold != nil || req.ImageSize != nil {
		thresholds = &models.DetectorConfig{}
		if req.ConfidenceThreshold != nil {
			thresholds.ConfThreshold = *req.ConfidenceThreshold
		}
		if req.IOUThreshold != nil {
			thresholds.IOUThreshold = *req.IOUThreshold
		}
		if req.ImageSize != nil {
			thresholds.ImageSize = *req.ImageSize
		}
	}

	outputPath, alert, err := h.processor.ProcessVideoFile(c.Request.Context(), req.VideoPath, req.Detector, thresholds, req.CameraID)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, detector.ErrUnknownDetector):
			status = http.StatusBadRequest
		case errors.Is(err, framesource.ErrOpenFailed):
			status = http.StatusUnprocessableEntity
		}
		log.Error().Err(err).Str("video", req.VideoPath).Msg("Video processing failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"output_path": outputPath,
		"alert":       alert,
	})
}

// ProcessStream runs a detector over a camera's live feed for a bounded
// duration or frame count.
func (h *ProcessHandler) ProcessStream(c *gin.Context) {
	cameraID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid camera id"})
		return
	}

	var req ProcessStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DurationSeconds <= 0 && req.FrameLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_seconds or frame_limit is required"})
		return
	}

	duration := time.Duration(req.DurationSeconds) * time.Second
	outputPath, alert, err := h.processor.ProcessCameraStream(c.Request.Context(), cameraID, req.Detector, duration, req.FrameLimit)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, detector.ErrUnknownDetector):
			status = http.StatusBadRequest
		case errors.Is(err, store.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, framesource.ErrOpenFailed):
			status = http.StatusUnprocessableEntity
		}
		log.Error().Err(err).Int64("camera_id", cameraID).Msg("Stream processing failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"output_path": outputPath,
		"alert":       alert,
	})
}
