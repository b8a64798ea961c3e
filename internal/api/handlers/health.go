package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentinel-core-go/internal/services/messaging"
)

type HealthHandler struct {
	workerID  string
	version   string
	startedAt time.Time
	events    *messaging.Service
}

func NewHealthHandler(workerID, version string, events *messaging.Service) *HealthHandler {
	return &HealthHandler{
		workerID:  workerID,
		version:   version,
		startedAt: time.Now(),
		events:    events,
	}
}

// WorkerInfo returns worker identity and uptime
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"worker_id": h.workerID,
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).String(),
	})
}

// HealthCheck reports liveness and dependency status
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"worker_id":      h.workerID,
		"nats_connected": h.events.IsConnected(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
