package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/models"
	"sentinel-core-go/internal/store"
)

type AlertHandler struct {
	alerts        store.AlertStore
	notifications store.NotificationStore
}

func NewAlertHandler(alerts store.AlertStore, notifications store.NotificationStore) *AlertHandler {
	return &AlertHandler{
		alerts:        alerts,
		notifications: notifications,
	}
}

// GetAlert returns one alert
func (h *AlertHandler) GetAlert(c *gin.Context) {
	alert, ok := h.alertFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, alert)
}

type resolveRequest struct {
	Status string `json:"status" binding:"required"`
	UserID int64  `json:"user_id" binding:"required"`
}

// ResolveAlert applies a reviewer's terminal disposition. A resolved
// alert rejects any further disposition.
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.AlertStatus(req.Status)
	if !status.IsResolution() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be a terminal disposition"})
		return
	}

	alert, err := h.alerts.ResolveAlert(id, status, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		case errors.Is(err, store.ErrAlertResolved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	log.Info().
		Int64("alert_id", alert.ID).
		Str("status", status.String()).
		Int64("user_id", req.UserID).
		Msg("Alert resolved")
	c.JSON(http.StatusOK, alert)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// SetNotes updates reviewer notes; allowed even after resolution
func (h *AlertHandler) SetNotes(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.alerts.SetNotes(id, req.Notes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notes updated"})
}

// ListNotifications returns the dispatch log for one alert
func (h *AlertHandler) ListNotifications(c *gin.Context) {
	alert, ok := h.alertFromParam(c)
	if !ok {
		return
	}

	entries, err := h.notifications.ListLogsByAlert(alert.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": entries, "count": len(entries)})
}

func (h *AlertHandler) alertFromParam(c *gin.Context) (*models.Alert, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return nil, false
	}

	alert, err := h.alerts.GetAlert(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return nil, false
	}
	return alert, true
}
