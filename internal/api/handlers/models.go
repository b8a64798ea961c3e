package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sentinel-core-go/internal/services/detector"
)

type ModelsHandler struct {
	manager *detector.Manager
}

func NewModelsHandler(manager *detector.Manager) *ModelsHandler {
	return &ModelsHandler{manager: manager}
}

// ListModels returns every registered detector with its current config
func (h *ModelsHandler) ListModels(c *gin.Context) {
	infos := h.manager.ListAvailable()
	out := make([]gin.H, 0, len(infos))
	for _, info := range infos {
		out = append(out, gin.H{
			"key":         info.Key,
			"name":        info.Name,
			"description": info.Description,
			"classes":     info.Classes,
			"config":      h.manager.GetConfig(info.Key),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"models": out,
		"active": h.manager.ActiveKey(),
	})
}

// GetActiveModel returns the process-wide default detector
func (h *ModelsHandler) GetActiveModel(c *gin.Context) {
	key := h.manager.ActiveKey()
	det, err := h.manager.Get(key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active": key,
		"model":  det.Info(),
		"config": h.manager.GetConfig(key),
	})
}

type setActiveRequest struct {
	Detector string `json:"detector" binding:"required"`
}

// SetActiveModel switches the default detector
func (h *ModelsHandler) SetActiveModel(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	det, err := h.manager.SetActive(req.Detector)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active": det.Key,
		"model":  det.Info(),
	})
}

// GetModelConfig returns one detector's tunables
func (h *ModelsHandler) GetModelConfig(c *gin.Context) {
	key := c.Param("key")
	if _, err := h.manager.Get(key); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detector": key,
		"config":   h.manager.GetConfig(key),
	})
}

// UpdateModelConfig applies a partial update to a detector's tunables
func (h *ModelsHandler) UpdateModelConfig(c *gin.Context) {
	key := c.Param("key")

	var update detector.ConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.manager.UpdateConfig(key, update)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, detector.ErrUnknownDetector) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detector": key,
		"config":   cfg,
	})
}

// ValidateModels reports which model artifacts are missing on disk
func (h *ModelsHandler) ValidateModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.ValidateModels())
}
