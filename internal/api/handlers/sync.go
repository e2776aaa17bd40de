package handlers

import (
	"net/http"

	"blisse/internal/config"
	"blisse/internal/logger"
	"blisse/internal/sync"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	service *sync.Service
	config  *config.Config
	logger  *logger.Logger
}

func NewSyncHandler(service *sync.Service, cfg *config.Config, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		config:  cfg,
		logger:  log,
	}
}

// Products imports the full WooCommerce catalog.
// POST /api/v1/sync/products
func (h *SyncHandler) Products(c *gin.Context) {
	if err := h.config.ValidateWooCommerce(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing store credentials", "details": err.Error()})
		return
	}

	report, err := h.service.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("WooCommerce import error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to import WooCommerce products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
