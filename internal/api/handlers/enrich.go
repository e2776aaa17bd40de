package handlers

import (
	"errors"
	"net/http"

	"blisse/internal/config"
	"blisse/internal/enrich"
	"blisse/internal/logger"
	"blisse/internal/services/ai"

	"github.com/gin-gonic/gin"
)

// EnrichHandler exposes the enrichment pipelines to the admin UI.
type EnrichHandler struct {
	pipeline *enrich.Pipeline
	config   *config.Config
	logger   *logger.Logger
}

func NewEnrichHandler(pipeline *enrich.Pipeline, cfg *config.Config, log *logger.Logger) *EnrichHandler {
	return &EnrichHandler{
		pipeline: pipeline,
		config:   cfg,
		logger:   log,
	}
}

type batchRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type singleRequest struct {
	ProductID   int64  `json:"productId"`
	SearchQuery string `json:"searchQuery"`
}

type imageRequest struct {
	ProductID int64 `json:"productId"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// Batch runs text enrichment over one page of products.
// POST /api/v1/enrich/batch
func (h *EnrichHandler) Batch(c *gin.Context) {
	if err := h.config.ValidateEnrichment(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing API keys", "details": err.Error()})
		return
	}

	req := batchRequest{Limit: h.config.EnrichBatchLimit}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = h.config.EnrichBatchLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	report, err := h.pipeline.EnrichAll(c.Request.Context(), req.Offset, req.Limit)
	if err != nil {
		if errors.Is(err, ai.ErrPaymentRequired) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "AI credits exhausted, please add funds"})
			return
		}
		h.logger.Error("Batch enrichment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Single enriches one product on demand.
// POST /api/v1/enrich/product
func (h *EnrichHandler) Single(c *gin.Context) {
	if err := h.config.ValidateEnrichment(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing API keys", "details": err.Error()})
		return
	}

	var req singleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	report, err := h.pipeline.EnrichOne(c.Request.Context(), req.ProductID, req.SearchQuery)
	if err != nil {
		switch {
		case errors.Is(err, enrich.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, ai.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "AI rate limit exceeded, please try again later"})
		case errors.Is(err, ai.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "AI credits exhausted, please add funds"})
		default:
			h.logger.Error("Enrichment failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// Images runs image enrichment for one product or a batch window.
// POST /api/v1/enrich/images
func (h *EnrichHandler) Images(c *gin.Context) {
	if err := h.config.ValidateEnrichment(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing API keys", "details": err.Error()})
		return
	}
	if err := h.config.ValidateWooCommerce(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing store credentials", "details": err.Error()})
		return
	}

	req := imageRequest{Limit: 5}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if req.ProductID != 0 {
		result, err := h.pipeline.EnrichImagesOne(c.Request.Context(), req.ProductID)
		if err != nil {
			if errors.Is(err, enrich.ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			h.logger.Error("Image enrichment failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
		return
	}

	if req.Limit <= 0 {
		req.Limit = 5
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	report, err := h.pipeline.EnrichImagesBatch(c.Request.Context(), req.Offset, req.Limit)
	if err != nil {
		h.logger.Error("Image batch enrichment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
