package handlers

import (
	"net/http"

	"blisse/internal/catalog"
	"blisse/internal/logger"
	"blisse/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCategoryHandler(db *gorm.DB, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		db:     db,
		logger: logger,
	}
}

// List returns the storefront navigation categories.
func (h *CategoryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": catalog.Categories})
}

// Products returns all listable products of one category slug.
func (h *CategoryHandler) Products(c *gin.Context) {
	slug := c.Param("slug")
	info := catalog.CategoryBySlug(slug)
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var products []models.Product
	err := h.db.Where("status = ?", models.StatusPublish).Order("name ASC").Find(&products).Error
	if err != nil {
		h.logger.Error("Failed to fetch products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	cards := make([]productCard, 0)
	for i := range products {
		p := &products[i]
		if catalog.Listable(p) && catalog.InCategory(p, slug) {
			cards = append(cards, toCard(p))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"category": info,
		"data":     cards,
		"count":    len(cards),
	})
}

// Brands returns the recognized brand identifiers.
func (h *CategoryHandler) Brands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": catalog.Brands()})
}

// BrandProducts returns all listable products matching one brand marker.
func (h *CategoryHandler) BrandProducts(c *gin.Context) {
	brand := c.Param("brand")

	var products []models.Product
	err := h.db.Where("status = ?", models.StatusPublish).Order("name ASC").Find(&products).Error
	if err != nil {
		h.logger.Error("Failed to fetch products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	cards := make([]productCard, 0)
	for i := range products {
		p := &products[i]
		if catalog.Listable(p) && catalog.DetectBrand(p) == brand {
			cards = append(cards, toCard(p))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"brand": brand,
		"data":  cards,
		"count": len(cards),
	})
}
