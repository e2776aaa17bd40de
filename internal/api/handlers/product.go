package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"blisse/internal/catalog"
	"blisse/internal/logger"
	"blisse/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewProductHandler(db *gorm.DB, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		db:     db,
		logger: logger,
	}
}

// productCard is the listing shape the storefront renders: one resolved
// display price plus the struck-through original when a sale is active.
type productCard struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	OnSale        bool     `json:"on_sale"`
}

func toCard(p *models.Product) productCard {
	card := productCard{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.DisplayPrice(),
		Image:  p.ImageURL,
		OnSale: p.IsOnSale(),
	}
	if card.OnSale {
		card.OriginalPrice = p.RegularPrice
	}
	if len(p.Categories) > 0 {
		card.Category = p.Categories[0]
	}
	return card
}

// List returns listable products, paginated, optionally narrowed by search
// text or by a canonical category slug.
func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	search := c.Query("search")
	categorySlug := c.Query("category")

	query := h.db.Model(&models.Product{}).Where("status = ?", models.StatusPublish).Order("name ASC")
	if search != "" {
		query = query.Where("name LIKE ? OR sku LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		h.logger.Error("Failed to fetch products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	// Category membership lives in a serialized slug list, so the slug and
	// exclusion filters run here rather than in SQL.
	filtered := make([]productCard, 0, len(products))
	for i := range products {
		p := &products[i]
		if !catalog.Listable(p) {
			continue
		}
		if categorySlug != "" && !catalog.InCategory(p, categorySlug) {
			continue
		}
		filtered = append(filtered, toCard(p))
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"data": filtered[start:end],
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// Get returns one product with its description classified into display
// sections and its detected brand.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":          product,
		"sections":      catalog.ParseDescription(product.Description),
		"brand":         catalog.DetectBrand(&product),
		"display_price": product.DisplayPrice(),
		"on_sale":       product.IsOnSale(),
	})
}
