package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"blisse/internal/catalog"
	"blisse/internal/models"
)

var (
	db      *sql.DB
	dbMutex sync.Mutex
)

// initDB initializes the database connection
func initDB() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if db != nil {
		return nil // Already initialized
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	var err error
	db, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		short_description TEXT,
		sku VARCHAR(255),
		type VARCHAR(50),
		status VARCHAR(50),
		price DECIMAL(10,2),
		regular_price DECIMAL(10,2),
		sale_price DECIMAL(10,2),
		stock_quantity INTEGER,
		image_url TEXT,
		images TEXT,
		categories TEXT,
		category_slugs TEXT,
		tags TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

// scanProduct reads one row into a models.Product. The JSON columns
// (images, categories, category_slugs, tags) are stored as text.
func scanProduct(scan func(dest ...interface{}) error) (*models.Product, error) {
	var p models.Product
	var description, shortDescription, sku, ptype, status, imageURL sql.NullString
	var price, regularPrice, salePrice sql.NullFloat64
	var stockQuantity sql.NullInt64
	var images, categories, categorySlugs, tags sql.NullString
	var createdAt, updatedAt time.Time

	err := scan(&p.ID, &p.Name, &description, &shortDescription, &sku, &ptype, &status,
		&price, &regularPrice, &salePrice, &stockQuantity,
		&imageURL, &images, &categories, &categorySlugs, &tags,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.ShortDescription = shortDescription.String
	p.SKU = sku.String
	p.Type = ptype.String
	p.Status = status.String
	p.ImageURL = imageURL.String
	if price.Valid {
		v := price.Float64
		p.Price = &v
	}
	if regularPrice.Valid {
		v := regularPrice.Float64
		p.RegularPrice = &v
	}
	if salePrice.Valid {
		v := salePrice.Float64
		p.SalePrice = &v
	}
	if stockQuantity.Valid {
		v := int(stockQuantity.Int64)
		p.StockQuantity = &v
	}
	if images.Valid && images.String != "" {
		json.Unmarshal([]byte(images.String), &p.Images)
	}
	if categories.Valid && categories.String != "" {
		json.Unmarshal([]byte(categories.String), &p.Categories)
	}
	if categorySlugs.Valid && categorySlugs.String != "" {
		json.Unmarshal([]byte(categorySlugs.String), &p.CategorySlugs)
	}
	if tags.Valid && tags.String != "" {
		json.Unmarshal([]byte(tags.String), &p.Tags)
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt

	return &p, nil
}

const productColumns = `id, name, description, short_description, sku, type, status,
	price, regular_price, sale_price, stock_quantity,
	image_url, images, categories, category_slugs, tags, created_at, updated_at`

func queryProducts(query string, args ...interface{}) ([]models.Product, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			continue // Skip problematic rows
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func productCard(p *models.Product) gin.H {
	category := ""
	if len(p.Categories) > 0 {
		category = p.Categories[0]
	}
	card := gin.H{
		"id":       p.ID,
		"name":     p.Name,
		"price":    p.DisplayPrice(),
		"image":    p.ImageURL,
		"category": category,
		"on_sale":  p.IsOnSale(),
	}
	// Same shape as the server handler: original_price only when a sale
	// price is actually active.
	if p.IsOnSale() {
		card["original_price"] = *p.RegularPrice
	}
	return card
}

// Handler is the main entry point for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	// Initialize database connection
	if err := initDB(); err != nil {
		http.Error(w, fmt.Sprintf("Database initialization failed: %v", err), http.StatusInternalServerError)
		return
	}

	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Blisse API is running",
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	api := router.Group("/api/v1")
	{
		products := api.Group("/products")
		{
			products.GET("", func(c *gin.Context) {
				page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
				if page < 1 {
					page = 1
				}
				limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
				if limit < 1 || limit > 100 {
					limit = 20
				}
				search := strings.ToLower(c.Query("search"))
				categorySlug := c.Query("category")

				all, err := queryProducts(fmt.Sprintf(
					`SELECT %s FROM products WHERE status = $1 ORDER BY id ASC`, productColumns),
					models.StatusPublish)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query products"})
					return
				}

				var filtered []gin.H
				for i := range all {
					p := &all[i]
					if !catalog.Listable(p) {
						continue
					}
					if categorySlug != "" && !catalog.InCategory(p, categorySlug) {
						continue
					}
					if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
						continue
					}
					filtered = append(filtered, productCard(p))
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
				totalPages := (total + limit - 1) / limit

				c.JSON(http.StatusOK, gin.H{
					"data": filtered[start:end],
					"pagination": gin.H{
						"page":        page,
						"limit":       limit,
						"total":       total,
						"total_pages": totalPages,
						"has_next":    page < totalPages,
						"has_prev":    page > 1,
					},
				})
			})

			products.GET("/:id", func(c *gin.Context) {
				id, err := strconv.ParseInt(c.Param("id"), 10, 64)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
					return
				}

				row := db.QueryRow(fmt.Sprintf(
					`SELECT %s FROM products WHERE id = $1`, productColumns), id)
				p, err := scanProduct(row.Scan)
				if err != nil {
					c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
					return
				}

				sections := catalog.ParseDescription(p.Description)
				c.JSON(http.StatusOK, gin.H{
					"data": gin.H{
						"product":       p,
						"sections":      sections,
						"brand":         catalog.DetectBrand(p),
						"display_price": p.DisplayPrice(),
						"on_sale":       p.IsOnSale(),
					},
				})
			})
		}

		api.GET("/categories", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": catalog.Categories})
		})
	}

	router.ServeHTTP(w, r)
}
