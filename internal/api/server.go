package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blisse/internal/api/handlers"
	"blisse/internal/api/middleware"
	"blisse/internal/config"
	"blisse/internal/connectors/woocommerce"
	"blisse/internal/database"
	"blisse/internal/enrich"
	"blisse/internal/events"
	"blisse/internal/logger"
	"blisse/internal/services/ai"
	"blisse/internal/services/firecrawl"
	"blisse/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, log *logger.Logger, db *database.Database) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Shared clients and services
	wcClient := woocommerce.NewClient(cfg.WooStoreURL, cfg.WooConsumerKey, cfg.WooConsumerSecret, log)
	searchClient := firecrawl.NewClient(cfg.FirecrawlAPIKey, log)
	extractor := ai.NewExtractor(cfg.AIGatewayKey, cfg.AIGatewayURL, cfg.AIModel, log)
	store := enrich.NewGormStore(db.DB)
	pipeline := enrich.NewPipeline(store, searchClient, extractor, wcClient, log,
		time.Duration(cfg.EnrichItemDelay)*time.Second)
	publisher := events.NewPublisher(cfg.KafkaBrokers, log)
	syncService := sync.New(db.DB, wcClient, publisher, log)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(db.DB, log)
	categoryHandler := handlers.NewCategoryHandler(db.DB, log)
	enrichHandler := handlers.NewEnrichHandler(pipeline, cfg, log)
	syncHandler := handlers.NewSyncHandler(syncService, cfg, log)

	// Health check endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Blisse API is running",
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Products
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
		}

		// Categories and brands
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:slug/products", categoryHandler.Products)
		}
		brands := v1.Group("/brands")
		{
			brands.GET("", categoryHandler.Brands)
			brands.GET("/:brand/products", categoryHandler.BrandProducts)
		}

		// Enrichment (admin)
		enrichGroup := v1.Group("/enrich")
		{
			enrichGroup.POST("/batch", enrichHandler.Batch)
			enrichGroup.POST("/product", enrichHandler.Single)
			enrichGroup.POST("/images", enrichHandler.Images)
		}

		// Store sync (admin)
		syncGroup := v1.Group("/sync")
		{
			syncGroup.POST("/products", syncHandler.Products)
		}
	}

	return &Server{
		config: cfg,
		logger: log,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// Batch enrichment holds the response for the whole page.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for serverless deployments.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
