package main

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"blisse/internal/config"
	"blisse/internal/connectors/woocommerce"
	"blisse/internal/database"
	"blisse/internal/enrich"
	"blisse/internal/events"
	"blisse/internal/logger"
	"blisse/internal/services/ai"
	"blisse/internal/services/firecrawl"
	"blisse/internal/sync"
	"blisse/internal/worker"
	"blisse/internal/worker/processors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.New(cfg.LogLevel)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	wcClient := woocommerce.NewClient(cfg.WooStoreURL, cfg.WooConsumerKey, cfg.WooConsumerSecret, logger)
	searchClient := firecrawl.NewClient(cfg.FirecrawlAPIKey, logger)
	extractor := ai.NewExtractor(cfg.AIGatewayKey, cfg.AIGatewayURL, cfg.AIModel, logger)
	store := enrich.NewGormStore(db.DB)
	pipeline := enrich.NewPipeline(store, searchClient, extractor, wcClient, logger,
		time.Duration(cfg.EnrichItemDelay)*time.Second)

	publisher := events.NewPublisher(cfg.KafkaBrokers, logger)
	defer publisher.Close()
	syncService := sync.New(db.DB, wcClient, publisher, logger)

	// Nightly full-catalog import, store time.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 3 * * *", func() {
		if err := cfg.ValidateWooCommerce(); err != nil {
			logger.Error("Skipping scheduled sync: %v", err)
			return
		}
		report, err := syncService.Run(context.Background())
		if err != nil {
			logger.Error("Scheduled sync failed: %v", err)
			return
		}
		logger.Info("Scheduled sync: %s", report.Message)
	}); err != nil {
		logger.Fatal("Failed to register sync schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	processor := processors.NewEventProcessor(pipeline, logger)
	w := worker.New(cfg, logger, processor)
	defer w.Stop()

	w.Start()
}
