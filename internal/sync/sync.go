package sync

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blisse/internal/catalog"
	"blisse/internal/connectors/woocommerce"
	"blisse/internal/logger"
	"blisse/internal/models"
)

// Fetcher is the WooCommerce read side the sync needs.
type Fetcher interface {
	FetchAllProducts(ctx context.Context) ([]woocommerce.Product, error)
}

// Publisher emits a product event after each successful upsert. May be nil
// when eventing is not configured.
type Publisher interface {
	PublishProductSynced(ctx context.Context, product *models.Product) error
}

// Service imports the WooCommerce catalog into the local products table.
type Service struct {
	db        *gorm.DB
	fetcher   Fetcher
	publisher Publisher
	logger    *logger.Logger
}

// Report summarizes one full sync run.
type Report struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	TotalImported int     `json:"totalImported"`
	Failed        []int64 `json:"failed,omitempty"`
}

func New(db *gorm.DB, fetcher Fetcher, publisher Publisher, log *logger.Logger) *Service {
	return &Service{db: db, fetcher: fetcher, publisher: publisher, logger: log}
}

// Run fetches every published non-virtual product and upserts it locally,
// keyed on the WooCommerce id. A row failure is logged and counted but does
// not stop the run; only the listing fetch itself is fatal.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	s.logger.Info("Starting WooCommerce product import...")

	items, err := s.fetcher.FetchAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	s.logger.Info("Fetched %d published, non-virtual products from WooCommerce", len(items))

	report := &Report{Success: true}
	for i := range items {
		product := Transform(&items[i])

		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(product).Error
		if err != nil {
			s.logger.Error("Error syncing product %d: %v", product.ID, err)
			report.Failed = append(report.Failed, product.ID)
			continue
		}

		report.TotalImported++
		s.logger.Debug("Successfully synced product: %s (ID: %d)", product.Name, product.ID)

		if s.publisher != nil {
			if err := s.publisher.PublishProductSynced(ctx, product); err != nil {
				s.logger.Error("Failed to publish event for product %d: %v", product.ID, err)
			}
		}
	}

	report.Message = fmt.Sprintf("Successfully imported %d products", report.TotalImported)
	return report, nil
}

// Transform maps a WooCommerce API product onto a local row. Category slugs
// are resolved here, once, so every later match is a slug equality test.
func Transform(item *woocommerce.Product) *models.Product {
	product := &models.Product{
		ID:               item.ID,
		Name:             item.Name,
		Description:      item.Description,
		ShortDescription: item.ShortDescription,
		SKU:              item.SKU,
		Type:             item.Type,
		Status:           item.Status,
		Price:            parsePrice(item.Price),
		RegularPrice:     parsePrice(item.RegularPrice),
		SalePrice:        parsePrice(item.SalePrice),
		StockQuantity:    item.StockQuantity,
	}
	if product.Type == "" {
		product.Type = models.TypeSimple
	}

	for _, cat := range item.Categories {
		product.Categories = append(product.Categories, cat.Name)
		slug := cat.Slug
		if slug == "" {
			slug = catalog.Slugify(cat.Name)
		}
		product.CategorySlugs = append(product.CategorySlugs, slug)
	}
	for _, tag := range item.Tags {
		product.Tags = append(product.Tags, tag.Name)
	}

	for i, img := range item.Images {
		product.Images = append(product.Images, models.ProductImage{
			Src:      img.Src,
			Name:     img.Name,
			Alt:      img.Alt,
			Position: i,
		})
	}
	if len(product.Images) > 0 {
		product.ImageURL = product.Images[0].Src
	}

	return product
}

func parsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}
