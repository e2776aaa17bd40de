package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"blisse/internal/connectors/woocommerce"
	"blisse/internal/logger"
	"blisse/internal/models"
	"blisse/internal/services/ai"
	"blisse/internal/services/firecrawl"
)

// searchResultLimit is how many documents one text-enrichment search asks for.
const searchResultLimit = 3

// ProductStore is the slice of the local row store the pipelines need.
type ProductStore interface {
	ListPage(ctx context.Context, offset, limit int) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	UpdateDescription(ctx context.Context, id int64, description string) error
	UpdateImages(ctx context.Context, id int64, images []models.ProductImage) error
}

// Searcher issues web searches and returns scraped documents.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, formats ...string) ([]firecrawl.SearchResult, error)
}

// Extractor turns web content into structured product data.
type Extractor interface {
	ExtractProductInfo(ctx context.Context, productName, description, webContent string, requireIngredients bool) (*ai.ProductInfo, error)
	GenerateImageMetadata(ctx context.Context, productName string, imageURLs []string) ([]ai.ImageMeta, error)
}

// StoreUpdater is the WooCommerce write-back used by the image pipeline.
type StoreUpdater interface {
	UpdateProductImages(ctx context.Context, productID int64, images []woocommerce.Image) error
}

// Pipeline runs the enrichment flows: sequential, one product at a time,
// with a fixed pause between items to respect provider rate limits.
type Pipeline struct {
	store   ProductStore
	search  Searcher
	extract Extractor
	wc      StoreUpdater
	logger  *logger.Logger

	// itemDelay spaces items; cooldown is the extra pause after a 429.
	itemDelay time.Duration
	cooldown  time.Duration
}

func NewPipeline(store ProductStore, search Searcher, extract Extractor, wc StoreUpdater, log *logger.Logger, itemDelay time.Duration) *Pipeline {
	return &Pipeline{
		store:     store,
		search:    search,
		extract:   extract,
		wc:        wc,
		logger:    log,
		itemDelay: itemDelay,
		cooldown:  5 * time.Second,
	}
}

// EnrichAll processes one page of products. Failures are isolated per item;
// only a listing fetch failure or exhausted AI credits abort the batch.
func (p *Pipeline) EnrichAll(ctx context.Context, offset, limit int) (*models.BatchReport, error) {
	products, total, err := p.store.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	p.logger.Info("Processing %d products starting from offset %d", len(products), offset)

	// rate.Every(0) is an unlimited limiter, which tests rely on.
	limiter := rate.NewLimiter(rate.Every(p.itemDelay), 1)

	results := make([]models.EnrichmentResult, 0, len(products))
	for i := range products {
		product := &products[i]

		if !NeedsEnrichment(product.Description) {
			p.logger.Debug("Skipping %s - already has detailed info", product.Name)
			results = append(results, models.EnrichmentResult{
				ID: product.ID, Name: product.Name,
				Status: models.StatusSkipped, Reason: "already enriched",
			})
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := p.enrichItem(ctx, product)
		if err != nil {
			// Only exhausted AI credits halt the batch.
			return nil, err
		}
		results = append(results, result)

		if result.Status == models.StatusRateLimited {
			time.Sleep(p.cooldown)
		}
	}

	nextOffset := offset + limit
	return &models.BatchReport{
		Success:       true,
		RunID:         uuid.New().String(),
		Processed:     len(results),
		TotalProducts: total,
		NextOffset:    nextOffset,
		HasMore:       int64(nextOffset) < total,
		Results:       results,
	}, nil
}

// enrichItem runs search, extraction, merge and persistence for one product.
// Panics are converted into an "error" result so one broken item cannot take
// the rest of the page down.
func (p *Pipeline) enrichItem(ctx context.Context, product *models.Product) (result models.EnrichmentResult, fatal error) {
	result = models.EnrichmentResult{ID: product.ID, Name: product.Name}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic while enriching %s: %v", product.Name, r)
			result.Status = models.StatusError
			result.Error = fmt.Sprint(r)
		}
	}()

	query := firecrawl.BuildQuery(product.Name, product.Categories)
	p.logger.Debug("Search query: %s", query)

	searchResults, err := p.search.Search(ctx, query, searchResultLimit)
	if err != nil {
		p.logger.Error("Search failed for %s: %v", product.Name, err)
		result.Status = models.StatusError
		result.Reason = "search failed"
		return result, nil
	}
	if len(searchResults) == 0 {
		p.logger.Debug("No search results for %s", product.Name)
		result.Status = models.StatusNoResults
		return result, nil
	}

	webContent := firecrawl.WebContent(searchResults)

	info, err := p.extract.ExtractProductInfo(ctx, product.Name, product.Description, webContent, false)
	if err != nil {
		if errors.Is(err, ai.ErrPaymentRequired) {
			return result, err
		}
		if errors.Is(err, ai.ErrRateLimited) {
			result.Status = models.StatusRateLimited
			return result, nil
		}
		p.logger.Error("AI extraction failed for %s: %v", product.Name, err)
		result.Status = models.StatusAIError
		return result, nil
	}
	if info == nil {
		result.Status = models.StatusNoAIData
		return result, nil
	}

	merged, changed := MergeDescription(product.Description, info)
	if !changed {
		result.Status = models.StatusNoNewData
		return result, nil
	}

	if err := p.store.UpdateDescription(ctx, product.ID, merged); err != nil {
		p.logger.Error("Update failed for %s: %v", product.Name, err)
		result.Status = models.StatusUpdateError
		return result, nil
	}

	p.logger.Info("Updated %s", product.Name)
	result.Status = models.StatusEnriched
	result.ShortDescription = info.ShortDescription
	result.IngredientsCount = len(info.Ingredients)
	result.HasInci = info.InciList != ""
	return result, nil
}

// SingleReport is the response of a single-product text enrichment.
type SingleReport struct {
	Success            bool            `json:"success"`
	ProductID          int64           `json:"productId"`
	ProductName        string          `json:"productName"`
	EnrichedData       *ai.ProductInfo `json:"enrichedData"`
	SearchResultsCount int             `json:"searchResultsCount"`
	Message            string          `json:"message"`
}

// ErrProductNotFound is returned when the requested product has no local row.
var ErrProductNotFound = errors.New("enrich: product not found")

// EnrichOne enriches a single product on demand. Unlike the batch loop, AI
// rate limiting and quota errors propagate so the caller can answer with the
// provider's own status.
func (p *Pipeline) EnrichOne(ctx context.Context, productID int64, searchQuery string) (*SingleReport, error) {
	product, err := p.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	p.logger.Info("Processing product: %s", product.Name)

	query := searchQuery
	if query == "" {
		query = fmt.Sprintf("%s ingredients INCI koostisosad", product.Name)
	}

	var searchResults []firecrawl.SearchResult
	if results, err := p.search.Search(ctx, query, 5); err != nil {
		p.logger.Error("Search failed: %v", err)
	} else {
		searchResults = results
	}

	report := &SingleReport{
		ProductID:          product.ID,
		ProductName:        product.Name,
		SearchResultsCount: len(searchResults),
	}

	webContent := firecrawl.WebContent(searchResults)
	if webContent == "" {
		report.Message = "No web content found"
		return report, nil
	}

	info, err := p.extract.ExtractProductInfo(ctx, product.Name, product.Description, webContent, true)
	if err != nil {
		return nil, err
	}
	report.EnrichedData = info

	if info != nil {
		merged, changed := MergeDescription(product.Description, info)
		if changed {
			if err := p.store.UpdateDescription(ctx, product.ID, merged); err != nil {
				return nil, fmt.Errorf("failed to update product: %w", err)
			}
			p.logger.Info("Product updated successfully")
		}
		report.Success = true
		report.Message = "Product enriched successfully"
	} else {
		report.Success = true
		report.Message = "No new data found"
	}

	return report, nil
}
