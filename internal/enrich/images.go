package enrich

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"blisse/internal/connectors/woocommerce"
	"blisse/internal/models"
)

// imageURLPattern matches direct links to product-sized raster images
// inside scraped markdown.
var imageURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+\.(?:jpg|jpeg|png|webp|gif)`)

// lowQualityMarkers are URL fragments that flag icons and thumbnails
// rather than usable product shots.
var lowQualityMarkers = []string{"icon", "logo", "favicon", "thumb", "small"}

// EnrichImagesBatch runs the image pipeline over one page of products with
// the same cursor and isolation semantics as the text batch.
func (p *Pipeline) EnrichImagesBatch(ctx context.Context, offset, limit int) (*models.BatchReport, error) {
	products, total, err := p.store.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	limiter := rate.NewLimiter(rate.Every(p.itemDelay), 1)

	results := make([]models.EnrichmentResult, 0, len(products))
	for i := range products {
		product := &products[i]

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		p.logger.Info("Processing product: %s (ID: %d)", product.Name, product.ID)
		result := p.enrichImages(ctx, product)
		results = append(results, result)
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

// EnrichImagesOne runs the image pipeline for a single product id.
func (p *Pipeline) EnrichImagesOne(ctx context.Context, productID int64) (*models.EnrichmentResult, error) {
	product, err := p.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	result := p.enrichImages(ctx, product)
	return &result, nil
}

func (p *Pipeline) enrichImages(ctx context.Context, product *models.Product) (result models.EnrichmentResult) {
	result = models.EnrichmentResult{ID: product.ID, Name: product.Name}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic while enriching images for %s: %v", product.Name, r)
			result.Status = models.StatusError
			result.Error = fmt.Sprint(r)
		}
	}()

	p.logger.Debug("Searching images for: %s", product.Name)
	query := fmt.Sprintf("%s product image high quality", product.Name)

	searchResults, err := p.search.Search(ctx, query, 5, "markdown", "links")
	if err != nil {
		p.logger.Error("Image search failed for %s: %v", product.Name, err)
		result.Status = models.StatusError
		result.Reason = "image search failed"
		return result
	}
	if len(searchResults) == 0 {
		result.Status = models.StatusNoResults
		return result
	}

	var imageURLs []string
	seen := make(map[string]bool)
	for _, sr := range searchResults {
		for _, match := range imageURLPattern.FindAllString(sr.Markdown, -1) {
			if seen[match] || isLowQuality(match) {
				continue
			}
			seen[match] = true
			imageURLs = append(imageURLs, match)
		}
	}
	p.logger.Debug("Extracted %d potential image URLs", len(imageURLs))

	if len(imageURLs) == 0 {
		result.Status = models.StatusNoImages
		return result
	}

	metadata, err := p.extract.GenerateImageMetadata(ctx, product.Name, imageURLs)
	if err != nil {
		p.logger.Error("AI metadata generation failed for %s: %v", product.Name, err)
		result.Status = models.StatusError
		result.Reason = "AI metadata generation failed"
		return result
	}
	if len(metadata) == 0 {
		result.Status = models.StatusNoMetadata
		return result
	}
	result.ImagesFound = len(metadata)

	wcImages := make([]woocommerce.Image, len(metadata))
	localImages := make([]models.ProductImage, len(metadata))
	for i, meta := range metadata {
		wcImages[i] = woocommerce.Image{Src: meta.Src, Name: meta.Name, Alt: meta.Alt, Position: i}
		localImages[i] = models.ProductImage{Src: meta.Src, Name: meta.Name, Alt: meta.Alt, Position: i}
	}

	// The store itself is updated first; its failure is reported apart from
	// a local persistence failure because the two can diverge.
	p.logger.Debug("Updating store product %d with %d images", product.ID, len(wcImages))
	if err := p.wc.UpdateProductImages(ctx, product.ID, wcImages); err != nil {
		p.logger.Error("WooCommerce update failed for %s: %v", product.Name, err)
		result.Status = models.StatusWCUpdateFailed
		result.Error = err.Error()
		return result
	}

	if err := p.store.UpdateImages(ctx, product.ID, localImages); err != nil {
		p.logger.Error("Local image update failed for %s: %v", product.Name, err)
		result.Status = models.StatusUpdateError
		return result
	}

	result.Status = models.StatusEnriched
	return result
}

func isLowQuality(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range lowQualityMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// WaitCooldown exposes the rate-limit cooldown for callers that drive
// items one by one (the event worker).
func (p *Pipeline) WaitCooldown() {
	time.Sleep(p.cooldown)
}

// SetCooldown overrides the post-429 pause, used by tests.
func (p *Pipeline) SetCooldown(d time.Duration) {
	p.cooldown = d
}
