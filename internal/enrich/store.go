package enrich

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"blisse/internal/models"
)

// GormStore adapts the gorm products table to the pipeline's ProductStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListPage(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *GormStore) UpdateDescription(ctx context.Context, id int64, description string) error {
	return s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"description": description,
			"updated_at":  time.Now(),
		}).Error
}

func (s *GormStore) UpdateImages(ctx context.Context, id int64, images []models.ProductImage) error {
	imageURL := ""
	if len(images) > 0 {
		imageURL = images[0].Src
	}
	// A map-based Updates bypasses the json serializer on Images, so the
	// driver would reject the slice. Go through the struct with an explicit
	// column selection instead.
	return s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Select("images", "image_url", "updated_at").
		Updates(&models.Product{
			Images:    images,
			ImageURL:  imageURL,
			UpdatedAt: time.Now(),
		}).Error
}
