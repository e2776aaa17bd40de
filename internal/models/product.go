package models

import (
	"time"
)

// Product is a local row mirroring one WooCommerce product. The WooCommerce
// id is used directly as the primary key so repeated syncs upsert in place.
type Product struct {
	ID               int64          `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name             string         `json:"name" gorm:"not null"`
	Description      string         `json:"description"`
	ShortDescription string         `json:"short_description"`
	SKU              string         `json:"sku"`
	Type             string         `json:"type" gorm:"default:simple"`
	Status           string         `json:"status"`
	Price            *float64       `json:"price" gorm:"type:decimal(10,2)"`
	RegularPrice     *float64       `json:"regular_price" gorm:"type:decimal(10,2)"`
	SalePrice        *float64       `json:"sale_price" gorm:"type:decimal(10,2)"`
	StockQuantity    *int           `json:"stock_quantity"`
	ImageURL         string         `json:"image_url"`
	Images           []ProductImage `json:"images" gorm:"serializer:json"`
	Categories       []string       `json:"categories" gorm:"serializer:json"`
	CategorySlugs    []string       `json:"category_slugs" gorm:"serializer:json"`
	Tags             []string       `json:"tags" gorm:"serializer:json"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ProductImage is one image descriptor. Position 0 is the listing thumbnail.
type ProductImage struct {
	Src      string `json:"src"`
	Name     string `json:"name"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

const (
	StatusPublish = "publish"
	TypeSimple    = "simple"
	TypeVariable  = "variable"
)

// IsOnSale reports whether the sale price is actually active: both prices
// present and the sale price strictly below the regular one. A sale price
// at or above the regular price is not a discount.
func (p *Product) IsOnSale() bool {
	return p.SalePrice != nil && p.RegularPrice != nil && *p.SalePrice < *p.RegularPrice
}

// DisplayPrice resolves the single canonical price shown to customers:
// sale price when active, else price, else regular price, else 0.
func (p *Product) DisplayPrice() float64 {
	if p.IsOnSale() {
		return *p.SalePrice
	}
	if p.Price != nil {
		return *p.Price
	}
	if p.RegularPrice != nil {
		return *p.RegularPrice
	}
	return 0
}

// Visible reports whether the product should appear in the storefront.
func (p *Product) Visible() bool {
	return p.Status == StatusPublish && (p.Type == TypeSimple || p.Type == TypeVariable)
}
