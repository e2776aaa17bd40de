package catalog

import (
	"strings"

	"blisse/internal/models"
)

// knownBrands are the brand markers recognized in product names and
// category lists, in match priority order.
var knownBrands = []string{"collagenina", "fillerina", "crescina", "labo", "lpg"}

// DetectBrand scans a product's categories and name for a known brand
// marker. Returns "default" when nothing matches.
func DetectBrand(product *models.Product) string {
	parts := append([]string{}, product.Categories...)
	parts = append(parts, product.Name)
	searchText := strings.ToLower(strings.Join(parts, " "))

	for _, brand := range knownBrands {
		if strings.Contains(searchText, brand) {
			return brand
		}
	}
	return "default"
}

// Brands lists the recognized brand identifiers.
func Brands() []string {
	return append([]string(nil), knownBrands...)
}
