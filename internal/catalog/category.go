package catalog

import (
	"strings"

	"blisse/internal/models"
)

// CategoryInfo is a storefront category with its canonical slug.
type CategoryInfo struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Categories are the storefront navigation entries.
var Categories = []CategoryInfo{
	{Slug: "nahahooldus", Title: "Nahahooldus", Description: "Premium seerumid, kreemid ja maskid teie näonahale"},
	{Slug: "kehahooldus", Title: "Kehahooldus", Description: "Luksuslikud kehakreemid ja hooldustooted"},
	{Slug: "juustehooldus", Title: "Juustehooldus", Description: "Kvaliteetsed šampoonid, palsamid ja juuksehooldustooted"},
	{Slug: "kehahooldusseadmed", Title: "Kehahooldusseadmed", Description: "Parimad seadmed kodukasutuseks"},
}

// excludedSlugs are service categories never shown in the product catalog.
var excludedSlugs = map[string]bool{
	"salongihooldused": true,
	"hoolduspaketid":   true,
}

// CategoryBySlug returns the navigation entry for a slug, or nil.
func CategoryBySlug(slug string) *CategoryInfo {
	for i := range Categories {
		if Categories[i].Slug == slug {
			return &Categories[i]
		}
	}
	return nil
}

var slugReplacer = strings.NewReplacer(
	"ä", "a", "ö", "o", "ü", "u", "õ", "o", "š", "s", "ž", "z",
)

// Slugify derives a canonical category identifier from a display name.
// Matching is done on these slugs by equality, never by substring, so
// "kehahooldus" no longer swallows "kehahooldusseadmed".
func Slugify(name string) string {
	slug := slugReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	var b strings.Builder
	lastDash := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// InCategory reports whether a product belongs to the given category slug.
func InCategory(product *models.Product, slug string) bool {
	for _, s := range product.CategorySlugs {
		if s == slug {
			return true
		}
	}
	return false
}

// Listable reports whether a product may appear in catalog listings at all:
// it must be visible and must not sit in a service-only category.
func Listable(product *models.Product) bool {
	if !product.Visible() {
		return false
	}
	for _, s := range product.CategorySlugs {
		if excludedSlugs[s] {
			return false
		}
	}
	return true
}
