package sync

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blisse/internal/connectors/woocommerce"
	"blisse/internal/logger"
	"blisse/internal/models"
)

type fakeFetcher struct {
	products []woocommerce.Product
	err      error
}

func (f *fakeFetcher) FetchAllProducts(ctx context.Context) ([]woocommerce.Product, error) {
	return f.products, f.err
}

type fakePublisher struct {
	published []int64
	err       error
}

func (f *fakePublisher) PublishProductSynced(ctx context.Context, product *models.Product) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, product.ID)
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func wcProduct(id int64, name string) woocommerce.Product {
	return woocommerce.Product{
		ID:     id,
		Name:   name,
		Type:   "simple",
		Status: "publish",
		Price:  "29.90",
	}
}

func TestRun_ImportsAndUpserts(t *testing.T) {
	db := testDB(t)
	fetcher := &fakeFetcher{products: []woocommerce.Product{
		wcProduct(1, "Seerum"),
		wcProduct(2, "Kreem"),
	}}
	publisher := &fakePublisher{}
	service := New(db, fetcher, publisher, logger.New("error"))

	report, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TotalImported != 2 {
		t.Errorf("TotalImported = %d, want 2", report.TotalImported)
	}
	if len(publisher.published) != 2 {
		t.Errorf("published = %v, want 2 events", publisher.published)
	}

	// A second run with a renamed product must update in place, not duplicate.
	fetcher.products[0].Name = "Seerum uuendatud"
	if _, err := service.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	var count int64
	db.Model(&models.Product{}).Count(&count)
	if count != 2 {
		t.Errorf("row count = %d, want 2 after re-sync", count)
	}
	var stored models.Product
	db.First(&stored, 1)
	if stored.Name != "Seerum uuendatud" {
		t.Errorf("stored name = %q, want updated name", stored.Name)
	}
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	service := New(testDB(t), &fakeFetcher{err: errors.New("store unreachable")}, nil, logger.New("error"))
	if _, err := service.Run(context.Background()); err == nil {
		t.Fatal("Run returned nil error on fetch failure")
	}
}

func TestRun_PublisherFailureDoesNotFailRow(t *testing.T) {
	db := testDB(t)
	fetcher := &fakeFetcher{products: []woocommerce.Product{wcProduct(1, "Seerum")}}
	publisher := &fakePublisher{err: errors.New("broker down")}
	service := New(db, fetcher, publisher, logger.New("error"))

	report, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TotalImported != 1 {
		t.Errorf("TotalImported = %d, want 1", report.TotalImported)
	}
}

func TestTransform(t *testing.T) {
	item := woocommerce.Product{
		ID:               10,
		Name:             "Fillerina seerum",
		Description:      "Pikk kirjeldus",
		ShortDescription: "Lühike",
		SKU:              "FIL-10",
		Type:             "simple",
		Status:           "publish",
		Price:            "89.00",
		RegularPrice:     "99.00",
		SalePrice:        "89.00",
		Categories: []woocommerce.Category{
			{Name: "Nahahooldus", Slug: "nahahooldus"},
			{Name: "Kehahooldusseadmed"}, // no slug from the API
		},
		Tags: []woocommerce.Tag{{Name: "seerum"}},
		Images: []woocommerce.Image{
			{Src: "https://cdn.example.com/a.jpg", Name: "esikülg"},
			{Src: "https://cdn.example.com/b.jpg"},
		},
	}

	p := Transform(&item)

	if p.ID != 10 || p.Name != "Fillerina seerum" || p.SKU != "FIL-10" {
		t.Errorf("identity fields wrong: %+v", p)
	}
	if p.Price == nil || *p.Price != 89.00 {
		t.Errorf("Price = %v, want 89.00", p.Price)
	}
	if p.RegularPrice == nil || *p.RegularPrice != 99.00 {
		t.Errorf("RegularPrice = %v", p.RegularPrice)
	}
	if got := p.CategorySlugs; len(got) != 2 || got[0] != "nahahooldus" || got[1] != "kehahooldusseadmed" {
		t.Errorf("CategorySlugs = %v", got)
	}
	if p.ImageURL != "https://cdn.example.com/a.jpg" {
		t.Errorf("ImageURL = %q", p.ImageURL)
	}
	if len(p.Images) != 2 || p.Images[1].Position != 1 {
		t.Errorf("Images = %+v", p.Images)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "seerum" {
		t.Errorf("Tags = %v", p.Tags)
	}
}

func TestTransform_Defaults(t *testing.T) {
	item := woocommerce.Product{ID: 1, Name: "Toode", Status: "publish"}
	p := Transform(&item)

	if p.Type != models.TypeSimple {
		t.Errorf("Type = %q, want %q", p.Type, models.TypeSimple)
	}
	if p.Price != nil {
		t.Errorf("Price = %v, want nil for empty string", p.Price)
	}
	if p.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty", p.ImageURL)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"29.90", fp(29.90)},
		{"0", fp(0)},
		{"", nil},
		{"not-a-price", nil},
	}
	for _, tt := range tests {
		got := parsePrice(tt.raw)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parsePrice(%q) = %v, want nil", tt.raw, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parsePrice(%q) = %v, want %v", tt.raw, got, *tt.want)
		}
	}
}

func fp(v float64) *float64 { return &v }
