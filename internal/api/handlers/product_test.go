package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blisse/internal/logger"
	"blisse/internal/models"
)

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

func seed(t *testing.T, db *gorm.DB, products ...models.Product) {
	t.Helper()
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			t.Fatalf("failed to seed product %d: %v", products[i].ID, err)
		}
	}
}

func fp(v float64) *float64 { return &v }

func productRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(db, logger.New("error"))
	router := gin.New()
	router.GET("/products", handler.List)
	router.GET("/products/:id", handler.Get)
	return router
}

type listResponse struct {
	Data []struct {
		ID            int64    `json:"id"`
		Name          string   `json:"name"`
		Price         float64  `json:"price"`
		OriginalPrice *float64 `json:"original_price"`
		OnSale        bool     `json:"on_sale"`
	} `json:"data"`
	Pagination struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

func doList(t *testing.T, router *gin.Engine, url string) listResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", url, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d: %s", url, w.Code, w.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	return resp
}

func TestProductList_FiltersAndSlugEquality(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		models.Product{ID: 1, Name: "Kehakreem", Status: "publish", Type: "simple",
			CategorySlugs: []string{"kehahooldus"}, Price: fp(25)},
		models.Product{ID: 2, Name: "LPG masseerija", Status: "publish", Type: "simple",
			CategorySlugs: []string{"kehahooldusseadmed"}, Price: fp(450)},
		models.Product{ID: 3, Name: "Salongiprotseduur", Status: "publish", Type: "simple",
			CategorySlugs: []string{"salongihooldused"}, Price: fp(80)},
		models.Product{ID: 4, Name: "Mustand", Status: "draft", Type: "simple",
			CategorySlugs: []string{"kehahooldus"}, Price: fp(10)},
	)
	router := productRouter(db)

	// Unfiltered: the service category and the draft stay out.
	resp := doList(t, router, "/products")
	if resp.Pagination.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Pagination.Total)
	}

	// Slug equality: the device must not appear under kehahooldus.
	resp = doList(t, router, "/products?category=kehahooldus")
	if len(resp.Data) != 1 || resp.Data[0].ID != 1 {
		t.Errorf("kehahooldus listing = %+v", resp.Data)
	}

	resp = doList(t, router, "/products?category=kehahooldusseadmed")
	if len(resp.Data) != 1 || resp.Data[0].ID != 2 {
		t.Errorf("kehahooldusseadmed listing = %+v", resp.Data)
	}
}

func TestProductList_SalePricing(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		models.Product{ID: 1, Name: "Soodustoode", Status: "publish", Type: "simple",
			Price: fp(50), RegularPrice: fp(50), SalePrice: fp(35)},
		models.Product{ID: 2, Name: "Tavatoode", Status: "publish", Type: "simple",
			Price: fp(50), RegularPrice: fp(50), SalePrice: fp(50)},
	)
	router := productRouter(db)

	resp := doList(t, router, "/products")
	if len(resp.Data) != 2 {
		t.Fatalf("data = %+v", resp.Data)
	}
	for _, card := range resp.Data {
		switch card.ID {
		case 1:
			if !card.OnSale || card.Price != 35 || card.OriginalPrice == nil || *card.OriginalPrice != 50 {
				t.Errorf("sale card = %+v", card)
			}
		case 2:
			// Sale price equal to regular is not a discount.
			if card.OnSale || card.Price != 50 || card.OriginalPrice != nil {
				t.Errorf("non-sale card = %+v", card)
			}
		}
	}
}

func TestProductList_Search(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		models.Product{ID: 1, Name: "Fillerina seerum", SKU: "FIL-1", Status: "publish", Type: "simple"},
		models.Product{ID: 2, Name: "Crescina ampullid", SKU: "CRE-1", Status: "publish", Type: "simple"},
	)
	router := productRouter(db)

	resp := doList(t, router, "/products?search=Fillerina")
	if len(resp.Data) != 1 || resp.Data[0].ID != 1 {
		t.Errorf("search by name = %+v", resp.Data)
	}

	resp = doList(t, router, "/products?search=CRE-1")
	if len(resp.Data) != 1 || resp.Data[0].ID != 2 {
		t.Errorf("search by sku = %+v", resp.Data)
	}
}

func TestProductGet(t *testing.T) {
	db := testDB(t)
	seed(t, db, models.Product{
		ID: 7, Name: "Fillerina 12HA seerum", Status: "publish", Type: "simple",
		Description:  "<p>Kogus: 30 ml.</p><p>Kasutamine: kanna hommikul</p>",
		RegularPrice: fp(99), SalePrice: fp(89),
	})
	router := productRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/7", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /products/7 = %d", w.Code)
	}

	var resp struct {
		Brand        string  `json:"brand"`
		DisplayPrice float64 `json:"display_price"`
		OnSale       bool    `json:"on_sale"`
		Sections     struct {
			Volume string   `json:"volume"`
			Usage  []string `json:"usage"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Brand != "fillerina" {
		t.Errorf("brand = %q", resp.Brand)
	}
	if !resp.OnSale || resp.DisplayPrice != 89 {
		t.Errorf("pricing = %v %v", resp.OnSale, resp.DisplayPrice)
	}
	if resp.Sections.Volume != "30 ml" || len(resp.Sections.Usage) != 1 {
		t.Errorf("sections = %+v", resp.Sections)
	}
}

func TestProductGet_Errors(t *testing.T) {
	router := productRouter(testDB(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/99", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing product = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}
