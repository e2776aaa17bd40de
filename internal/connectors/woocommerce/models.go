package woocommerce

// Product is a WooCommerce REST API product as returned by
// /wp-json/wc/v3/products. Prices arrive as strings.
type Product struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Virtual          bool       `json:"virtual"`
	SKU              string     `json:"sku"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	Price            string     `json:"price"`
	RegularPrice     string     `json:"regular_price"`
	SalePrice        string     `json:"sale_price"`
	StockQuantity    *int       `json:"stock_quantity"`
	Categories       []Category `json:"categories"`
	Tags             []Tag      `json:"tags"`
	Images           []Image    `json:"images"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Image struct {
	ID       int64  `json:"id,omitempty"`
	Src      string `json:"src"`
	Name     string `json:"name,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Position int    `json:"position"`
}
