package woocommerce

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blisse/internal/logger"
)

// nativePageSize is the page size used against the WooCommerce API,
// independent of the window the caller asks for.
const nativePageSize = 100

type Client struct {
	baseURL    string
	auth       string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(storeURL, consumerKey, consumerSecret string, logger *logger.Logger) *Client {
	baseURL := storeURL
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(consumerKey + ":" + consumerSecret))

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		auth:    "Basic " + credentials,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// FetchProductsPage returns the published products in [offset, offset+limit)
// together with the store's total published count. The native page size is
// bridged transparently, so any offset/limit window works.
func (c *Client) FetchProductsPage(ctx context.Context, offset, limit int) ([]Product, int64, error) {
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be positive, got %d", limit)
	}

	firstPage := offset/nativePageSize + 1
	lastIndex := offset + limit - 1
	lastPage := lastIndex/nativePageSize + 1

	var window []Product
	var total int64

	for page := firstPage; page <= lastPage; page++ {
		items, pageTotal, err := c.fetchPage(ctx, page, nativePageSize)
		if err != nil {
			return nil, 0, err
		}
		total = pageTotal

		pageStart := (page - 1) * nativePageSize
		for i, item := range items {
			idx := pageStart + i
			if idx >= offset && idx <= lastIndex {
				window = append(window, item)
			}
		}
		if len(items) < nativePageSize {
			break
		}
	}

	return window, total, nil
}

// FetchAllProducts pages through every published product. Virtual products
// are dropped; they are salon services, not shippable goods.
func (c *Client) FetchAllProducts(ctx context.Context) ([]Product, error) {
	var all []Product
	page := 1

	for {
		items, _, err := c.fetchPage(ctx, page, nativePageSize)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		physical := 0
		for _, item := range items {
			if item.Virtual {
				continue
			}
			all = append(all, item)
			physical++
		}
		c.logger.Debug("Page %d: fetched %d products, %d are non-virtual", page, len(items), physical)

		if len(items) < nativePageSize {
			break
		}
		page++
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page, perPage int) ([]Product, int64, error) {
	url := fmt.Sprintf("%s/wp-json/wc/v3/products?per_page=%d&page=%d&status=publish", c.baseURL, perPage, page)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("WooCommerce API error: %d - %s", resp.StatusCode, string(body))
	}

	var items []Product
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	var total int64
	if header := resp.Header.Get("X-WP-Total"); header != "" {
		total, _ = strconv.ParseInt(header, 10, 64)
	}

	return items, total, nil
}

// UpdateProductImages replaces a product's image gallery on the store
// itself. The local row is updated separately; the two stores can diverge
// and their failures are reported apart.
func (c *Client) UpdateProductImages(ctx context.Context, productID int64, images []Image) error {
	url := fmt.Sprintf("%s/wp-json/wc/v3/products/%d", c.baseURL, productID)

	payload := struct {
		Images []Image `json:"images"`
	}{Images: images}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("WooCommerce API error: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}
