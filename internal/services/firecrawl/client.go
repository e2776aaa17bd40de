package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"blisse/internal/logger"
)

const defaultBaseURL = "https://api.firecrawl.dev/v1/search"

// contentLimit bounds how much of each result document is handed to the AI
// adapter, keeping the combined blob inside the model context.
const contentLimit = 1500

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// SearchResult is one ranked document from the search provider.
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Markdown    string `json:"markdown"`
}

type searchRequest struct {
	Query         string        `json:"query"`
	Limit         int           `json:"limit"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

type searchResponse struct {
	Data []SearchResult `json:"data"`
}

func NewClient(apiKey string, logger *logger.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SetBaseURL overrides the provider endpoint, used by tests.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Search runs a web search and returns up to limit scraped documents.
func (c *Client) Search(ctx context.Context, query string, limit int, formats ...string) ([]SearchResult, error) {
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	request := searchRequest{
		Query:         query,
		Limit:         limit,
		ScrapeOptions: scrapeOptions{Formats: formats},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Firecrawl API error: %d - %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return searchResp.Data, nil
}

// BuildQuery concatenates the product name, its category names and fixed
// ingredient keyword hints into one search query.
func BuildQuery(productName string, categories []string) string {
	parts := []string{productName}
	parts = append(parts, categories...)
	parts = append(parts, "ingredients INCI koostisosad composition")
	return strings.Join(parts, " ")
}

// WebContent flattens results into one bounded context blob: each document
// contributes its source, title and a truncated markdown body.
func WebContent(results []SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		content := r.Markdown
		if len(content) > contentLimit {
			cut := contentLimit
			// Back off to a rune boundary so the cut never splits a
			// multi-byte character.
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		if content == "" {
			content = r.Description
		}
		title := r.Title
		if title == "" {
			title = "N/A"
		}
		blocks = append(blocks, fmt.Sprintf("Source: %s\nTitle: %s\nContent: %s", r.URL, title, content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
