package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"blisse/internal/logger"
)

func TestSearch(t *testing.T) {
	var received searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(searchResponse{Data: []SearchResult{
			{URL: "https://example.com/a", Title: "A", Markdown: "sisu"},
			{URL: "https://example.com/b", Title: "B", Markdown: "rohkem sisu"},
		}})
	}))
	defer server.Close()

	client := NewClient("test-key", logger.New("error"))
	client.SetBaseURL(server.URL)

	results, err := client.Search(context.Background(), "fillerina seerum", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if received.Query != "fillerina seerum" || received.Limit != 3 {
		t.Errorf("request = %+v", received)
	}
	// Markdown is the default scrape format.
	if len(received.ScrapeOptions.Formats) != 1 || received.ScrapeOptions.Formats[0] != "markdown" {
		t.Errorf("formats = %v, want [markdown]", received.ScrapeOptions.Formats)
	}
}

func TestSearch_ExplicitFormats(t *testing.T) {
	var received searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	client := NewClient("k", logger.New("error"))
	client.SetBaseURL(server.URL)

	if _, err := client.Search(context.Background(), "q", 5, "markdown", "links"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(received.ScrapeOptions.Formats) != 2 || received.ScrapeOptions.Formats[1] != "links" {
		t.Errorf("formats = %v, want [markdown links]", received.ScrapeOptions.Formats)
	}
}

func TestSearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("k", logger.New("error"))
	client.SetBaseURL(server.URL)

	_, err := client.Search(context.Background(), "q", 1)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want status in message", err)
	}
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("Fillerina 12HA seerum", []string{"Nahahooldus"})
	want := "Fillerina 12HA seerum Nahahooldus ingredients INCI koostisosad composition"
	if got != want {
		t.Errorf("BuildQuery() = %q, want %q", got, want)
	}

	if got := BuildQuery("Toode", nil); got != "Toode ingredients INCI koostisosad composition" {
		t.Errorf("BuildQuery without categories = %q", got)
	}
}

func TestWebContent(t *testing.T) {
	long := strings.Repeat("a", 2000)
	results := []SearchResult{
		{URL: "https://pood.ee/1", Title: "Esimene", Markdown: long},
		{URL: "https://pood.ee/2", Description: "kirjeldusest"},
	}

	content := WebContent(results)

	blocks := strings.Split(content, "\n\n---\n\n")
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "Source: https://pood.ee/1\nTitle: Esimene\nContent: ") {
		t.Errorf("block header wrong: %q", blocks[0][:60])
	}
	if strings.Count(blocks[0], "a") != 1500 {
		t.Errorf("markdown not truncated to limit: %d a's", strings.Count(blocks[0], "a"))
	}
	// Empty markdown falls back to the result description, empty title to N/A.
	if !strings.Contains(blocks[1], "Title: N/A") || !strings.Contains(blocks[1], "Content: kirjeldusest") {
		t.Errorf("fallback block wrong: %q", blocks[1])
	}

	if WebContent(nil) != "" {
		t.Error("WebContent(nil) should be empty")
	}
}

func TestWebContent_TruncatesOnRuneBoundary(t *testing.T) {
	// "ä" is two bytes starting at offset 1499, so a naive byte cut at the
	// limit would slice through it.
	markdown := strings.Repeat("a", 1499) + "ä" + strings.Repeat("b", 100)
	results := []SearchResult{{URL: "https://pood.ee/1", Title: "Niisutav kreem", Markdown: markdown}}

	content := WebContent(results)

	if !utf8.ValidString(content) {
		t.Fatal("truncated content is not valid UTF-8")
	}
	body := content[strings.Index(content, "Content: ")+len("Content: "):]
	if len(body) != 1499 {
		t.Errorf("truncated body = %d bytes, want 1499 (backed off the split rune)", len(body))
	}
	if strings.Contains(body, "ä") || strings.Contains(body, "b") {
		t.Errorf("content past the limit survived truncation: %q", body[len(body)-10:])
	}
}
