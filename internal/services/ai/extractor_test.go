package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blisse/internal/logger"
)

func testExtractor(t *testing.T, handler http.HandlerFunc) *Extractor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewExtractor("test-key", server.URL, "test-model", logger.New("error"))
}

func toolCallResponse(arguments string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"tool_calls":[{"function":{"name":"extract_product_info","arguments":%q}}]}}]}`, arguments)
}

func TestExtractProductInfo(t *testing.T) {
	var received chatRequest
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(toolCallResponse(`{"shortDescription":"Niisutav seerum","inciList":"Aqua, Glycerin","ingredients":[{"name":"Hüaluroonhape","percentage":"2%"}]}`)))
	})

	info, err := e.ExtractProductInfo(context.Background(), "Seerum", "", "veebisisu", false)
	if err != nil {
		t.Fatalf("ExtractProductInfo: %v", err)
	}
	if info == nil {
		t.Fatal("info = nil")
	}
	if info.ShortDescription != "Niisutav seerum" || info.InciList != "Aqua, Glycerin" {
		t.Errorf("info = %+v", info)
	}
	if len(info.Ingredients) != 1 || info.Ingredients[0].Name != "Hüaluroonhape" {
		t.Errorf("Ingredients = %+v", info.Ingredients)
	}

	if received.Model != "test-model" {
		t.Errorf("model = %q", received.Model)
	}
	if received.ToolChoice == nil || received.ToolChoice.Function.Name != "extract_product_info" {
		t.Errorf("tool choice = %+v", received.ToolChoice)
	}
	// An empty existing description is sent as "Puudub".
	if !strings.Contains(received.Messages[1].Content, "Puudub") {
		t.Error("empty description placeholder missing from prompt")
	}
}

func TestExtractProductInfo_RequireIngredients(t *testing.T) {
	var required []interface{}
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Tools []struct {
				Function struct {
					Parameters map[string]interface{} `json:"parameters"`
				} `json:"function"`
			} `json:"tools"`
		}
		json.NewDecoder(r.Body).Decode(&raw)
		required, _ = raw.Tools[0].Function.Parameters["required"].([]interface{})
		w.Write([]byte(toolCallResponse(`{"shortDescription":"x"}`)))
	})

	if _, err := e.ExtractProductInfo(context.Background(), "Toode", "kirjeldus", "sisu", true); err != nil {
		t.Fatalf("ExtractProductInfo: %v", err)
	}
	if len(required) != 2 || required[1] != "ingredients" {
		t.Errorf("required schema fields = %v, want [shortDescription ingredients]", required)
	}
}

func TestExtractProductInfo_NoToolCall(t *testing.T) {
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"vabas vormis vastus"}}]}`))
	})

	info, err := e.ExtractProductInfo(context.Background(), "Toode", "", "sisu", false)
	if err != nil {
		t.Fatalf("ExtractProductInfo: %v", err)
	}
	if info != nil {
		t.Errorf("info = %+v, want nil for missing tool call", info)
	}
}

func TestExtractProductInfo_MalformedArguments(t *testing.T) {
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(toolCallResponse(`{"shortDescription":`)))
	})

	info, err := e.ExtractProductInfo(context.Background(), "Toode", "", "sisu", false)
	if err != nil {
		t.Fatalf("ExtractProductInfo: %v", err)
	}
	if info != nil {
		t.Errorf("info = %+v, want nil for malformed payload", info)
	}
}

func TestExtractProductInfo_StatusSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrPaymentRequired},
	}
	for _, tt := range tests {
		e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := e.ExtractProductInfo(context.Background(), "Toode", "", "sisu", false)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestExtractProductInfo_OtherStatusIsPlainError(t *testing.T) {
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := e.ExtractProductInfo(context.Background(), "Toode", "", "sisu", false)
	if err == nil || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("err = %v, want plain gateway error", err)
	}
}

func TestGenerateImageMetadata(t *testing.T) {
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		content := "Siin on metaandmed:\n```json\n" +
			`{"images":[{"src":"https://cdn.example.com/a.jpg","name":"Seerumi pudel","alt":"Fillerina seerumi professionaalne tootepilt"}]}` +
			"\n```"
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": content}},
			},
		})
	})

	metas, err := e.GenerateImageMetadata(context.Background(), "Fillerina seerum", []string{"https://cdn.example.com/a.jpg"})
	if err != nil {
		t.Fatalf("GenerateImageMetadata: %v", err)
	}
	if len(metas) != 1 || metas[0].Name != "Seerumi pudel" {
		t.Errorf("metas = %+v", metas)
	}
}

func TestGenerateImageMetadata_FallbackOnUnparseableContent(t *testing.T) {
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"siin pole JSON-i"}}]}`))
	})

	urls := []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}
	metas, err := e.GenerateImageMetadata(context.Background(), "Kreem", urls)
	if err != nil {
		t.Fatalf("GenerateImageMetadata: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("metas = %d, want fallback entry per URL", len(metas))
	}
	if metas[0].Src != urls[0] || metas[0].Name != "Kreem - pilt 1" {
		t.Errorf("fallback meta = %+v", metas[0])
	}
	if !strings.Contains(metas[1].Alt, "Kreem") {
		t.Errorf("fallback alt = %q", metas[1].Alt)
	}
}

func TestGenerateImageMetadata_CapsAtThreeURLs(t *testing.T) {
	var prompt string
	e := testExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Messages[1].Content
		w.Write([]byte(`{"choices":[{"message":{"content":"x"}}]}`))
	})

	urls := []string{
		"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg",
		"https://cdn.example.com/3.jpg", "https://cdn.example.com/4.jpg",
	}
	metas, err := e.GenerateImageMetadata(context.Background(), "Toode", urls)
	if err != nil {
		t.Fatalf("GenerateImageMetadata: %v", err)
	}
	if len(metas) != 3 {
		t.Errorf("metas = %d, want 3", len(metas))
	}
	if strings.Contains(prompt, "4.jpg") {
		t.Error("fourth URL leaked into the prompt")
	}
	if !strings.Contains(prompt, "(3 pilti)") {
		t.Errorf("prompt count wrong: %q", prompt)
	}
}
