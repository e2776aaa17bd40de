package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"blisse/internal/logger"
)

// Sentinel errors the orchestrator needs to tell apart: 429 pauses the
// batch before the next item, 402 halts it outright.
var (
	ErrRateLimited     = errors.New("ai: rate limited")
	ErrPaymentRequired = errors.New("ai: credits exhausted")
)

type Extractor struct {
	apiKey     string
	gatewayURL string
	model      string
	httpClient *http.Client
	logger     *logger.Logger
}

// ProductInfo is the structured extraction the gateway must return. Only
// fields actually found in the source material are populated.
type ProductInfo struct {
	ShortDescription string       `json:"shortDescription"`
	MainDescription  string       `json:"mainDescription,omitempty"`
	Benefits         []string     `json:"benefits,omitempty"`
	Ingredients      []Ingredient `json:"ingredients,omitempty"`
	InciList         string       `json:"inciList,omitempty"`
	Usage            string       `json:"usage,omitempty"`
	Warnings         string       `json:"warnings,omitempty"`
	PackageSize      string       `json:"packageSize,omitempty"`
}

type Ingredient struct {
	Name        string `json:"name"`
	Percentage  string `json:"percentage,omitempty"`
	Description string `json:"description,omitempty"`
}

// ImageMeta is AI-generated Estonian naming for one product image.
type ImageMeta struct {
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// Chat completion wire structures.
type chatRequest struct {
	Model       string     `json:"model"`
	Messages    []message  `json:"messages"`
	Tools       []tool     `json:"tools,omitempty"`
	ToolChoice  *toolPick  `json:"tool_choice,omitempty"`
	Temperature float64    `json:"temperature,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Type     string   `json:"type"`
	Function toolFunc `json:"function"`
}

type toolFunc struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type toolPick struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

const extractSystemPrompt = `Sa oled ilutoote ekspert. Analüüsi veebist leitud infot ja koosta struktureeritud tootekirjeldus EESTI KEELES.

Tagasta JSON:
{
  "shortDescription": "Ühe lause lühikirjeldus tootekaardile (max 100 tähemärki)",
  "mainDescription": "Põhjalik kirjeldus 2-3 lauset toote kohta",
  "benefits": ["Eelis 1", "Eelis 2", "Eelis 3"],
  "ingredients": [{"name": "Koostisosa", "percentage": "% kui teada", "description": "Mida teeb"}],
  "inciList": "Täielik INCI nimekiri kui leitud",
  "usage": "Kasutamisjuhised",
  "packageSize": "Pakendi suurus"
}

Ole täpne, kasuta AINULT leitud infot. Tühjad väljad jäta välja.`

const imageSystemPrompt = `Sa oled ekspert toote pildi metaandmete generaator. Sinu ülesanne on luua eestikeelsed nimed ja alt-tekstid toote piltidele.

Reegel:
- Nimi peaks olema lühike ja kirjeldav (3-6 sõna)
- Alt-tekst peaks olema pikem, SEO-sõbralik kirjeldus (10-20 sõna)
- Kasuta toote nime ja tüüpi kirjeldustes
- Lisa asjakohaseid märksõnu nagu "professionaalne", "kvaliteetne", jne.`

func NewExtractor(apiKey, gatewayURL, model string, logger *logger.Logger) *Extractor {
	return &Extractor{
		apiKey:     apiKey,
		gatewayURL: gatewayURL,
		model:      model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ExtractProductInfo asks the gateway for a structured extraction of the
// product from existing description plus web search content. The tool-call
// output mode is required so the payload arrives as schema-conforming JSON
// instead of prose. requireIngredients also makes the ingredients array a
// required schema field (the single-product variant wants it).
func (e *Extractor) ExtractProductInfo(ctx context.Context, productName, description, webContent string, requireIngredients bool) (*ProductInfo, error) {
	if description == "" {
		description = "Puudub"
	}

	required := []string{"shortDescription"}
	if requireIngredients {
		required = append(required, "ingredients")
	}

	userContent := fmt.Sprintf(`Toode: %s

Olemasolev kirjeldus:
%s

Veebist leitud:
%s

Koosta tooteinfo eesti keeles.`, productName, description, webContent)

	request := chatRequest{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: extractSystemPrompt},
			{Role: "user", Content: userContent},
		},
		Tools: []tool{{
			Type: "function",
			Function: toolFunc{
				Name:        "extract_product_info",
				Description: "Ekstrakti struktureeritud tooteinfo",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"shortDescription": map[string]interface{}{"type": "string"},
						"mainDescription":  map[string]interface{}{"type": "string"},
						"benefits": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"ingredients": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"name":        map[string]interface{}{"type": "string"},
									"percentage":  map[string]interface{}{"type": "string"},
									"description": map[string]interface{}{"type": "string"},
								},
								"required": []string{"name"},
							},
						},
						"inciList":    map[string]interface{}{"type": "string"},
						"usage":       map[string]interface{}{"type": "string"},
						"warnings":    map[string]interface{}{"type": "string"},
						"packageSize": map[string]interface{}{"type": "string"},
					},
					"required": required,
				},
			},
		}},
		ToolChoice: pickTool("extract_product_info"),
	}

	resp, err := e.call(ctx, request)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, nil
	}

	arguments := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	var info ProductInfo
	if err := json.Unmarshal([]byte(arguments), &info); err != nil {
		e.logger.Error("Failed to parse tool call arguments: %v", err)
		return nil, nil
	}

	return &info, nil
}

var jsonBlockPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// GenerateImageMetadata produces Estonian name/alt pairs for up to three
// image URLs. This endpoint predates the tool-call mode, so the JSON is
// fished out of free text, with basic metadata as the fallback.
func (e *Extractor) GenerateImageMetadata(ctx context.Context, productName string, imageURLs []string) ([]ImageMeta, error) {
	if len(imageURLs) > 3 {
		imageURLs = imageURLs[:3]
	}

	var list strings.Builder
	for i, url := range imageURLs {
		fmt.Fprintf(&list, "%d. %s\n", i+1, url)
	}

	userContent := fmt.Sprintf(`Genereeri metaandmed järgmistele toote piltidele.

Toote nimi: %s
Piltide URL-id (%d pilti):
%s
Vasta JSON formaadis:
{
  "images": [
    {
      "src": "pildi_url",
      "name": "Eestikeelne pildi nimi",
      "alt": "Eestikeelne SEO-sõbralik alt-tekst kirjeldus"
    }
  ]
}`, productName, len(imageURLs), list.String())

	request := chatRequest{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: imageSystemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	}

	resp, err := e.call(ctx, request)
	if err != nil {
		return nil, err
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	var parsed struct {
		Images []ImageMeta `json:"images"`
	}
	if block := jsonBlockPattern.FindString(content); block != "" {
		if err := json.Unmarshal([]byte(block), &parsed); err != nil {
			e.logger.Error("Failed to parse AI image metadata: %v", err)
		}
	}

	if len(parsed.Images) == 0 {
		// Fallback: basic metadata from the product name
		for i, url := range imageURLs {
			parsed.Images = append(parsed.Images, ImageMeta{
				Src:  url,
				Name: fmt.Sprintf("%s - pilt %d", productName, i+1),
				Alt:  fmt.Sprintf("%s professionaalne tootepilt", productName),
			})
		}
	}

	return parsed.Images, nil
}

func (e *Extractor) call(ctx context.Context, request chatRequest) (*chatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.gatewayURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, ErrPaymentRequired
	default:
		return nil, fmt.Errorf("AI gateway error: %d - %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &chatResp, nil
}

func pickTool(name string) *toolPick {
	pick := &toolPick{Type: "function"}
	pick.Function.Name = name
	return pick
}

// SetGatewayURL overrides the gateway endpoint, used by tests.
func (e *Extractor) SetGatewayURL(url string) {
	e.gatewayURL = url
}
