// Package gemini calls Google's Gemini API to answer questions about
// filtered spreadsheet data.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"sheetpilot/internal/core"
	"sheetpilot/internal/httpclient"
)

const (
	// Native Gemini API endpoint
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no override is configured.
	DefaultModel = "gemini-2.0-flash"

	upstreamName = "gemini"
)

// Config holds the provider configuration.
type Config struct {
	// APIKey authenticates against the Gemini API. An empty key is allowed
	// at construction; the call itself fails with a clear error instead.
	APIKey string

	// Model overrides DefaultModel when set.
	Model string

	// BaseURL overrides the production endpoint, used by tests.
	BaseURL string

	// HTTPClient overrides the default outbound client.
	HTTPClient *http.Client
}

// Provider implements core.Generator against the native Gemini API.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// New creates a new Gemini provider
func New(cfg Config) *Provider {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.NewDefaultHTTPClient()
	}

	return &Provider{
		httpClient: client,
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// Model returns the model this provider generates with.
func (p *Provider) Model() string {
	return p.model
}

// Request body types for the native generateContent API.
type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	Contents          []generateContent `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// Generate sends one generateContent request and returns the concatenated
// text of every candidate part. There are no retries and no client-imposed
// deadline beyond the request context.
func (p *Provider) Generate(ctx context.Context, req *core.GenerateRequest) (*core.GenerateResponse, error) {
	if p.apiKey == "" {
		return nil, core.NewUpstreamError(upstreamName, "GEMINI_API_KEY is not set", nil)
	}

	payload := generateRequest{
		Contents: []generateContent{
			{Role: "user", Parts: []generatePart{{Text: req.Prompt}}},
		},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &generateContent{
			Parts: []generatePart{{Text: req.SystemInstruction}},
		}
	}
	if req.MaxOutputTokens > 0 {
		payload.GenerationConfig = &generationConfig{MaxOutputTokens: req.MaxOutputTokens}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	// The native Gemini API authenticates generateContent with the API key as
	// a query parameter, which can end up in proxy and access logs.
	q := httpReq.URL.Query()
	q.Add("key", p.apiKey)
	httpReq.URL.RawQuery = q.Encode()

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewUpstreamError(upstreamName, fmt.Sprintf("failed to send request: %v", err), err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewUpstreamError(upstreamName, fmt.Sprintf("failed to read response: %v", err), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, core.ParseUpstreamError(upstreamName, resp.StatusCode, respBody)
	}

	return &core.GenerateResponse{
		Text:  extractText(respBody),
		Usage: extractUsage(respBody),
	}, nil
}

// extractText concatenates every text fragment across all candidates.
// A blocked or empty response yields an empty string, not an error.
func extractText(body []byte) string {
	var b strings.Builder
	for _, parts := range gjson.GetBytes(body, "candidates.#.content.parts").Array() {
		for _, part := range parts.Array() {
			b.WriteString(part.Get("text").String())
		}
	}
	return b.String()
}

func extractUsage(body []byte) core.Usage {
	meta := gjson.GetBytes(body, "usageMetadata")
	return core.Usage{
		PromptTokens:     int(meta.Get("promptTokenCount").Int()),
		CompletionTokens: int(meta.Get("candidatesTokenCount").Int()),
		TotalTokens:      int(meta.Get("totalTokenCount").Int()),
	}
}
