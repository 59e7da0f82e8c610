package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// GeminiProvider implements Provider for Google's structured-output
// endpoint. It tries an ordered list of model identifiers; the first model
// that answers wins.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	models     []string
	httpClient *http.Client
}

// GeminiConfig holds configuration for the Gemini provider
type GeminiConfig struct {
	APIKey  string
	BaseURL string   // default: https://generativelanguage.googleapis.com
	Models  []string // ordered preference, default: gemini-2.0-flash, gemini-1.5-flash
}

// NewGeminiProvider creates a new keyed structured-output provider
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"gemini-2.0-flash", "gemini-1.5-flash"}
	}

	return &GeminiProvider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		models:     cfg.Models,
		httpClient: newHTTPClient(),
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Configured reports whether credentials are present. An unconfigured
// provider is skipped by the fallback chain, not an error state.
func (p *GeminiProvider) Configured() bool {
	return p.apiKey != ""
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature,omitempty"`
		MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Generate runs one request/response cycle per configured model, in order,
// and returns the first usable payload.
func (p *GeminiProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	var lastErr error
	for _, model := range p.models {
		resp, err := p.generateWithModel(ctx, model, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("all models failed: %w", lastErr)
}

func (p *GeminiProvider) generateWithModel(ctx context.Context, model string, req *Request) (*Response, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	geminiReq := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	geminiReq.GenerationConfig.Temperature = req.Temperature
	geminiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if req.JSONOutput {
		geminiReq.GenerationConfig.ResponseMimeType = "application/json"
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncateBody(bodyBytes))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	text, err := extractCandidateText(&geminiResp)
	if err != nil {
		return nil, err
	}
	return &Response{Content: text, Model: model}, nil
}

// extractCandidateText pulls the text payload out of the nested
// candidate/content/parts structure.
func extractCandidateText(resp *geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", errors.New("no parts in candidate content")
	}

	var out string
	for _, part := range parts {
		out += part.Text
	}
	if out == "" {
		return "", errors.New("empty candidate text")
	}
	return out, nil
}
