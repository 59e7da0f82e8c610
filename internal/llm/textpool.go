package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// TextPoolProvider implements Provider for free community text-completion
// pools. The prompt travels URL-encoded in the path and the response is raw
// text that usually, but not always, contains the JSON we asked for.
type TextPoolProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// TextPoolConfig holds configuration for the text-pool provider
type TextPoolConfig struct {
	BaseURL string // default: https://text.pollinations.ai
	Model   string // default: openai
}

// NewTextPoolProvider creates a new free-tier text-pool provider
func NewTextPoolProvider(cfg TextPoolConfig) *TextPoolProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://text.pollinations.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "openai"
	}

	return &TextPoolProvider{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: newHTTPClient(),
	}
}

func (p *TextPoolProvider) Name() string {
	return "textpool"
}

func (p *TextPoolProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	endpoint := fmt.Sprintf("%s/%s?model=%s", p.baseURL, url.PathEscape(prompt), url.QueryEscape(p.model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncateBody(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{Content: string(body), Model: p.model}, nil
}

func truncateBody(b []byte) string {
	const maxLen = 300
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
