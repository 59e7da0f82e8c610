package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/llm"
)

// DefaultAttemptTimeout bounds each provider attempt. A slow provider is
// abandoned and the chain moves on; there is no in-place retry.
const DefaultAttemptTimeout = 8 * time.Second

// Payload is the semi-structured evaluation a provider returns after JSON
// extraction. Numeric score is the only required field; everything else
// defaults to empty.
type Payload struct {
	Score          *float64 `json:"score"`
	Passed         *bool    `json:"passed"`
	Feedback       string   `json:"feedback"`
	Strengths      []string `json:"strengths"`
	Fixes          []string `json:"fixes"`
	CriteriaScores []struct {
		Name     string  `json:"name"`
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	} `json:"criteriaScores"`
	Mood    string `json:"mood"`
	Message string `json:"message"`
}

// RemoteEvaluator is the surface the orchestrator depends on.
type RemoteEvaluator interface {
	// RequestEvaluation walks the provider chain and returns the first
	// parseable payload plus the provider name that produced it.
	RequestEvaluation(ctx context.Context, system, prompt string) (*Payload, string, error)
}

// Client orchestrates calls across the ordered provider fallback chain.
type Client struct {
	chain          llm.ProviderChain
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// NewClient creates a remote evaluation client over a provider chain
func NewClient(chain llm.ProviderChain, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		chain:          chain,
		attemptTimeout: DefaultAttemptTimeout,
		logger:         logger,
	}
}

// RequestEvaluation tries each provider strictly in order, one bounded
// attempt each, and returns the first response containing a parseable
// numeric score. Total failure is an error value, never a panic, so the
// caller can degrade to the local heuristic.
func (c *Client) RequestEvaluation(ctx context.Context, system, prompt string) (*Payload, string, error) {
	providers := c.chain.Chain()
	if len(providers) == 0 {
		return nil, "", domain.ErrAllProvidersFailed
	}

	req := &llm.Request{
		System:      system,
		Prompt:      prompt,
		Temperature: 0.4,
		MaxTokens:   1024,
		JSONOutput:  true,
	}

	var lastErr error
	for _, provider := range providers {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		resp, err := provider.Generate(attemptCtx, req)
		cancel()

		if err != nil {
			c.logger.Warn("evaluation provider failed",
				"provider", provider.Name(),
				"error", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		payload, err := ParsePayload(resp.Content)
		if err != nil {
			c.logger.Warn("evaluation response unparseable",
				"provider", provider.Name(),
				"error", err)
			lastErr = err
			continue
		}

		return payload, provider.Name(), nil
	}

	return nil, "", fmt.Errorf("%w: %v", domain.ErrAllProvidersFailed, lastErr)
}

// ParsePayload extracts the first balanced JSON object from raw provider
// text (which may be wrapped in prose or markdown fences) and decodes it.
// A payload without a numeric score counts as unparseable.
func ParsePayload(raw string) (*Payload, error) {
	fragment, ok := extractJSONObject(raw)
	if !ok {
		return nil, domain.ErrNoScoreInResponse
	}

	var payload Payload
	if err := json.Unmarshal([]byte(fragment), &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload.Score == nil {
		return nil, domain.ErrNoScoreInResponse
	}
	return &payload, nil
}

// extractJSONObject finds the first balanced {...} substring, tracking
// string literals and escapes so braces inside text don't break balance.
func extractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
