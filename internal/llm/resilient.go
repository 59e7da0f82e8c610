package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
)

// ResilientProvider wraps a provider with resilience patterns from fortify.
// There is deliberately no retry: a failed attempt must fall through to the
// next provider in the evaluation chain, never repeat in place.
type ResilientProvider struct {
	provider       Provider
	circuitBreaker circuitbreaker.CircuitBreaker[*Response]
	bulkhead       bulkhead.Bulkhead[*Response]
	rateLimit      ratelimit.RateLimiter
	logger         *slog.Logger
	name           string
}

// ResilientConfig holds configuration for the resilience wrapper
type ResilientConfig struct {
	// EnableCircuitBreaker enables circuit breaker pattern
	EnableCircuitBreaker bool

	// EnableBulkhead enables concurrency limiting
	EnableBulkhead bool

	// EnableRateLimit enables rate limiting
	EnableRateLimit bool

	// MaxConcurrent for bulkhead (default: 3)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 2)
	RatePerSecond int

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns sensible defaults for evaluation traffic
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        3,
		RatePerSecond:        2,
	}
}

// NewResilientProvider wraps a provider with resilience patterns using fortify
func NewResilientProvider(provider Provider, cfg ResilientConfig) *ResilientProvider {
	rp := &ResilientProvider{
		provider: provider,
		logger:   cfg.Logger,
		name:     provider.Name(),
	}

	if cfg.EnableCircuitBreaker {
		rp.circuitBreaker = circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if rp.logger != nil {
					rp.logger.Warn("circuit breaker state change",
						"provider", provider.Name(),
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 3
		}
		rp.bulkhead = bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  10 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 2
		}
		rp.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 3,
			Interval: time.Second,
		})
	}

	return rp
}

func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.rateLimit != nil {
		if !p.rateLimit.Allow(ctx, p.name) {
			return nil, fmt.Errorf("rate limit exceeded for provider %s", p.name)
		}
	}

	operation := func(ctx context.Context) (*Response, error) {
		return p.provider.Generate(ctx, req)
	}

	if p.bulkhead != nil {
		inner := operation
		operation = func(ctx context.Context) (*Response, error) {
			return p.bulkhead.Execute(ctx, inner)
		}
	}

	if p.circuitBreaker != nil {
		return p.circuitBreaker.Execute(ctx, operation)
	}

	return operation(ctx)
}

// Close releases resources held by the resilient provider
func (p *ResilientProvider) Close() error {
	if p.rateLimit != nil {
		return p.rateLimit.Close()
	}
	return nil
}
