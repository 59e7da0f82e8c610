package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrNoDefaultProvider = errors.New("no default provider configured")
	ErrNotConfigured     = errors.New("provider not configured")
)

// Provider defines the interface for text-generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate performs a completion request
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a text-generation request
type Request struct {
	Prompt      string
	System      string  // system prompt (some providers handle this separately)
	Temperature float64
	MaxTokens   int
	JSONOutput  bool // ask the provider for structured JSON where supported
}

// Response represents a text-generation response
type Response struct {
	Content string
	Model   string
}

// Registry manages text-generation providers in fallback order
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

// Register appends a provider to the fallback chain. Registration order is
// the attempt order.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		r.order = append(r.order, name)
	}
	r.byName[name] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Chain returns the providers in registration (fallback) order
func (r *Registry) Chain() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		chain = append(chain, r.byName[name])
	}
	return chain
}

// List returns all registered provider names in fallback order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
