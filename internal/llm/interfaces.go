package llm

// ProviderChain defines the registry surface the evaluation client uses.
type ProviderChain interface {
	// Chain returns providers in fallback order
	Chain() []Provider

	// List returns all registered provider names in fallback order
	List() []string
}

// Ensure Registry implements ProviderChain
var _ ProviderChain = (*Registry)(nil)
