package translation

import (
	"sort"
	"strings"
)

// DefaultProviderName is used when no default is configured.
const DefaultProviderName = "google"

// Registry stores translation providers in registration order. Registration
// order doubles as the fallback priority; the registry is populated once at
// startup and read-only afterwards.
type Registry struct {
	providers       map[string]Provider
	order           []string
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	normalizedDefault := normalizeProviderName(defaultProvider)
	if normalizedDefault == "" {
		normalizedDefault = DefaultProviderName
	}

	return &Registry{
		providers:       make(map[string]Provider),
		defaultProvider: normalizedDefault,
	}
}

// Register adds one provider. Re-registering a name replaces the provider
// but keeps its original fallback position.
func (r *Registry) Register(provider Provider) error {
	if r == nil {
		return newError(KindConfigInvalid, "", "registry is nil")
	}
	if provider == nil {
		return newError(KindConfigInvalid, "", "provider is nil")
	}
	name := normalizeProviderName(provider.Name())
	if name == "" {
		return newError(KindConfigInvalid, "", "provider name is required")
	}
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = provider
	return nil
}

// Provider resolves a provider by name. Empty names use the configured
// default provider.
func (r *Registry) Provider(name string) (Provider, error) {
	if r == nil || len(r.providers) == 0 {
		return nil, newError(KindEngineNotFound, name, "no translation providers are registered")
	}

	resolvedName := normalizeProviderName(name)
	if resolvedName == "" {
		resolvedName = r.defaultProvider
	}
	provider, ok := r.providers[resolvedName]
	if !ok {
		return nil, newError(KindEngineNotFound, resolvedName,
			"translation provider is not registered (available: %s)", strings.Join(r.ProviderNames(), ", "))
	}
	return provider, nil
}

// FallbackFor returns the available providers that may stand in for name,
// in registration order.
func (r *Registry) FallbackFor(name string) []Provider {
	if r == nil {
		return nil
	}
	skip := normalizeProviderName(name)
	out := make([]Provider, 0, len(r.order))
	for _, candidate := range r.order {
		if candidate == skip {
			continue
		}
		provider := r.providers[candidate]
		if provider.IsAvailable() {
			out = append(out, provider)
		}
	}
	return out
}

// All returns every provider in registration order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

func (r *Registry) DefaultProvider() string {
	if r == nil {
		return ""
	}
	return r.defaultProvider
}

func (r *Registry) ProviderNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProviderName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
