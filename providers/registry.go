package providers

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
)

// Settings carries the provider-neutral construction parameters.
// Each factory maps the fields it understands onto its own options and
// ignores the rest.
type Settings struct {
	APIKey          string
	BaseURL         string
	UploadURL       string
	PollInterval    time.Duration
	ImageBlockStyle string
	Headers         map[string]string
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Factory creates an adapter from settings.
type Factory func(s Settings) core.Adapter

// registry holds registered adapter factories.
var (
	registryMu sync.RWMutex
	registry   = make(map[core.ProviderID]Factory)
)

// Register adds a factory to the registry.
// It is typically called from a provider's init() function.
// If a provider with the same tag is already registered, it will be overwritten.
//
// Example usage in a provider package:
//
//	func init() {
//	    providers.Register(core.ProviderFal, func(s providers.Settings) core.Adapter {
//	        return New(s.APIKey)
//	    })
//	}
func Register(id core.ProviderID, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = factory
}

// Get retrieves a factory by provider tag.
// Returns nil if the provider is not registered.
func Get(id core.ProviderID) Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[id]
}

// Create builds an adapter by provider tag.
// Returns an error if the provider is not registered.
func Create(id core.ProviderID, s Settings) (core.Adapter, error) {
	factory := Get(id)
	if factory == nil {
		return nil, fmt.Errorf("unknown provider: %s (available: %v)", id, List())
	}
	return factory(s), nil
}

// List returns the tags of all registered providers in sorted order.
func List() []core.ProviderID {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ids := make([]core.ProviderID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsRegistered returns true if a provider with the given tag is registered.
func IsRegistered(id core.ProviderID) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[id]
	return ok
}
