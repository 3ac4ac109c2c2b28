// Package providers defines the lyrics provider interface and the global
// registry the fetch coordinator resolves sources through.
package providers

import (
	"fmt"
	"sync"

	"lrc-fetch-go/lyrics"
)

// Provider defines the interface that all lyrics providers implement.
type Provider interface {
	// Source returns the provider's source identifier.
	Source() lyrics.Source

	// Search queries the provider's catalog for songs matching the keyword.
	// Pages are 1-based.
	Search(keyword string, page int) ([]lyrics.Song, error)

	// GetLyrics downloads and decodes the lyrics for a song previously
	// returned by Search, or built from a bare ID.
	GetLyrics(song lyrics.Song) (*lyrics.Bundle, error)
}

// Registry holds all registered providers keyed by source.
type Registry struct {
	mu        sync.RWMutex
	providers map[lyrics.Source]Provider
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[lyrics.Source]Provider)}
}

// GetRegistry returns the global provider registry.
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Source()] = p
}

// Get retrieves a provider by source.
func (r *Registry) Get(source lyrics.Source) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[source]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", source)
	}
	return p, nil
}

// List returns all registered sources.
func (r *Registry) List() []lyrics.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]lyrics.Source, 0, len(r.providers))
	for s := range r.providers {
		sources = append(sources, s)
	}
	return sources
}

// Has checks if a provider is registered.
func (r *Registry) Has(source lyrics.Source) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[source]
	return ok
}

// Register is a convenience function to register a provider in the global registry.
func Register(p Provider) {
	GetRegistry().Register(p)
}

// Get is a convenience function to get a provider from the global registry.
func Get(source lyrics.Source) (Provider, error) {
	return GetRegistry().Get(source)
}

// List is a convenience function to list all providers in the global registry.
func List() []lyrics.Source {
	return GetRegistry().List()
}

// Has is a convenience function to check if a provider exists in the global registry.
func Has(source lyrics.Source) bool {
	return GetRegistry().Has(source)
}
