// Package identity provides TokenProvider implementations for resolving
// bearer tokens to caller identities.
package identity

import (
	"fmt"

	"github.com/kilnlog/kilnlog"
)

// MapProvider resolves tokens from an in-memory map.
// Suitable for configuration file-based token storage.
type MapProvider struct {
	identities map[string]kilnlog.Identity
}

// NewMapProvider creates a new map-based provider with the given token to
// identity mapping.
func NewMapProvider(identities map[string]kilnlog.Identity) *MapProvider {
	return &MapProvider{identities: identities}
}

// Resolve retrieves the identity for the given token from the map.
func (p *MapProvider) Resolve(token string) (kilnlog.Identity, error) {
	ident, found := p.identities[token]
	if !found {
		return kilnlog.Identity{}, fmt.Errorf("token not found: %w", kilnlog.ErrUnauthorized)
	}
	return ident, nil
}
