package identity

import (
	"github.com/kilnlog/kilnlog"
)

// TokensConfig holds configuration for loading bearer tokens.
type TokensConfig struct {
	Inline []TokenEntry `mapstructure:"inline"` // Inline token entries from config
	File   string       `mapstructure:"file"`   // Path to YAML file containing token entries
}

// NewProvider creates a TokenProvider from the given configuration.
// It loads tokens from both inline config and file (if specified),
// merging them into a single provider. File tokens take precedence over
// inline tokens if there are duplicates.
func NewProvider(cfg TokensConfig) (kilnlog.TokenProvider, error) {
	identities := make(map[string]kilnlog.Identity)

	for _, e := range cfg.Inline {
		addEntry(identities, e)
	}

	if cfg.File != "" {
		entries, err := LoadTokensFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			addEntry(identities, e)
		}
	}

	return NewMapProvider(identities), nil
}

func addEntry(identities map[string]kilnlog.Identity, e TokenEntry) {
	if e.Token == "" {
		return
	}
	if e.OwnerID == "" && !e.Admin {
		return
	}
	identities[e.Token] = kilnlog.Identity{OwnerID: e.OwnerID, Admin: e.Admin}
}
