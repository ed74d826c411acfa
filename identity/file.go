package identity

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TokenEntry represents one bearer token and the identity it maps to.
type TokenEntry struct {
	Token   string `yaml:"token" mapstructure:"token"`
	OwnerID string `yaml:"owner_id" mapstructure:"owner_id"`
	Admin   bool   `yaml:"admin,omitempty" mapstructure:"admin"`
}

// LoadTokensFromFile loads token entries from a YAML file.
// The file should contain a list of entries:
//
//	- token: kl_2f7c...
//	  owner_id: potter-1
//	- token: kl_9a01...
//	  owner_id: ops
//	  admin: true
func LoadTokensFromFile(path string) ([]TokenEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var entries []TokenEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}

	return entries, nil
}

// SaveTokensToFile writes token entries as YAML, replacing the file through a
// temp file and rename so a crash never leaves a half-written token file.
func SaveTokensToFile(path string, entries []TokenEntry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode tokens file: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tokens-*.yaml")
	if err != nil {
		return fmt.Errorf("write tokens file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write tokens file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write tokens file: %w", err)
	}

	if err = os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write tokens file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write tokens file: %w", err)
	}

	return nil
}
