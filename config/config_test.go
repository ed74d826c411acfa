package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnlog/kilnlog/config"
)

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 5812, cfg.Server.Port)
	assert.Equal(t, "http://localhost:5812", cfg.Server.BaseURL)
	assert.Equal(t, 900, cfg.Service.SignedURLTTL)
	assert.Equal(t, 30, cfg.Service.CompensationTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "kilnlog.db", cfg.Database.DSN)
	assert.Equal(t, "items", cfg.Database.Collection)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 8080
  base_url: https://pottery.example.com
database:
  type: postgres
  dsn: postgres://localhost/test
  collection: studio_items
storage:
  path: /tmp/storage
auth:
  signing_secret: super-secret-signing-key
  tokens:
    inline:
      - token: kl_local
        owner_id: potter-1
log:
  level: debug
`
	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://pottery.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
	assert.Equal(t, "studio_items", cfg.Database.Collection)
	assert.Equal(t, "/tmp/storage", cfg.Storage.Path)
	assert.Equal(t, "super-secret-signing-key", cfg.Auth.SigningSecret)
	require.Len(t, cfg.Auth.Tokens.Inline, 1)
	assert.Equal(t, "kl_local", cfg.Auth.Tokens.Inline[0].Token)
	assert.Equal(t, "potter-1", cfg.Auth.Tokens.Inline[0].OwnerID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	tmpDir := t.TempDir()

	basePath := filepath.Join(tmpDir, "base.yaml")
	baseContent := `
server:
  port: 5812
database:
  type: sqlite
  dsn: kilnlog.db
log:
  level: info
`
	require.NoError(t, os.WriteFile(basePath, []byte(baseContent), 0o644))

	overridePath := filepath.Join(tmpDir, "override.yaml")
	overrideContent := `
server:
  port: 9000
log:
  level: warn
`
	require.NoError(t, os.WriteFile(overridePath, []byte(overrideContent), 0o644))

	// Later files override earlier ones
	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("KILNLOG_SERVER_PORT", "7001")
	t.Setenv("KILNLOG_DATABASE_TYPE", "postgres")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
}

func TestLoad_FlagOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db-type", "", "")
	flags.String("db-dsn", "", "")

	require.NoError(t, flags.Parse([]string{"--port=7002", "--db-dsn=/var/lib/kilnlog.db"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 7002, cfg.Server.Port)
	assert.Equal(t, "/var/lib/kilnlog.db", cfg.Database.DSN)
	// Unchanged flags keep their defaults
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoad_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "port out of range",
			content: "server:\n  port: 99999\n",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: verbose\n",
		},
		{
			name:    "short signing secret",
			content: "auth:\n  signing_secret: short\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := config.Load([]string{path}, nil)
			assert.Error(t, err)
		})
	}
}

func TestFromContext(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	ctx := config.WithContext(t.Context(), cfg)

	got, err := config.FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	_, err = config.FromContext(t.Context())
	assert.Error(t, err)
}
