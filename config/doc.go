// Package config provides configuration loading and validation for kilnlog.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (KILNLOG_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with KILNLOG_ prefix:
//   - server.port → KILNLOG_SERVER_PORT
//   - database.type → KILNLOG_DATABASE_TYPE
//   - auth.signing_secret → KILNLOG_AUTH_SIGNING_SECRET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and externally reachable base_url for signed blob URLs
//   - Service: signed_url_ttl and compensation_timeout, in seconds
//   - Database: type, DSN, and collection name
//   - Storage: blob storage path
//   - Auth: URL signing secret and bearer tokens (inline or file)
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - base_url must be a URL
//   - signing_secret, when set, must be at least 16 bytes
//   - Log level must be debug, info, warn, or error
package config
