// Copyright (c) 2026 Collabry, Inc. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, handlers) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/collabry/groups/internal/platform/validate"
)

// # Configuration Schema

// Config holds all runtime configuration for the Groups API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Identity: RSA public key for verifying bearer tokens minted by the
	// auth service, plus the user directory endpoint for existence checks.
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`
	AuthIssuer    string `env:"AUTH_ISSUER"        envDefault:"collabry-auth"`
	UserDirURL    string `env:"USER_DIRECTORY_URL,required"`

	// ResourceServices maps a resource type to the base URL of the service
	// that administers it, e.g. "workspace=https://ws.internal,catalog=https://cat.internal".
	ResourceServices map[string]string `env:"RESOURCE_SERVICES" envSeparator:"," envKeyValSeparator:"="`

	// Notifier selects the outbound notification transport: "log" or "redis".
	Notifier string `env:"NOTIFIER" envDefault:"log"`

	// NotifyChannel is the Redis pub/sub channel for the redis notifier.
	NotifyChannel string `env:"NOTIFY_CHANNEL" envDefault:"groups.events"`

	// ExpireRequests enables the in-process sweeper that flips stale open
	// approval requests to the expired state. Disable when an external
	// scheduler owns expiration.
	ExpireRequests bool `env:"EXPIRE_REQUESTS" envDefault:"true"`

	// FieldConfig is the custom-field configuration string, a comma-separated
	// list of entries of the form
	// "name:validator[:public][:minimal][:user][:settable][:param=value...]".
	FieldConfig string `env:"FIELD_CONFIG"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	for resourceType, baseURL := range cfg.ResourceServices {
		if strings.TrimSpace(baseURL) == "" {
			return nil, fmt.Errorf("config: resource service %q has an empty base URL", resourceType)
		}
	}

	// Cross-field checks the env tags cannot express.
	v := &validate.Validator{}
	v.OneOf("ENVIRONMENT", cfg.Environment, "development", "staging", "production")
	v.OneOf("NOTIFIER", cfg.Notifier, "log", "redis")
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
