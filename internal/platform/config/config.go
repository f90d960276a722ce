// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

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
  - DI-Friendly: Passed to core components (DB, Redis, TokenService,
    Encryptor) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/blognest/blognest/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the Blognest API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	APIPrefix   string `env:"API_PREFIX"   envDefault:"/api/v1"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — platform catalogue cache + readiness probe.
	RedisURL string `env:"REDIS_URL,required"`

	// Bearer-token signing
	JWTSecret string `env:"JWT_SECRET,required"`
	// JWTExpireHours overrides the default 7-day token lifetime when > 0.
	JWTExpireHours int `env:"JWT_EXPIRE" envDefault:"0"`

	// FieldEncryptionKey secures credential field values at rest.
	// Must be exactly 32 bytes (AES-256).
	FieldEncryptionKey string `env:"FIELD_ENCRYPTION_KEY,required"`

	// UploadDir is where identity-verification images are persisted.
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads/id_images"`

	// Cross-Origin Resource Sharing
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
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

	return cfg, nil
}

// TokenTTL resolves the bearer-token lifetime: JWT_EXPIRE hours when set,
// otherwise the platform default of 7 days.
func (c *Config) TokenTTL() time.Duration {
	if c.JWTExpireHours > 0 {
		return time.Duration(c.JWTExpireHours) * time.Hour
	}
	return constants.DefaultTokenTTL
}

// AllowedOrigin returns the single frontend origin permitted by CORS.
func (c *Config) AllowedOrigin() string {
	return c.CORSOrigin
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
