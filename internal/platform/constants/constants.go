// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuer and token lifetime defaults.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "blognest-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Generous because identity-verification uploads carry base64 image payloads.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "blognest.app"

	// DefaultTokenTTL is the bearer-token lifetime when JWT_EXPIRE is not set.
	DefaultTokenTTL = 7 * 24 * time.Hour
)

// # Upload Limits

const (
	// MaxIDImageBytes caps decoded identity-document images at 5 MB.
	MaxIDImageBytes = 5 * 1024 * 1024

	// JSONBodyLimit caps request bodies. Raised above typical API limits
	// because identity images arrive base64-encoded inside JSON.
	JSONBodyLimit = 10 * 1024 * 1024

	// IDImageURLPath is the static route under the API prefix where stored
	// identity images are served back.
	IDImageURLPath = "/uploads/id_images"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldSuccess    = "success"
	FieldData       = "data"
	FieldMessage    = "message"
	FieldCode       = "code"
	FieldDetails    = "details"
	FieldPagination = "pagination"
	FieldStatus     = "status"
	FieldApp        = "app"
	FieldVersion    = "version"
	FieldChecks     = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisKeyActivePlatforms caches the public platform catalogue
	// (active platforms with their field definitions).
	RedisKeyActivePlatforms = "platforms:active"

	// PlatformCacheTTL bounds catalogue staleness if an invalidation is missed.
	PlatformCacheTTL = 10 * time.Minute
)
