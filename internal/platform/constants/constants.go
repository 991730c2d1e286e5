// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire portal.

It defines default timeouts, rate limits, routes and cross-cutting keys that are
shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Navigation: Entry points the route guard and the 401 hook redirect to.
  - Session: Cookie and Redis key conventions.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "alumni-portal"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// It must exceed GlobalRequestTimeout since pages wait on the backend.
	DefaultWriteTimeout = 35 * time.Second

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
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// FormRateLimitRPS throttles credential and contact form submissions per IP.
	FormRateLimitRPS = 0.5

	// FormRateLimitBurst allows a handful of quick retries before throttling.
	FormRateLimitBurst = 5

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Navigation

const (
	// PathLanding is the public entry page.
	PathLanding = "/"

	// PathLogin is the unauthenticated entry view.
	PathLogin = "/login"

	// PathHome is the default authenticated landing view.
	PathHome = "/dashboard"

	// PathAdmin is the admin console.
	PathAdmin = "/dashboard/admin"

	// QueryNext carries the originally requested path through the login page.
	QueryNext = "next"
)

// # Session

const (
	// RedisPrefixCredential namespaces the per-visitor credential slot.
	RedisPrefixCredential = "portal:credential:"

	// SessionSweepInterval is how often idle visitor sessions are evicted from memory.
	SessionSweepInterval = 1 * time.Minute

	// WaitingRefreshSeconds is the Refresh header value of the waiting page.
	WaitingRefreshSeconds = 1
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderAuthorization = "Authorization"
	HeaderRefresh       = "Refresh"
)

// # JSON Field Identifiers

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)
