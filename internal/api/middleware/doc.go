// Package middleware provides the HTTP middleware stack for the FileDeck API.
//
// Middleware stack includes:
//   - CORS: cross-origin access for the presentation client
//   - RateLimit: per-IP token bucket with idle eviction
//   - RequestID: ULID request ids echoed in X-Request-ID
//   - Logger: one zap line per request
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
