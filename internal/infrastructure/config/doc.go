// Package config provides 12-factor configuration management for FileDeck.
//
// Values come from defaults, then an optional TOML file, then environment
// variables. CLI flags in cmd/ can override the result.
//
// Configuration Sections:
//   - Server: listen address and the public URL used for share links
//   - Storage: driver (bolt or memory), database path and document key
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//   - Fetch: timeout, retries and body cap for link import
//
// Example Usage:
//
//	cfg, err := config.LoadFile("filedeck.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, PUBLIC_URL
//   - STORAGE_PATH, STORAGE_KEY, STORAGE_DRIVER
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - FETCH_TIMEOUT, FETCH_RETRIES, FETCH_MAX_BYTES
package config
