// Package main is the entry point for the FileDeck server.
//
// The server keeps a simulated folder tree in a local bolt file and serves
// it to a browser client over a JSON API and a WebSocket change stream.
//
// Configuration:
//   - Defaults, then an optional TOML file, then environment variables
//   - CLI flags override all of them
//
// Usage:
//
//	# Production mode
//	./server -config filedeck.toml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -port 8080 -db /tmp/filedeck.db
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
