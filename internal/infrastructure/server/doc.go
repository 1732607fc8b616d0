// Package server wires configuration, storage, the workspace and the HTTP
// API into a runnable process.
//
// Startup order: logger, metrics registry, storage backend, link fetcher,
// persistence adapter, workspace (which loads and saves the tree), router.
// Shutdown drains HTTP first and closes storage last.
package server
