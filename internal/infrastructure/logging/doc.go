// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Domain packages take a plain *zap.Logger; the server hands each one a
// child from Component so log lines carry the emitting subsystem.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	store := tree.NewStore(nil, tree.WithLogger(logger.Component("tree")))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
