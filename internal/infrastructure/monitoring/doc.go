/*
Package monitoring provides Prometheus metrics for FileDeck.

# Overview

Metrics implements the recorder interfaces of the command and persistence
packages, so the workspace and the adapter report into it without knowing
about Prometheus.

# Features

- HTTP request metrics (latency, throughput, size)
- Action counters by outcome and action latency
- Tree gauges refreshed after every committed change
- Document load, save and import counters
- WebSocket connection metrics

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	adapter, _ := persistence.NewAdapter(backend, persistence.Options{Recorder: metrics})
	ws, _, _ := command.Open(ctx, adapter, "", command.Options{Recorder: metrics})
*/
package monitoring
