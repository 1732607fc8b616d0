package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Command metrics
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec

	// Tree metrics
	TreeNodes    *prometheus.GaugeVec
	TreeDepth    prometheus.Gauge
	PayloadBytes prometheus.Gauge

	// Persistence metrics
	Loads   *prometheus.CounterVec
	Saves   *prometheus.CounterVec
	Imports *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON stats endpoint.
type Snapshot struct {
	TotalRequests   int64      `json:"total_requests"`
	TotalErrors     int64      `json:"total_errors"`
	TotalActions    int64      `json:"total_actions"`
	FailedActions   int64      `json:"failed_actions"`
	Saves           int64      `json:"saves"`
	FailedSaves     int64      `json:"failed_saves"`
	ActiveSockets   int64      `json:"active_sockets"`
	AvgRequestMs    float64    `json:"avg_request_ms"`
	UptimeSeconds   float64    `json:"uptime_seconds"`
	Tree            tree.Stats `json:"tree"`
	totalDurationMs float64
}

// NewMetrics registers the collectors on reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	// HTTP metrics
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	m.RequestSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)
	m.ResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	// Command metrics
	m.ActionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_actions_total",
			Help: "Context-menu actions executed, by outcome",
		},
		[]string{"action", "status"},
	)
	m.ActionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_action_duration_seconds",
			Help:    "Action duration in seconds, including persistence",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"action"},
	)

	// Tree metrics
	m.TreeNodes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "filedeck_tree_nodes",
			Help: "Nodes in the tree, by kind",
		},
		[]string{"kind"},
	)
	m.TreeDepth = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_tree_max_depth",
			Help: "Deepest folder nesting in the tree",
		},
	)
	m.PayloadBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_tree_payload_bytes",
			Help: "Encoded size of all file payloads",
		},
	)

	// Persistence metrics
	m.Loads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_document_loads_total",
			Help: "Startup loads, by the source that supplied the tree",
		},
		[]string{"source"},
	)
	m.Saves = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_document_saves_total",
			Help: "Document saves, by outcome",
		},
		[]string{"status"},
	)
	m.Imports = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_imports_total",
			Help: "Imports, by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// WebSocket metrics
	m.WSConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_ws_connections",
			Help: "Number of active WebSocket connections",
		},
	)
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_ws_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction", "type"},
	)

	// System metrics
	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "filedeck_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, code string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, code).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDurationMs += float64(duration.Microseconds()) / 1000
	if code != "" && (code[0] == '4' || code[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAction implements command.Recorder.
func (m *Metrics) RecordAction(action string, success bool, elapsed time.Duration) {
	m.ActionsTotal.WithLabelValues(action, status(success)).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(elapsed.Seconds())

	m.mu.Lock()
	m.snapshot.TotalActions++
	if !success {
		m.snapshot.FailedActions++
	}
	m.mu.Unlock()
}

// RecordTree implements command.Recorder.
func (m *Metrics) RecordTree(stats tree.Stats) {
	m.TreeNodes.WithLabelValues(string(tree.KindFolder)).Set(float64(stats.Folders))
	m.TreeNodes.WithLabelValues(string(tree.KindFile)).Set(float64(stats.Files))
	m.TreeDepth.Set(float64(stats.MaxDepth))
	m.PayloadBytes.Set(float64(stats.PayloadBytes))

	m.mu.Lock()
	m.snapshot.Tree = stats
	m.mu.Unlock()
}

// RecordLoad implements persistence.Recorder.
func (m *Metrics) RecordLoad(source string) {
	m.Loads.WithLabelValues(source).Inc()
}

// RecordSave implements persistence.Recorder.
func (m *Metrics) RecordSave(ok bool) {
	m.Saves.WithLabelValues(status(ok)).Inc()

	m.mu.Lock()
	if ok {
		m.snapshot.Saves++
	} else {
		m.snapshot.FailedSaves++
	}
	m.mu.Unlock()
}

// RecordImport implements persistence.Recorder.
func (m *Metrics) RecordImport(kind string, ok bool) {
	m.Imports.WithLabelValues(kind, status(ok)).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSockets++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSockets--
	m.mu.Unlock()
}

// Snapshot returns a copy of the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgRequestMs = s.totalDurationMs / float64(s.TotalRequests)
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
