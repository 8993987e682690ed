// Package metrics provides Prometheus metrics for the Voyager exchange.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the exchange.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Protocol
	messagesEncoded *prometheus.CounterVec
	messagesDecoded *prometheus.CounterVec
	payloadChars    *prometheus.HistogramVec
	duplicateScans  prometheus.Counter

	// Codec
	codecLatency   *prometheus.HistogramVec
	codecQueueSize prometheus.Gauge
	codecWorkers   prometheus.Gauge

	// Local store
	rowsWritten    *prometheus.CounterVec
	rowsPreserved  prometheus.Counter
	importDuration *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Each manager must use its own
// registry; registering twice on the same registry panics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "voyager",
		subsystem:        "exchange",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat collector declarations
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.messagesEncoded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("messages_encoded_total"),
		Help:        "Messages encoded, by message type",
		ConstLabels: labels,
	}, []string{"type"})

	m.messagesDecoded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("messages_decoded_total"),
		Help:        "Messages decoded, by message type",
		ConstLabels: labels,
	}, []string{"type"})

	m.payloadChars = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("payload_chars"),
		Help:        "Length of encoded base64 payloads (QR density)",
		Buckets:     []float64{64, 128, 256, 512, 1024, 1536, 2048, 2953, 4096},
		ConstLabels: labels,
	}, []string{"type"})

	m.duplicateScans = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("duplicate_scans_total"),
		Help:        "Scans skipped because the same payload was already imported",
		ConstLabels: labels,
	})

	m.codecLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("codec_latency_milliseconds"),
		Help:        "Compressor latency by operation",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		ConstLabels: labels,
	}, []string{"operation"})

	m.codecQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("codec_queue_size"),
		Help:        "Codec jobs waiting for a worker",
		ConstLabels: labels,
	})

	m.codecWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("codec_workers"),
		Help:        "Running codec workers",
		ConstLabels: labels,
	})

	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_written_total"),
		Help:        "Local store rows written by imports, by table",
		ConstLabels: labels,
	}, []string{"table"})

	m.rowsPreserved = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_preserved_total"),
		Help:        "Schedule rows whose local data survived a schedule import",
		ConstLabels: labels,
	})

	m.importDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("import_duration_milliseconds"),
		Help:        "Import transaction duration by message type",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"type"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Errors by component and kind",
		ConstLabels: labels,
	}, []string{"component", "kind"})
}

// RecordMessageEncoded counts an encoded message and its payload length.
func RecordMessageEncoded(msgType string, chars int) {
	if !globalManager.enabled {
		return
	}
	globalManager.messagesEncoded.WithLabelValues(msgType).Inc()
	globalManager.payloadChars.WithLabelValues(msgType).Observe(float64(chars))
}

// RecordMessageDecoded counts a decoded message.
func RecordMessageDecoded(msgType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.messagesDecoded.WithLabelValues(msgType).Inc()
}

// RecordDuplicateScan counts a repeated scan.
func RecordDuplicateScan() {
	if !globalManager.enabled {
		return
	}
	globalManager.duplicateScans.Inc()
}

// RecordCodecLatency records compressor latency in milliseconds.
func RecordCodecLatency(operation string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.codecLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateCodecQueueSize sets the codec queue length.
func UpdateCodecQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.codecQueueSize.Set(float64(size))
}

// UpdateCodecWorkers sets the running codec worker count.
func UpdateCodecWorkers(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.codecWorkers.Set(float64(count))
}

// RecordRowsWritten adds n rows written to table.
func RecordRowsWritten(table string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsWritten.WithLabelValues(table).Add(float64(n))
}

// RecordRowsPreserved adds n rows whose local data was kept.
func RecordRowsPreserved(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsPreserved.Add(float64(n))
}

// RecordImportDuration records an import transaction duration.
func RecordImportDuration(msgType string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.importDuration.WithLabelValues(msgType).Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordError counts an error by component and kind.
func RecordError(component, kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
