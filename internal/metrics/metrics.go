package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot server.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec   // labels: route, code
	HTTPDuration    *prometheus.HistogramVec // labels: route
	RejectedTotal   *prometheus.CounterVec   // labels: reason
	AnalysesTotal   prometheus.Counter
	AnalyzeDur      prometheus.Histogram
	BarsAnalyzed    prometheus.Histogram
	SignalsTotal    *prometheus.CounterVec // labels: side=buy|sell
	SignalsHeld     *prometheus.CounterVec // labels: reason
	BotActive       prometheus.Gauge       // 0=inactive, 1=active
	StoreErrors     prometheus.Counter
	BreakerState    prometheus.Gauge // 0=closed, 1=open, 2=half-open
	BreakerTrips    prometheus.Counter
	AlertsSent      *prometheus.CounterVec // labels: result=ok|error
	WSClients       prometheus.Gauge
	WSDroppedFrames prometheus.Counter
}

// NewMetrics creates and registers all metrics plus the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botserver_http_requests_total",
			Help: "HTTP requests served (by route and status code)",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "botserver_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botserver_rejected_requests_total",
			Help: "Analysis requests rejected before computation",
		}, []string{"reason"}),

		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botserver_analyses_total",
			Help: "Indicator pipeline runs",
		}),
		AnalyzeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "botserver_analyze_duration_seconds",
			Help:    "Indicator pipeline compute latency per request",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		BarsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "botserver_bars_per_analysis",
			Help:    "Number of bars supplied per analysis request",
			Buckets: []float64{1, 10, 15, 50, 100, 500, 1000, 5000},
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botserver_signals_total",
			Help: "Buy/sell signals on the latest bar of an analysis",
		}, []string{"side"}),
		SignalsHeld: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botserver_signals_held_total",
			Help: "Signals that did not produce an alert, by reason",
		}, []string{"reason"}),

		BotActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "botserver_bot_active",
			Help: "Bot active flag (0=inactive, 1=active)",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botserver_state_store_errors_total",
			Help: "Failed state store operations",
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "botserver_state_circuit_breaker_state",
			Help: "State store circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botserver_state_circuit_breaker_trips_total",
			Help: "Times the state store circuit breaker tripped open",
		}),

		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botserver_alerts_total",
			Help: "Alert deliveries (by result)",
		}, []string{"result"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "botserver_ws_clients",
			Help: "Connected websocket clients",
		}),
		WSDroppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botserver_ws_dropped_frames_total",
			Help: "Event frames dropped because a client send buffer was full",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.RejectedTotal,
		m.AnalysesTotal,
		m.AnalyzeDur,
		m.BarsAnalyzed,
		m.SignalsTotal,
		m.SignalsHeld,
		m.BotActive,
		m.StoreErrors,
		m.BreakerState,
		m.BreakerTrips,
		m.AlertsSent,
		m.WSClients,
		m.WSDroppedFrames,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetActive mirrors the bot active flag into its gauge.
func (m *Metrics) SetActive(active bool) {
	if active {
		m.BotActive.Set(1)
		return
	}
	m.BotActive.Set(0)
}
