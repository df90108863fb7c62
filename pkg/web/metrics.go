package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics holds the Prometheus collectors of one server. Each server
// owns its registry so several servers can coexist in one process.
type serverMetrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	mutationsTotal   *prometheus.CounterVec
}

func newServerMetrics(nodes, edges func() float64) *serverMetrics {
	reg := prometheus.NewRegistry()
	m := &serverMetrics{
		registry: reg,
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsat_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsat_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "jsat_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		mutationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsat_graph_mutations_total",
				Help: "Graph mutation requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "jsat_graph_nodes",
		Help: "Number of nodes in the current graph",
	}, nodes)
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "jsat_graph_edges",
		Help: "Number of edges in the current graph",
	}, edges)
	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware records request counts and latencies by route template
func (m *serverMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *serverMetrics) mutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.mutationsTotal.WithLabelValues(op, outcome).Inc()
}

// statusRecorder captures the status code while passing flushes through for SSE
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
