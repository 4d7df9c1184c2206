package middleware

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	reg                 prometheus.Registerer
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authRejections      *prometheus.CounterVec
}

// RealtimeStats is the view of the WebSocket hub exported as metrics.
type RealtimeStats interface {
	Connections() int64
	Rooms() int64
	MessagesBroadcast() int64
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reg: reg,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_rejections_total",
				Help: "Total number of rejected credentials",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.httpRequestsTotal, m.httpRequestDuration, m.authRejections)
	return m
}

func (m *Metrics) RegisterRealtime(stats RealtimeStats) {
	m.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Open WebSocket connections",
		}, func() float64 { return float64(stats.Connections()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ws_rooms",
			Help: "Chat rooms with at least one joined connection",
		}, func() float64 { return float64(stats.Rooms()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ws_messages_broadcast_total",
			Help: "Messages broadcast to chat rooms",
		}, func() float64 { return float64(stats.MessagesBroadcast()) }),
	)
}

func (m *Metrics) AuthRejected(reason string) {
	if m == nil {
		return
	}
	m.authRejections.WithLabelValues(reason).Inc()
}

// Monitor records request counts and latency labelled by the mux route
// template, so ids in paths do not explode the label set.
func (m *Metrics) Monitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats := httpsnoop.CaptureMetrics(next, w, r)

		route := routeTemplate(r)
		m.httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(stats.Code)).Inc()
		m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(stats.Duration.Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
