package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "polls"

type Metrics struct {
	VotesAccepted   prometheus.Counter
	VotesRejected   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LiveSubscribers prometheus.GaugeFunc

	gatherer prometheus.Gatherer
}

// New registers the application metrics on reg. liveSubscribers may be nil.
func New(reg *prometheus.Registry, liveSubscribers func() int) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		VotesAccepted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "votes",
				Name:      "accepted_total",
				Help:      "Total number of votes counted",
			},
		),
		VotesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "votes",
				Name:      "rejected_total",
				Help:      "Total number of vote submissions refused",
			},
			[]string{"reason"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Histogram of HTTP request durations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		gatherer: reg,
	}

	if liveSubscribers != nil {
		m.LiveSubscribers = factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "live",
				Name:      "subscribers",
				Help:      "Number of open live results connections",
			},
			func() float64 { return float64(liveSubscribers()) },
		)
	}

	return m
}

func (m *Metrics) VoteAccepted() {
	m.VotesAccepted.Inc()
}

func (m *Metrics) VoteRejected(reason string) {
	m.VotesRejected.WithLabelValues(reason).Inc()
}

// Middleware records request durations labelled by chi route pattern, so
// ids in the path do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
