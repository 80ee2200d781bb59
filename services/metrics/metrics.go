// Package metricsvc exposes the application metrics to prometheus.
package metricsvc

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/moringapair/backend/core/pairing"
)

const namespace = "moringapair"

type Metrics struct {
	Generations        prometheus.Counter
	GenerationFailures *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	HistoryResets      prometheus.Counter
	PairsCreated       prometheus.Counter
	CurrentWeek        prometheus.Gauge
	AssignmentScore    prometheus.Gauge

	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

var _ pairing.Metrics = (*Metrics)(nil)

// New registers the metrics with reg. nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Generations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_generations_total",
			Help:      "Total number of weekly pairings generated",
		}),
		GenerationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_generation_failures_total",
			Help:      "Total number of failed pairing generations by reason",
		}, []string{"reason"}),
		GenerationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pairing_generation_duration_seconds",
			Help:      "Pairing generation latency in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		HistoryResets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_history_resets_total",
			Help:      "Total number of pairing history resets",
		}),
		PairsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_pairs_created_total",
			Help:      "Total number of pairs persisted",
		}),
		CurrentWeek: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pairing_current_week",
			Help:      "Week number of the last generated pairing",
		}),
		AssignmentScore: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pairing_assignment_score",
			Help:      "Total score of the last generated pairing",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method & status",
		}, []string{"route", "method", "status"}),
		HTTPRequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) ObserveGeneration(res pairing.Result, took time.Duration) {
	m.Generations.Inc()
	m.GenerationDuration.Observe(took.Seconds())
	m.PairsCreated.Add(float64(len(res.Matches)))
	m.CurrentWeek.Set(float64(res.Week))
	m.AssignmentScore.Set(res.Score)
	if res.HistoryReset {
		m.HistoryResets.Inc()
	}
}

func (m *Metrics) ObserveFailure(reason string) {
	m.GenerationFailures.WithLabelValues(reason).Inc()
}

// Middleware records the requests by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			m.HTTPRequestLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
