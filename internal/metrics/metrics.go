package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the storefront collectors on a private registry so that
// several apps (tests) can coexist in one process. A nil *Metrics is a no-op.
type Metrics struct {
	reg          *prometheus.Registry
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	Checkouts    *prometheus.CounterVec
	Reservations *prometheus.CounterVec
}

func New() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supermart",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "supermart",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supermart",
		Name:      "checkouts_total",
		Help:      "Checkout attempts by payment method and outcome.",
	}, []string{"method", "outcome"})
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supermart",
		Name:      "stock_reservations_total",
		Help:      "Stock reservation decisions.",
	}, []string{"outcome"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(requests, latency, checkouts, reservations)
	return &Metrics{reg: reg, Requests: requests, LatencyMS: latency, Checkouts: checkouts, Reservations: reservations}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Middleware records one request sample per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

func (m *Metrics) Checkout(method, outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) Reservation(outcome string) {
	if m == nil {
		return
	}
	m.Reservations.WithLabelValues(outcome).Inc()
}
