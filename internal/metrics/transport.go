// Package metrics exposes Prometheus instruments for calls to the FNE API.
package metrics

import (
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fne_client"

// invoiceIDSegment matches the document id of per-invoice routes
var invoiceIDSegment = regexp.MustCompile(`/invoices/[^/]+/refund$`)

// Route turns an endpoint into a bounded label value
func Route(endpoint string) string {
	return invoiceIDSegment.ReplaceAllString(endpoint, "/invoices/{id}/refund")
}

// Outcome labels for finished requests
const (
	OutcomeSuccess      = "success"
	OutcomeClientError  = "client_error"
	OutcomeServerError  = "server_error"
	OutcomeNetworkError = "network_error"
)

// Transport records request attempts, retries and outcomes per endpoint.
// A nil *Transport is valid and records nothing.
type Transport struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	requests *prometheus.CounterVec
	status   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewTransport creates the instruments and registers them on registerer,
// or on the default registerer when nil.
func NewTransport(registerer prometheus.Registerer) (*Transport, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Transport{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "HTTP attempts sent to the FNE API, including retries.",
		}, []string{"endpoint"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Attempts repeated after a connection failure.",
		}, []string{"endpoint"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Finished FNE API requests by outcome.",
		}, []string{"endpoint", "outcome"}),
		status: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "FNE API responses by HTTP status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of FNE API requests, retries and backoff included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.retries, m.requests, m.status, m.duration} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNewTransport is NewTransport that panics on registration errors
func MustNewTransport(registerer prometheus.Registerer) *Transport {
	m, err := NewTransport(registerer)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Transport) Attempt(endpoint string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(Route(endpoint)).Inc()
}

func (m *Transport) Retry(endpoint string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(Route(endpoint)).Inc()
}

// Response records a request that received an HTTP answer
func (m *Transport) Response(endpoint string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route := Route(endpoint)
	m.status.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.requests.WithLabelValues(route, OutcomeForStatus(statusCode)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// NetworkFailure records a request that never got an answer
func (m *Transport) NetworkFailure(endpoint string, elapsed time.Duration) {
	if m == nil {
		return
	}
	route := Route(endpoint)
	m.requests.WithLabelValues(route, OutcomeNetworkError).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// OutcomeForStatus maps a status code to its outcome label
func OutcomeForStatus(statusCode int) string {
	switch {
	case statusCode >= 500:
		return OutcomeServerError
	case statusCode >= 400:
		return OutcomeClientError
	default:
		return OutcomeSuccess
	}
}
