// Package metrics declares the Prometheus collectors of the server and the
// helpers the transports and services use to update them.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	grpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC calls.",
		},
		[]string{"method", "code"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userauth_logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userauth_registrations_total",
			Help: "Registration attempts by result.",
		},
		[]string{"result"},
	)

	tokenValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userauth_token_validations_total",
			Help: "Token validity checks by result.",
		},
		[]string{"result"},
	)
)

var initOnce sync.Once

// Init registers the collectors in the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			grpcRequestsTotal,
			loginsTotal, registrationsTotal, tokenValidationsTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPStarted marks a request in flight and returns the function that
// records it once the status is known.
func HTTPStarted(method, path string) func(status int) {
	httpInFlight.Inc()
	start := time.Now()
	return func(status int) {
		code := strconv.Itoa(status)
		httpRequestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, code).Inc()
		httpInFlight.Dec()
	}
}

func GRPCHandled(method, code string) {
	grpcRequestsTotal.WithLabelValues(method, code).Inc()
}

func Login(result string)           { loginsTotal.WithLabelValues(result).Inc() }
func Registration(result string)    { registrationsTotal.WithLabelValues(result).Inc() }
func TokenValidation(result string) { tokenValidationsTotal.WithLabelValues(result).Inc() }

// BoolResult maps a validity check to ResultSuccess or ResultInvalid.
func BoolResult(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultInvalid
}
