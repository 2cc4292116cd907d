// Package metrics exposes Prometheus metrics for the HTTP surface and the
// attendance flows. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

const namespace = "presensi"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	checkIns     *prometheus.CounterVec
	checkOuts    *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		checkOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Check-out attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.checkIns,
		m.checkOuts,
		m.logins,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method string, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CheckIn(err error) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) CheckOut(err error) {
	if m == nil {
		return
	}
	m.checkOuts.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) Login(err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(Outcome(err)).Inc()
}

// Outcome turns an operation result into a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, model.ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, model.ErrNoOpenSession):
		return "no_open_session"
	case errors.Is(err, model.ErrUserNotFound):
		return "unknown_user"
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case apierror.CodeAlreadyCheckedIn:
			return "already_checked_in"
		case apierror.CodeNoOpenSession:
			return "no_open_session"
		case apierror.CodeInvalidCredentials:
			return "invalid_credentials"
		case apierror.CodeNotFound:
			return "unknown_user"
		}
		if apiErr.HTTPStatus >= 400 && apiErr.HTTPStatus < 500 {
			return "rejected"
		}
	}

	return OutcomeError
}
