package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := New()

	m.ObserveHTTP(http.MethodPost, "/api/v1/presensi/check-in", http.StatusCreated, 20*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	m.CheckIn(nil)
	m.CheckIn(model.ErrAlreadyCheckedIn)
	m.CheckOut(model.ErrNoOpenSession)
	m.Login(apierror.InvalidCredentials())

	out := scrape(t, m)
	assert.Contains(t, out, `presensi_http_requests_total{method="POST",route="/api/v1/presensi/check-in",status="201"} 1`)
	assert.Contains(t, out, `route="unmatched"`)
	assert.Contains(t, out, `presensi_checkins_total{outcome="success"} 1`)
	assert.Contains(t, out, `presensi_checkins_total{outcome="already_checked_in"} 1`)
	assert.Contains(t, out, `presensi_checkouts_total{outcome="no_open_session"} 1`)
	assert.Contains(t, out, `presensi_logins_total{outcome="invalid_credentials"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.CheckIn(nil)
		m.CheckOut(nil)
		m.Login(nil)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, "unknown_user", Outcome(apierror.NotFound("user not found", "")))
	assert.Equal(t, "rejected", Outcome(apierror.Validation("bad", "")))
	assert.Equal(t, OutcomeError, Outcome(errors.New("db down")))
}
