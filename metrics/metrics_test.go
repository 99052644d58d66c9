package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveSignIn(OutcomeSuccess)
	m.ObserveSignIn(OutcomeSuccess)
	m.ObserveSignIn(OutcomeInvalidSignature)
	m.ObserveAddressCheck(CheckTimeout)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.signIns.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signIns.WithLabelValues(OutcomeInvalidSignature)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.addressChecks.WithLabelValues(CheckTimeout)))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRace(true, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/sign-in", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "snappa_auth_verification_duration_seconds"))
	assert.True(t, strings.Contains(body, `snappa_http_requests_total{method="POST",path="/api/sign-in",status="200"} 1`))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSignIn(OutcomeSuccess)
		m.ObserveRace(false, time.Second)
		m.ObserveAddressCheck(CheckError)
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	})
	assert.Nil(t, m.Registry())
}
