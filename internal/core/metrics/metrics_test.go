package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveExtraction(t *testing.T) {
	m := New()

	m.ObserveExtraction("probe", nil, 2*time.Second)
	m.ObserveExtraction("probe", errors.New("boom"), time.Second)
	m.ObserveExtraction("fetch", nil, time.Minute)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractionsTotal.WithLabelValues("probe", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractionsTotal.WithLabelValues("probe", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractionsTotal.WithLabelValues("fetch", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.extractionDuration))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("POST", "/formats", "200")
	m.ObserveRequest("POST", "/formats", "200")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/formats", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveExtraction("probe", nil, time.Second)
		m.ObserveRequest("GET", "/", "200")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveExtraction("fetch", nil, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `vgrab_extractions_total{op="fetch",status="success"} 1`)
}
