package metricsvc

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest(http.MethodGet, "/api/classes", http.StatusOK, 10*time.Millisecond)
	c.RecordRequest(http.MethodGet, "/api/classes", http.StatusOK, 20*time.Millisecond)
	c.RecordAuthRejection("expired")
	c.RecordLogin("password", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues(http.MethodGet, "/api/classes", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authRejections.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues("password", "failure")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `classroom_auth_rejections_total{reason="expired"} 1`)
}
