package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordExtraction("trip", "ok")
	m.RecordExtraction("trip", "ok")
	m.RecordExtraction("receipt", "failed")
	m.RecordAutosaveTransition("UNSAVED", "SAVING")
	m.RecordAutosaveWrite(nil)
	m.RecordAutosaveWrite(errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.extractions.WithLabelValues("trip", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractions.WithLabelValues("receipt", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autosaveTransitions.WithLabelValues("UNSAVED", "SAVING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autosaveWrites.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autosaveWrites.WithLabelValues("error")))
}

func TestMetrics_GinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/health", "200")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "portal_http_requests_total"))
}
