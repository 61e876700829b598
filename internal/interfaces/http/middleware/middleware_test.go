package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, http.MethodGet, "/x", http.Header{RequestIDHeader: {"req-42"}})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", w.Body.String())

	w = serve(r, http.MethodGet, "/x", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
}

func TestRequestLogging_Levels(t *testing.T) {
	log := testutil.NewMockLogger()
	r := gin.New()
	r.Use(RequestID(), RequestLogging(log, DefaultLoggingConfig()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/missing", nil)
	serve(r, http.MethodGet, "/boom", nil)
	serve(r, http.MethodGet, "/healthz", nil)

	assert.True(t, log.HasMessage("info", "HTTP request completed"))
	assert.True(t, log.HasMessage("warn", "HTTP request completed with client error"))
	assert.True(t, log.HasMessage("error", "HTTP request completed with server error"))
	assert.Len(t, log.GetMessages(), 3, "health paths are skipped")
}

func TestRecovery(t *testing.T) {
	log := testutil.NewMockLogger()
	r := gin.New()
	r.Use(RequestID(), Recovery(log))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.True(t, log.HasMessage("error", "Panic recovered"))
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://dash.example.com"}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	pre := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"https://dash.example.com"}})
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "https://dash.example.com", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	ok := serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://dash.example.com"}})
	assert.Equal(t, RequestIDHeader, ok.Header().Get("Access-Control-Expose-Headers"))

	other := serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Equal(t, http.StatusOK, other.Code)
	assert.Empty(t, other.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "fs"}, nil)
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	serve(r, http.MethodGet, "/items/1", nil)
	serve(r, http.MethodGet, "/items/2", nil)

	scrape := httptest.NewRecorder()
	collector.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	assert.Contains(t, body, `fs_http_requests_total{method="GET",path="/items/:id",status_code="200"} 2`)
	assert.NotContains(t, body, `path="/items/1"`)
}

func TestMetrics_NilIsPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	assert.Equal(t, http.StatusAccepted, serve(r, http.MethodGet, "/x", nil).Code)
}

//Personal.AI order the ending
