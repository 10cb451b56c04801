package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func corsEngine(cfg CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/api/v1/results", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/results", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_Preflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://dash.example.org"}

	w := corsRequest(corsEngine(cfg), http.MethodOptions, "https://dash.example.org")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, HEAD, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://dash.example.org"}

	w := corsRequest(corsEngine(cfg), http.MethodGet, "https://DASH.example.org")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://DASH.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://dash.example.org"}

	w := corsRequest(corsEngine(cfg), http.MethodGet, "https://evil.example.net")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	w := corsRequest(corsEngine(DefaultCORSConfig()), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcards(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"*"}
		w := corsRequest(corsEngine(cfg), http.MethodGet, "https://anything.io")
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("any origin with credentials echoes origin", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"*"}
		cfg.AllowCredentials = true
		w := corsRequest(corsEngine(cfg), http.MethodGet, "https://anything.io")
		assert.Equal(t, "https://anything.io", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("subdomain pattern", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"*.lab.org"}
		cfg.AllowWildcard = true
		r := corsEngine(cfg)
		assert.Equal(t, "https://x.lab.org", corsRequest(r, http.MethodGet, "https://x.lab.org").Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, corsRequest(r, http.MethodGet, "https://lab.org.evil").Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Empty(t, cfg.AllowedOrigins)
	assert.NotContains(t, cfg.AllowedMethods, http.MethodPost)
	assert.False(t, cfg.AllowCredentials)
}

//Personal.AI order the ending
