package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
)

func newRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(New(config.CORSConfig{AllowedOrigins: origins}))
	router.GET("/cases", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSKnownOrigin(t *testing.T) {
	router := newRouter("https://monitor.example.gov.uk/")

	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	req.Header.Set("Origin", "https://monitor.example.gov.uk")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://monitor.example.gov.uk", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "ETag")
}

func TestCORSUnknownOrigin(t *testing.T) {
	router := newRouter("https://monitor.example.gov.uk")

	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/cases", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflightAnyOrigin(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodOptions, "/cases", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://elsewhere.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "If-Match")
}
