package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllowsUpToLimitThenBlocks(t *testing.T) {
	rl := &RateLimiter{
		requests: make(map[string]*ClientInfo),
		limit:    3,
		window:   time.Minute,
	}

	for i := 0; i < 3; i++ {
		if !rl.allowRequest("client-a") {
			t.Fatalf("request %d unexpectedly blocked", i+1)
		}
	}
	if rl.allowRequest("client-a") {
		t.Errorf("request beyond the limit was unexpectedly allowed")
	}
}

func TestRateLimiterSlidesWindow(t *testing.T) {
	rl := &RateLimiter{
		requests: make(map[string]*ClientInfo),
		limit:    1,
		window:   5 * time.Millisecond,
	}

	if !rl.allowRequest("client-a") {
		t.Fatalf("first request unexpectedly blocked")
	}
	if rl.allowRequest("client-a") {
		t.Fatalf("second immediate request unexpectedly allowed")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.allowRequest("client-a") {
		t.Errorf("request after the window elapsed was unexpectedly blocked")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := &RateLimiter{
		requests: make(map[string]*ClientInfo),
		limit:    1,
		window:   time.Minute,
	}

	if !rl.allowRequest("client-a") {
		t.Fatalf("client-a's first request unexpectedly blocked")
	}
	if !rl.allowRequest("client-b") {
		t.Errorf("client-b was blocked by client-a's quota")
	}
}

func TestValidateContentTypeRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ValidateContentType())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestValidateContentTypeAcceptsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ValidateContentType())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestValidateContentTypeRejectsUnsupportedMediaType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ValidateContentType())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnsupportedMediaType)
	}
}

func TestIPWhitelistBlocksUnlistedIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(IPWhitelist([]string{"10.0.0.1"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestIPWhitelistAllowsListedIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(IPWhitelist([]string{"10.0.0.1"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestIPWhitelistEmptyAllowsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(IPWhitelist(nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
