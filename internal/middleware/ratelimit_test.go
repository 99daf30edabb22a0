package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIPLimiter_CapsPerClient(t *testing.T) {
	l := newIPLimiter(2, time.Minute)

	if !l.allow("10.0.0.1") || !l.allow("10.0.0.1") {
		t.Fatal("requests under the cap must pass")
	}
	if l.allow("10.0.0.1") {
		t.Error("request over the cap must be rejected")
	}
	if !l.allow("10.0.0.2") {
		t.Error("other clients have their own budget")
	}
}

func TestIPLimiter_WindowSlides(t *testing.T) {
	l := newIPLimiter(1, 20*time.Millisecond)

	if !l.allow("10.0.0.1") {
		t.Fatal("first request must pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("second request inside the window must be rejected")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.allow("10.0.0.1") {
		t.Error("request after the window expires must pass")
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(1, time.Minute))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: want 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request: want 429, got %d", second.Code)
	}
}
