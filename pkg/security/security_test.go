package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	r := newEngine(l.Middleware())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", codes[2])
	}
}

func TestRateLimiterSweepDropsStaleVisitors(t *testing.T) {
	l := NewLimiter(10, time.Second)
	l.get("1.1.1.1")
	l.sweep(time.Now().Add(2 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.visitors) != 0 {
		t.Fatalf("expected stale visitor to be removed, have %d", len(l.visitors))
	}
}

func TestRateLimiterSetRateAppliesToKnownVisitors(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	r := newEngine(l.Middleware())

	hit := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := hit(); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := hit(); code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", code)
	}

	// 新速率下令牌按 100/s 补充
	l.SetRate(100, time.Second)
	time.Sleep(50 * time.Millisecond)
	if code := hit(); code != http.StatusOK {
		t.Fatalf("after raising the limit = %d, want 200", code)
	}
}

func TestCORSAllowList(t *testing.T) {
	r := newEngine(CORS([]string{"http://localhost:3000"}))

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:3000", "http://localhost:3000"},
		{"http://evil.example", ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", tt.origin)
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: allow-origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS(nil))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
}
