package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func hit(r *gin.Engine, key string) int {
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIngestRateLimitPerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ingest", IngestRateLimit(2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if code := hit(r, "key-a"); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := hit(r, "key-a"); code != http.StatusOK {
		t.Fatalf("second request = %d", code)
	}
	if code := hit(r, "key-a"); code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", code)
	}

	// A different key has its own budget.
	if code := hit(r, "key-b"); code != http.StatusOK {
		t.Errorf("other key throttled: %d", code)
	}
}
