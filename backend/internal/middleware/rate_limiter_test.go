package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func setupTestGin() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRateLimiter_Allow(t *testing.T) {
	router := setupTestGin()

	limiter := RateLimiter(rate.Limit(1), 1)
	router.Use(limiter)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req1, _ := http.NewRequest("GET", "/test", nil)
	req1.RemoteAddr = "127.0.0.1:12345"
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Errorf("Expected first request to succeed, got status %d", w1.Code)
	}

	req2, _ := http.NewRequest("GET", "/test", nil)
	req2.RemoteAddr = "127.0.0.1:12345"
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("Expected second request to be rate limited, got status %d", w2.Code)
	}
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	router := setupTestGin()

	limiter := RateLimiter(rate.Limit(1), 1)
	router.Use(limiter)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req1, _ := http.NewRequest("GET", "/test", nil)
	req1.RemoteAddr = "127.0.0.1:12345"
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	req2, _ := http.NewRequest("GET", "/test", nil)
	req2.RemoteAddr = "192.168.1.1:12345"
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w1.Code != http.StatusOK {
		t.Errorf("Expected first request to succeed, got status %d", w1.Code)
	}

	if w2.Code != http.StatusOK {
		t.Errorf("Expected second request from different IP to succeed, got status %d", w2.Code)
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return client, mr
}

func TestNewDistributedRateLimiter(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	limiter := NewDistributedRateLimiter(client)

	if limiter == nil {
		t.Fatal("Expected rate limiter to be created")
	}

	if limiter.redis != client {
		t.Error("Expected Redis client to be set")
	}

	if limiter.limits == nil {
		t.Error("Expected limits map to be initialized")
	}
}

func TestDistributedRateLimiter_EnforcesLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	limiter := NewDistributedRateLimiter(client)

	router := setupTestGin()
	router.Use(limiter.CreateMiddleware("login", &RateLimit{
		Rate:    2,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	}))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two requests to succeed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be rate limited, got %d", codes[2])
	}
}

func TestDistributedRateLimiter_WindowSlides(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	limiter := NewDistributedRateLimiter(client)

	router := setupTestGin()
	router.Use(limiter.CreateMiddleware("login", &RateLimit{
		Rate:    1,
		Window:  time.Second,
		KeyFunc: IPKeyFunc,
	}))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	do := func() int {
		req, _ := http.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("Expected first request to succeed, got %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("Expected second request to be limited, got %d", code)
	}

	// miniredis expires the window key on fast-forward.
	mr.FastForward(2 * time.Second)

	if code := do(); code != http.StatusOK {
		t.Errorf("Expected request after window to succeed, got %d", code)
	}
}

func TestDistributedRateLimiter_FailsOpen(t *testing.T) {
	client, mr := setupTestRedis(t)

	limiter := NewDistributedRateLimiter(client)

	router := setupTestGin()
	router.Use(limiter.CreateMiddleware("login", &RateLimit{
		Rate:    1,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	}))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	mr.Close()

	req, _ := http.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected request to pass when redis is down, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Error") != "true" {
		t.Error("Expected X-RateLimit-Error header when redis is down")
	}
}

func TestUserKeyFunc(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"

	// Falls back to the client IP when no identity is set.
	if key := UserKeyFunc(c); key != c.ClientIP() {
		t.Errorf("key = %q, want client IP %q", key, c.ClientIP())
	}

	c.Set("user_id", "abc-123")
	if key := UserKeyFunc(c); key != "user:abc-123" {
		t.Errorf("key = %q, want user:abc-123", key)
	}
}
