package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"playaway/internal/ratelimit"
)

type stubStore struct {
	count int64
	err   error
}

func (s *stubStore) Incr(_ context.Context, _ string, _ time.Duration) (int64, time.Duration, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	s.count++
	return s.count, 30 * time.Second, nil
}

func newRateLimitedRouter(store ratelimit.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewLimiter(store, map[ratelimit.Bucket]ratelimit.Limit{
		ratelimit.BucketAuth: {MaxRequests: 2, Window: time.Minute},
	})

	engine := gin.New()
	engine.POST("/login", RateLimit(limiter, ratelimit.BucketAuth, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doPost(engine *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:55000"
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitDeniesOverLimit(t *testing.T) {
	engine := newRateLimitedRouter(&stubStore{})

	assert.Equal(t, http.StatusOK, doPost(engine).Code)
	assert.Equal(t, http.StatusOK, doPost(engine).Code)

	rec := doPost(engine)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	engine := newRateLimitedRouter(&stubStore{err: errors.New("redis down")})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doPost(engine).Code)
	}
}

func TestRateLimitNilLimiterPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/login", RateLimit(nil, ratelimit.BucketAuth, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doPost(engine).Code)
	}
}
