package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func hit(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestLimitBlocksExcessRequests(t *testing.T) {
	rl := NewRateLimiter()
	r := gin.New()
	r.GET("/x", rl.Limit("test", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := hit(r, "/x")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := hit(r, "/x")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := hit(r, "/x")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "0", third.Header().Get("X-RateLimit-Remaining"))
}

func TestLimitWindowResets(t *testing.T) {
	rl := NewRateLimiter()
	r := gin.New()
	r.GET("/x", rl.Limit("test", 1, 50*time.Millisecond), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, hit(r, "/x").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/x").Code)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(r, "/x").Code)
}

func TestLimitBucketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter()
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/a", rl.Limit("a", 1, time.Minute), ok)
	r.GET("/b", rl.Limit("b", 1, time.Minute), ok)

	assert.Equal(t, http.StatusOK, hit(r, "/a").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/a").Code)

	// Exhausting bucket "a" leaves bucket "b" untouched.
	assert.Equal(t, http.StatusOK, hit(r, "/b").Code)
}

func TestStrictLimiterBurst(t *testing.T) {
	r := gin.New()
	r.GET("/x", NewStrictLimiter(rate.Every(time.Hour), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, hit(r, "/x").Code)
	assert.Equal(t, http.StatusOK, hit(r, "/x").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/x").Code)
}
