package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shortlink-service/internal/config"
	auth "shortlink-service/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "shortlink-service", time.Hour)
	r := gin.New()
	r.GET("/admin", AuthMiddleware(tokens), AdminMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("username"))
	})

	w := perform(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)

	w = perform(r, http.MethodGet, "/admin", http.Header{"Authorization": {"Token abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/admin", http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	userToken, err := tokens.GenerateToken(2, "bob", "user")
	require.NoError(t, err)
	w = perform(r, http.MethodGet, "/admin", http.Header{"Authorization": {"Bearer " + userToken}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FORBIDDEN"`)

	adminToken, err := tokens.GenerateToken(1, "admin", "admin")
	require.NoError(t, err)
	w = perform(r, http.MethodGet, "/admin", http.Header{"Authorization": {"Bearer " + adminToken}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestRateLimit_PerIP(t *testing.T) {
	limiter := NewIPRateLimiter(&config.Limit{Enabled: true, Requests: 1, Burst: 2, SkipPaths: []string{"/health"}})
	r := gin.New()
	r.Use(limiter.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	a := http.Header{"X-Forwarded-For": {"1.1.1.1"}}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", a).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", a).Code)
	w := perform(r, http.MethodGet, "/x", a)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)

	// 其他 IP 不受影响
	b := http.Header{"X-Forwarded-For": {"2.2.2.2"}}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", b).Code)

	// 跳过的路径不计数
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/health", a).Code)
	}
}

func TestRateLimit_SkipPathsMatchWholeSegments(t *testing.T) {
	limiter := NewIPRateLimiter(&config.Limit{Enabled: true, Requests: 1, Burst: 1, SkipPaths: []string{"/health", "/swagger/"}})
	r := gin.New()
	r.Use(limiter.RateLimit())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/swagger/*any", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	a := http.Header{"X-Forwarded-For": {"3.3.3.3"}}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/health", a).Code)
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/swagger/index.html", a).Code)
	}

	// 以跳过路径开头的短码仍然要限流
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/healthy1", a).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/healthy1", a).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := NewIPRateLimiter(&config.Limit{Enabled: false, Requests: 1, Burst: 1})
	r := gin.New()
	r.Use(limiter.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)
	}
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	limiter := NewIPRateLimiter(&config.Limit{Enabled: true, Requests: 1, Burst: 1, IdleTTL: 60})
	limiter.Allow("1.1.1.1")
	limiter.Allow("2.2.2.2")

	assert.Zero(t, limiter.Cleanup(time.Now()))
	assert.Equal(t, 2, limiter.Cleanup(time.Now().Add(2*time.Minute)))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := perform(r, http.MethodGet, "/x", nil)
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	w = perform(r, http.MethodGet, "/x", http.Header{RequestIDHeader: {"given-id"}})
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))
}

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(50 * time.Millisecond))
	r.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		<-c.Request.Context().Done()
		assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		c.Status(http.StatusGatewayTimeout)
	})

	assert.Equal(t, http.StatusGatewayTimeout, perform(r, http.MethodGet, "/x", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(GinZapLogger(zap.NewNop()), GinZapRecovery(zap.NewNop(), true), Metrics())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.POST("/shortUrl/post", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := perform(r, http.MethodOptions, "/shortUrl/post", http.Header{
		"Origin":                        {"http://localhost:3000"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodPost, "/shortUrl/post", http.Header{"Origin": {"http://evil.example"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
