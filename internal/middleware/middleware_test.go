package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIdempotentRouter(t *testing.T, calls *int, status int) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(IdempotencyMiddleware(client, nil))
	r.POST("/v1/bookings", func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	r.POST("/booking", func(c *gin.Context) {
		*calls++
		c.Redirect(http.StatusSeeOther, "/order/abc")
	})
	return r
}

func post(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(t, &calls, http.StatusCreated)

	first := post(r, "/v1/bookings", "k1")
	second := post(r, "/v1/bookings", "k1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
}

func TestIdempotency_ReplaysRedirect(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(t, &calls, http.StatusCreated)

	post(r, "/booking", "form-1")
	second := post(r, "/booking", "form-1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusSeeOther, second.Code)
	assert.Equal(t, "/order/abc", second.Header().Get("Location"))
}

func TestIdempotency_KeysAreScopedByPath(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(t, &calls, http.StatusCreated)

	post(r, "/v1/bookings", "same")
	post(r, "/booking", "same")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_WithoutKeyOrOnServerError(t *testing.T) {
	calls := 0
	r := newIdempotentRouter(t, &calls, http.StatusInternalServerError)

	post(r, "/v1/bookings", "")
	post(r, "/v1/bookings", "")
	assert.Equal(t, 2, calls, "requests without a key are never replayed")

	post(r, "/v1/bookings", "k2")
	post(r, "/v1/bookings", "k2")
	assert.Equal(t, 4, calls, "5xx responses are not cached")
}

func TestIdempotency_RedisDownPassesThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	calls := 0
	r := gin.New()
	r.Use(IdempotencyMiddleware(client, nil))
	r.POST("/v1/bookings", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	w := post(r, "/v1/bookings", "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}

type recordingObserver struct {
	route  string
	status int
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, seconds float64) {
	o.route, o.status = route, status
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(RequestLogger(nil, obs))
	var seen string
	r.GET("/v1/cars/:id", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/cars/7", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(requestIDHeader))
	assert.Equal(t, "/v1/cars/:id", obs.route)
	assert.Equal(t, http.StatusNoContent, obs.status)

	req := httptest.NewRequest(http.MethodGet, "/v1/cars/7", nil)
	req.Header.Set(requestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", seen)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2)
	l.now = func() time.Time { return now }

	r := gin.New()
	r.Use(l.Middleware(nil))
	r.GET("/v1/cars", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/cars", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"), "limits are per client")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, do("10.0.0.1"), "a token refills every 30s")
}
