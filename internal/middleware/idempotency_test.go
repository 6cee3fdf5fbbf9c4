package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupIdempotencyTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestIdempotency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("replays stored response", func(t *testing.T) {
		mr, rdb := setupIdempotencyTest(t)
		calls := 0

		r := gin.New()
		r.POST("/leave-requests", func(c *gin.Context) {
			c.Set("user_id", int64(5))
			c.Next()
		}, Idempotency(rdb, zap.NewNop()), func(c *gin.Context) {
			calls++
			c.JSON(http.StatusCreated, gin.H{"ok": true, "data": gin.H{"id": "abc"}})
		})

		send := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/leave-requests", strings.NewReader(`{}`))
			req.Header.Set(IdempotencyHeader, "key-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			return w
		}

		first := send()
		second := send()

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
		assert.False(t, mr.Exists("idemp:/leave-requests:5:key-1:lock"))
	})

	t.Run("does not store failures", func(t *testing.T) {
		mr, rdb := setupIdempotencyTest(t)
		calls := 0

		r := gin.New()
		r.POST("/leave-requests", Idempotency(rdb, zap.NewNop()), func(c *gin.Context) {
			calls++
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false})
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/leave-requests", nil)
			req.Header.Set(IdempotencyHeader, "key-2")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		}

		assert.Equal(t, 2, calls)
		assert.False(t, mr.Exists("idemp:/leave-requests:0:key-2"))
	})

	t.Run("concurrent duplicate is rejected", func(t *testing.T) {
		mr, rdb := setupIdempotencyTest(t)
		assert.NoError(t, mr.Set("idemp:/leave-requests:0:key-3:lock", "locked"))

		r := gin.New()
		r.POST("/leave-requests", Idempotency(rdb, zap.NewNop()), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		req := httptest.NewRequest(http.MethodPost, "/leave-requests", nil)
		req.Header.Set(IdempotencyHeader, "key-3")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
	})

	t.Run("without key passes through", func(t *testing.T) {
		_, rdb := setupIdempotencyTest(t)
		calls := 0

		r := gin.New()
		r.POST("/leave-requests", Idempotency(rdb, zap.NewNop()), func(c *gin.Context) {
			calls++
			c.Status(http.StatusCreated)
		})

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leave-requests", nil))
		}
		assert.Equal(t, 2, calls)
	})
}
