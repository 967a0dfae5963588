package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-payroll/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func idempotencyRouter(rdb *redis.Client, handled *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "user-1") })
	r.Use(middleware.Idempotency(rdb))
	r.POST("/payroll-runs", func(c *gin.Context) {
		*handled = true
		c.JSON(http.StatusCreated, gin.H{"id": "run-1"})
	})
	return r
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("idemp:/payroll-runs:user-1:key-123").SetVal(`{"id":"run-1"}`)

	handled := false
	router := idempotencyRouter(rdb, &handled)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll-runs", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run-1"`)
	assert.False(t, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_FirstRequestAcquiresLockAndProceeds(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("idemp:/payroll-runs:user-1:key-123").RedisNil()
	mock.ExpectSetNX("idemp:/payroll-runs:user-1:key-123:lock", "locked", 30*time.Second).SetVal(true)

	handled := false
	router := idempotencyRouter(rdb, &handled)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll-runs", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ConcurrentDuplicateConflicts(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("idemp:/payroll-runs:user-1:key-123").RedisNil()
	mock.ExpectSetNX("idemp:/payroll-runs:user-1:key-123:lock", "locked", 30*time.Second).SetVal(false)

	handled := false
	router := idempotencyRouter(rdb, &handled)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll-runs", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PROCESSING")
	assert.False(t, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	handled := false
	router := idempotencyRouter(rdb, &handled)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payroll-runs", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}
