package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/anoixa/folio/api/common"
)

// CodeServerBusy 并发已满时返回的错误码
const CodeServerBusy = "server_busy"

// ConcurrencyLimiter 限制同时处理的请求数
type ConcurrencyLimiter struct {
	sem        *semaphore.Weighted
	retryAfter time.Duration
}

// NewConcurrencyLimiter 并发限制器，<=0 时使用 100
func NewConcurrencyLimiter(maxConcurrency int64) *ConcurrencyLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = 100
	}
	return &ConcurrencyLimiter{
		sem:        semaphore.NewWeighted(maxConcurrency),
		retryAfter: time.Second,
	}
}

// Middleware 并发已满时立即返回 503
func (cl *ConcurrencyLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.sem.TryAcquire(1) {
			cl.reject(c, "Server is busy, please try again later")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

// MiddlewareWithBlock 排队等待至多 timeout，用于上传这类耗时请求
func (cl *ConcurrencyLimiter) MiddlewareWithBlock(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := cl.sem.Acquire(ctx, 1); err != nil {
			cl.reject(c, "Request timed out waiting for server resources")
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

func (cl *ConcurrencyLimiter) reject(c *gin.Context, msg string) {
	c.Header("Retry-After", strconv.Itoa(int(cl.retryAfter/time.Second)))
	common.RespondErrorCode(c, http.StatusServiceUnavailable, CodeServerBusy, msg)
	c.Abort()
}
