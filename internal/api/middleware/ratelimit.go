package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
	"github.com/Haiikyu/reveelbox-sub005/pkg/ratelimit"
)

// DefaultKeyFunc 인증된 사용자는 userId, 아니면 IP 기준
func DefaultKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimit 인메모리 Token Bucket 기반 Rate Limit (단일 인스턴스용)
func RateLimit(limiter *ratelimit.RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		if !limiter.Allow(keyFunc(c)) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RedisRateLimit Redis 기반 분산 Rate Limit (멀티 인스턴스용)
// Redis 장애 시에는 요청을 막지 않는다
func RedisRateLimit(limiter *ratelimit.RedisRateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), keyFunc(c), limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
