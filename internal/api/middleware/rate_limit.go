package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"course-planner/pkg/errcode"
	"course-planner/pkg/response"
)

// RateLimiter 窗口限流后端，由 pkg/redis.Client 实现
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// localLimiter 进程内令牌桶，按 key 分桶；Redis 不可用时使用
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.buckets[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// limiter 为 nil 或 Redis 出错时降级为进程内令牌桶
func RateLimit(limiter RateLimiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	local := newLocalLimiter(limit, window)

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())

		allowed := true
		if limiter != nil {
			ok, err := limiter.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err != nil {
				logger.Warn("Redis 限流失败，降级为本地限流", zap.Error(err))
				allowed = local.allow(key)
			} else {
				allowed = ok
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			response.TooManyRequests(c, errcode.TooManyRequests, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
