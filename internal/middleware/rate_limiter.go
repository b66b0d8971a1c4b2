package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ==================== KeyedLimiter 按 key 限流 ====================

// KeyedLimiter 每个 key 一个令牌桶
// 用于防止同一向导会话被重复提交
type KeyedLimiter struct {
	limiters sync.Map // key -> *rate.Limiter
	interval time.Duration
	burst    int
}

// NewKeyedLimiter interval 内最多 burst 次
func NewKeyedLimiter(interval time.Duration, burst int) *KeyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{interval: interval, burst: burst}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 消耗一个令牌
func (l *KeyedLimiter) Check(key string) CheckResult {
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(rate.Every(l.interval), l.burst))
	limiter := actual.(*rate.Limiter)

	r := limiter.Reserve()
	if !r.OK() {
		return CheckResult{Allowed: false, RetryAfter: l.interval}
	}
	if delay := r.Delay(); delay > 0 {
		// 不等待，直接归还令牌
		r.Cancel()
		return CheckResult{Allowed: false, RetryAfter: delay}
	}
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key
func (l *KeyedLimiter) Reset(key string) {
	l.limiters.Delete(key)
}

// ==================== 限流中间件 ====================

// SubmitRateLimit 按路由参数 :id 限流
//
// 使用示例:
//
//	sessions.POST("/:id/submit", middleware.SubmitRateLimit(limiter), ctl.Submit)
func SubmitRateLimit(limiter *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", GetSessionID(c), c.Param("id"))

		result := limiter.Check(key)
		if !result.Allowed {
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("提交过于频繁，请 %d 秒后重试", seconds),
				"data": gin.H{
					"retry_after": seconds,
				},
			})
			return
		}

		c.Next()
	}
}
