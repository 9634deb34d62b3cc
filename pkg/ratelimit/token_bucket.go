package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TokenBucket 令牌桶限流器
type TokenBucket struct {
	rate           float64       // 每秒生成的令牌数
	capacity       float64       // 桶的容量
	tokens         float64       // 当前令牌数
	lastRefillTime time.Time     // 上次填充令牌的时间
	mutex          sync.Mutex
	retryWaitTime  time.Duration // 重试等待时间
	maxRetries     int           // 最大重试次数
}

// NewTokenBucket 创建令牌桶。qpm为每分钟请求数, capacity<=0时取qpm的一半
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}

	return &TokenBucket{
		rate:           float64(qpm) / 60.0,
		capacity:       float64(capacity),
		tokens:         float64(capacity), // 初始填满
		lastRefillTime: time.Now(),
		retryWaitTime:  1 * time.Second,
		maxRetries:     3,
	}
}

// WithRetryPolicy 设置重试策略
func (tb *TokenBucket) WithRetryPolicy(waitTime time.Duration, maxRetries int) *TokenBucket {
	tb.retryWaitTime = waitTime
	tb.maxRetries = maxRetries
	return tb
}

// refill 按经过的时间补充令牌。调用方必须持有锁
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now

	newTokens := elapsed * tb.rate
	if tb.tokens+newTokens > tb.capacity {
		tb.tokens = tb.capacity
	} else {
		tb.tokens += newTokens
	}
}

// Allow 非阻塞地尝试消耗一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Wait 阻塞直到拿到令牌或上下文取消
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mutex.Lock()
		tb.refill()

		if tb.tokens >= 1.0 {
			tb.tokens -= 1.0
			tb.mutex.Unlock()
			return nil
		}

		waitTime := time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// RetryWithBackoff 限流执行fn, 可重试错误按指数退避重试
func (tb *TokenBucket) RetryWithBackoff(ctx context.Context, fn func() error) error {
	var err error

	for retry := 0; retry <= tb.maxRetries; retry++ {
		if err = tb.Wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) || retry >= tb.maxRetries {
			return err
		}

		backoffTime := tb.retryWaitTime * time.Duration(1<<uint(retry))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffTime):
		}
	}

	return err
}

// isRetryableError 按错误消息判断是否值得重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return containsAny(errStr, []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"EOF",
		"connection refused",
		"429 Too Many Requests",
		"rate limit",
		"no such host",
	})
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if substr != "" && strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
