package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Allow(t *testing.T) {
	// 容量2, 初始填满: 前两次放行, 第三次拒绝
	tb := NewTokenBucket(60, 2)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucket_DefaultCapacity(t *testing.T) {
	// capacity<=0时取qpm的一半
	tb := NewTokenBucket(120, 0)
	assert.Equal(t, float64(60), tb.capacity)

	// qpm很小时容量至少为1
	tb = NewTokenBucket(1, 0)
	assert.Equal(t, float64(1), tb.capacity)
}

func TestTokenBucket_Refill(t *testing.T) {
	// 6000qpm = 每秒100个令牌, 耗尽后很快能再拿到
	tb := NewTokenBucket(6000, 1)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestTokenBucket_WaitContextCancel(t *testing.T) {
	// 令牌耗尽且速率极低时, Wait应随上下文取消返回
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_RetryWithBackoff(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 2)

	// 可重试错误会重试到上限
	attempts := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		attempts++
		return errors.New("connection reset by peer")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	// 不可重试错误立即返回
	attempts = 0
	err = tb.RetryWithBackoff(context.Background(), func() error {
		attempts++
		return errors.New("invalid argument")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	// 成功不重试
	attempts = 0
	err = tb.RetryWithBackoff(context.Background(), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(errors.New("context deadline exceeded")))
	assert.True(t, isRetryableError(errors.New("429 Too Many Requests")))
	assert.False(t, isRetryableError(errors.New("record not found")))
}
