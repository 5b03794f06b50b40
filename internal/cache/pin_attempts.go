package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PinLimiter 配送 PIN 失败次数限制器
// Redis 可用时用 INCR+EXPIRE 做跨实例计数，否则退化为进程内计数。
type PinLimiter struct {
	maxAttempts int
	blockTTL    time.Duration

	mu    sync.Mutex
	local map[uint]*pinAttemptState
}

type pinAttemptState struct {
	failures  int
	expiresAt time.Time
}

// NewPinLimiter 创建 PIN 限制器
func NewPinLimiter(maxAttempts, blockSeconds int) *PinLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if blockSeconds <= 0 {
		blockSeconds = 300
	}
	return &PinLimiter{
		maxAttempts: maxAttempts,
		blockTTL:    time.Duration(blockSeconds) * time.Second,
		local:       make(map[uint]*pinAttemptState),
	}
}

// Blocked 判断订单的 PIN 校验是否已被锁定
func (l *PinLimiter) Blocked(ctx context.Context, orderID uint) (bool, error) {
	if Enabled() {
		count, err := redisClient.Get(ctx, pinFailKey(orderID)).Int()
		if err != nil {
			return false, nil
		}
		return count >= l.maxAttempts, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.local[orderID]
	if state == nil {
		return false, nil
	}
	if time.Now().After(state.expiresAt) {
		delete(l.local, orderID)
		return false, nil
	}
	return state.failures >= l.maxAttempts, nil
}

// RecordFailure 记录一次失败，返回记录后是否达到锁定阈值
func (l *PinLimiter) RecordFailure(ctx context.Context, orderID uint) (bool, error) {
	if Enabled() {
		key := pinFailKey(orderID)
		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			return false, err
		}
		redisClient.Expire(ctx, key, l.blockTTL)
		return int(count) >= l.maxAttempts, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	state := l.local[orderID]
	if state == nil || now.After(state.expiresAt) {
		state = &pinAttemptState{}
		l.local[orderID] = state
	}
	state.failures++
	state.expiresAt = now.Add(l.blockTTL)
	return state.failures >= l.maxAttempts, nil
}

// Reset 校验成功后清除失败计数
func (l *PinLimiter) Reset(ctx context.Context, orderID uint) {
	if Enabled() {
		redisClient.Del(ctx, pinFailKey(orderID))
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.local, orderID)
}

func pinFailKey(orderID uint) string {
	return buildKey(fmt.Sprintf("order:pin_fail:%d", orderID))
}
