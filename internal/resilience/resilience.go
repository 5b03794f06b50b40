package resilience

import (
	"context"
	"time"

	"github.com/prato-next/internal/config"
)

// Policy 重试策略
type Policy struct {
	MaxAttempts int           // 最大尝试次数（含首次）
	BaseBackoff time.Duration // 首次重试等待
	MaxBackoff  time.Duration // 单次等待上限
}

// FromConfig 从配置构建重试策略
func FromConfig(cfg config.ResilienceConfig) Policy {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	base := time.Duration(cfg.BaseBackoffMS) * time.Millisecond
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	max := time.Duration(cfg.MaxBackoffMS) * time.Millisecond
	if max < base {
		max = base
	}
	return Policy{MaxAttempts: attempts, BaseBackoff: base, MaxBackoff: max}
}

// Do 按策略重试执行 fn
// 指数退避，等待期间响应 ctx 取消；返回最后一次的错误。
func Do(ctx context.Context, policy Policy, fn func(context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, backoffFor(policy, attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

// DoWithFallback 重试执行 fn，全部失败时返回兜底值
// 第二个返回值指示结果是否来自兜底。
func DoWithFallback[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error), fallback T) (T, bool) {
	var result T
	err := Do(ctx, policy, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = fn(ctx)
		return innerErr
	})
	if err != nil {
		return fallback, true
	}
	return result, false
}

func backoffFor(policy Policy, attempt int) time.Duration {
	delay := policy.BaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= policy.MaxBackoff {
			return policy.MaxBackoff
		}
	}
	if delay > policy.MaxBackoff {
		return policy.MaxBackoff
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
