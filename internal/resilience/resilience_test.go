package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prato-next/internal/config"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls want 3 got %d", calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	wantErr := errors.New("persistent")
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls want 3 got %d", calls)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: time.Second}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got %v", err)
	}
	if calls != 1 {
		t.Fatalf("cancel must stop retries, calls got %d", calls)
	}
}

func TestDoWithFallback(t *testing.T) {
	value, fromFallback := DoWithFallback(context.Background(), fastPolicy(2), func(ctx context.Context) (int, error) {
		return 0, errors.New("down")
	}, 42)
	if !fromFallback {
		t.Fatalf("expected fallback result")
	}
	if value != 42 {
		t.Fatalf("fallback value want 42 got %d", value)
	}

	value, fromFallback = DoWithFallback(context.Background(), fastPolicy(2), func(ctx context.Context) (int, error) {
		return 7, nil
	}, 42)
	if fromFallback {
		t.Fatalf("success must not use fallback")
	}
	if value != 7 {
		t.Fatalf("value want 7 got %d", value)
	}
}

func TestBackoffFor(t *testing.T) {
	policy := Policy{MaxAttempts: 5, BaseBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := backoffFor(policy, tt.attempt); got != tt.want {
			t.Fatalf("attempt %d want %s got %s", tt.attempt, tt.want, got)
		}
	}
}

func TestFromConfigDefaults(t *testing.T) {
	policy := FromConfig(config.ResilienceConfig{})
	if policy.MaxAttempts != 3 {
		t.Fatalf("default attempts want 3 got %d", policy.MaxAttempts)
	}
	if policy.BaseBackoff != 100*time.Millisecond {
		t.Fatalf("default base backoff want 100ms got %s", policy.BaseBackoff)
	}
	if policy.MaxBackoff < policy.BaseBackoff {
		t.Fatalf("max backoff must not be below base")
	}
}
