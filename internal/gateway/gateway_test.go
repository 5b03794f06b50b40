package gateway

import (
	"testing"
	"time"

	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/resilience"
)

func TestSign(t *testing.T) {
	params := map[string]interface{}{
		"order_id": "42",
		"amount":   "63.80",
		"currency": "BRL",
		"app_id":   "demo",
	}
	first := Sign(params, "secret")
	if len(first) != 32 {
		t.Fatalf("md5 hex length want 32 got %d", len(first))
	}

	// 参数顺序不影响签名
	reordered := map[string]interface{}{
		"app_id":   "demo",
		"currency": "BRL",
		"amount":   "63.80",
		"order_id": "42",
	}
	if got := Sign(reordered, "secret"); got != first {
		t.Fatalf("signature must be order independent: %s vs %s", first, got)
	}

	// 空值与 signature 字段不参与签名
	padded := map[string]interface{}{
		"order_id":  "42",
		"amount":    "63.80",
		"currency":  "BRL",
		"app_id":    "demo",
		"remark":    "  ",
		"signature": "bogus",
	}
	if got := Sign(padded, "secret"); got != first {
		t.Fatalf("empty values must be skipped: %s vs %s", first, got)
	}

	if got := Sign(params, "other-secret"); got == first {
		t.Fatalf("different secret must change signature")
	}
}

func TestVerifyCallback(t *testing.T) {
	client := NewClient(config.GatewayConfig{
		Enabled:   true,
		BaseURL:   "http://gateway.local",
		AppID:     "demo",
		AppSecret: "secret",
		TimeoutMS: int(time.Second / time.Millisecond),
	}, resilience.Policy{MaxAttempts: 1})

	params := map[string]interface{}{
		"charge_id": "ch_123",
		"status":    ChargeStatusPaid,
	}
	signature := Sign(params, "secret")

	if err := client.VerifyCallback(params, signature); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := client.VerifyCallback(params, "deadbeef"); err != ErrSignatureInvalid {
		t.Fatalf("want ErrSignatureInvalid got %v", err)
	}
}

func TestClientDisabled(t *testing.T) {
	client := NewClient(config.GatewayConfig{}, resilience.Policy{MaxAttempts: 1})
	if client.Enabled() {
		t.Fatalf("client without base url must be disabled")
	}
}
