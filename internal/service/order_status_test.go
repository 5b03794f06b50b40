package service

import (
	"testing"

	"github.com/prato-next/internal/constants"
)

func TestNormalizeOrderStatus(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{in: "PENDING", want: constants.OrderStatusPending, valid: true},
		{in: "pending", want: constants.OrderStatusPending, valid: true},
		{in: "  preparing ", want: constants.OrderStatusPreparing, valid: true},
		{in: "OUT_FOR_DELIVERY", want: constants.OrderStatusDispatched, valid: true},
		{in: "out_for_delivery", want: constants.OrderStatusDispatched, valid: true},
		{in: "delivered", want: constants.OrderStatusDelivered, valid: true},
		{in: "CANCELLED", want: constants.OrderStatusCancelled, valid: true},
		{in: "shipped", want: "", valid: false},
		{in: "", want: "", valid: false},
	}
	for _, tc := range cases {
		got, ok := NormalizeOrderStatus(tc.in)
		if ok != tc.valid {
			t.Fatalf("normalize %q valid want %v got %v", tc.in, tc.valid, ok)
		}
		if got != tc.want {
			t.Fatalf("normalize %q want %q got %q", tc.in, tc.want, got)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{from: "PENDING", to: "PREPARING", want: true},
		{from: "PREPARING", to: "READY", want: true},
		{from: "READY", to: "DISPATCHED", want: true},
		{from: "DISPATCHED", to: "DELIVERED", want: true},
		// 跳段前进放行
		{from: "PENDING", to: "DELIVERED", want: true},
		{from: "PREPARING", to: "DISPATCHED", want: true},
		// 回退拒绝
		{from: "READY", to: "PREPARING", want: false},
		{from: "DELIVERED", to: "DISPATCHED", want: false},
		// 终态不可离开
		{from: "DELIVERED", to: "CANCELLED", want: false},
		{from: "CANCELLED", to: "PENDING", want: false},
		// 任意非终态可取消
		{from: "PENDING", to: "CANCELLED", want: true},
		{from: "DISPATCHED", to: "CANCELLED", want: true},
		// 历史别名
		{from: "READY", to: "OUT_FOR_DELIVERY", want: true},
		{from: "pending", to: "preparing", want: true},
		// 非法状态
		{from: "PENDING", to: "SHIPPED", want: false},
		{from: "", to: "READY", want: false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("transition %s -> %s want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestIsAnomalousTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{from: "PENDING", to: "PREPARING", want: false},
		{from: "DISPATCHED", to: "DELIVERED", want: false},
		{from: "PENDING", to: "DELIVERED", want: true},
		{from: "PENDING", to: "READY", want: true},
		{from: "PREPARING", to: "DISPATCHED", want: true},
		{from: "READY", to: "CANCELLED", want: false},
	}
	for _, tc := range cases {
		if got := IsAnomalousTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("anomalous %s -> %s want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	if !IsTerminalStatus("DELIVERED") || !IsTerminalStatus("cancelled") {
		t.Fatalf("expected delivered/cancelled to be terminal")
	}
	if IsTerminalStatus("PENDING") || IsTerminalStatus("DISPATCHED") || IsTerminalStatus("invalid") {
		t.Fatalf("expected non-terminal statuses")
	}
}
