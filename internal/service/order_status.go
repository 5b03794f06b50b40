package service

import (
	"strings"

	"github.com/prato-next/internal/constants"
)

// statusRank 履约路径上的状态序号，用于禁止回退
var statusRank = map[string]int{
	constants.OrderStatusPending:    0,
	constants.OrderStatusPreparing:  1,
	constants.OrderStatusReady:      2,
	constants.OrderStatusDispatched: 3,
	constants.OrderStatusDelivered:  4,
}

// allowedTransitions 履约路径上的标准相邻转移
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusPreparing: true,
	},
	constants.OrderStatusPreparing: {
		constants.OrderStatusReady: true,
	},
	constants.OrderStatusReady: {
		constants.OrderStatusDispatched: true,
	},
	constants.OrderStatusDispatched: {
		constants.OrderStatusDelivered: true,
	},
}

// NormalizeOrderStatus 归一化订单状态
// 历史数据同时存在大小写两种写法，另有写入方使用 OUT_FOR_DELIVERY 表示派送中，
// 读取侧全部接受并归一到大写规范值。
func NormalizeOrderStatus(status string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(status))
	if normalized == constants.OrderStatusOutForDelivery {
		normalized = constants.OrderStatusDispatched
	}
	switch normalized {
	case constants.OrderStatusPending,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusDispatched,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled:
		return normalized, true
	}
	return "", false
}

// IsTerminalStatus 判断是否终态
func IsTerminalStatus(status string) bool {
	normalized, ok := NormalizeOrderStatus(status)
	if !ok {
		return false
	}
	return normalized == constants.OrderStatusDelivered || normalized == constants.OrderStatusCancelled
}

// CanTransition 判断状态转移是否允许
// 终态不可离开；CANCELLED 可从任意非终态进入；履约路径上只允许前进。
// 跳段前进（历史写入方会直接写 DELIVERED）放行，由审计侧标记 warning。
func CanTransition(from, to string) bool {
	fromStatus, ok := NormalizeOrderStatus(from)
	if !ok {
		return false
	}
	toStatus, ok := NormalizeOrderStatus(to)
	if !ok {
		return false
	}
	if IsTerminalStatus(fromStatus) {
		return false
	}
	if toStatus == constants.OrderStatusCancelled {
		return true
	}
	fromRank, okFrom := statusRank[fromStatus]
	toRank, okTo := statusRank[toStatus]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// IsAnomalousTransition 判断是否为跳段转移
func IsAnomalousTransition(from, to string) bool {
	fromStatus, ok := NormalizeOrderStatus(from)
	if !ok {
		return false
	}
	toStatus, ok := NormalizeOrderStatus(to)
	if !ok {
		return false
	}
	if toStatus == constants.OrderStatusCancelled {
		return false
	}
	if allowedTransitions[fromStatus][toStatus] {
		return false
	}
	fromRank, okFrom := statusRank[fromStatus]
	toRank, okTo := statusRank[toStatus]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank+1
}
