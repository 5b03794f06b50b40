package queue

import (
	"encoding/json"

	"github.com/prato-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskOrderTimeoutCancel 待处理订单超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskReferralExpire 推荐码过期任务
	TaskReferralExpire = constants.TaskReferralExpire
	// TaskStaffDailyReset 员工当日绩效清零任务
	TaskStaffDailyReset = constants.TaskStaffDailyReset
)

// OrderStatusNotifyPayload 订单状态通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID    uint   `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// ReferralExpirePayload 推荐码过期任务载荷
type ReferralExpirePayload struct{}

// StaffDailyResetPayload 员工当日绩效清零任务载荷
type StaffDailyResetPayload struct {
	RestaurantID uint   `json:"restaurant_id"`
	Date         string `json:"date"`
}

// NewOrderStatusNotifyTask 创建订单状态通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusNotify, body), nil
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewReferralExpireTask 创建推荐码过期任务
func NewReferralExpireTask(payload ReferralExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReferralExpire, body), nil
}

// NewStaffDailyResetTask 创建员工当日绩效清零任务
func NewStaffDailyResetTask(payload StaffDailyResetPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaffDailyReset, body), nil
}
