package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/provider"
	"github.com/prato-next/internal/queue"
	"github.com/prato-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskReferralExpire, c.handleReferralExpire)
	mux.HandleFunc(queue.TaskStaffDailyReset, c.handleStaffDailyReset)
}

func (c *Consumer) handleOrderStatusNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_notify_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_notify_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	fallback := fmt.Sprintf("Pedido #%d: %s", order.ID, payload.ToStatus)
	message := fallback
	if c.TextgenClient != nil && c.TextgenClient.Enabled() {
		prompt := fmt.Sprintf(
			"Write one short friendly sentence in Portuguese telling the customer their food order moved from %s to %s.",
			payload.FromStatus, payload.ToStatus,
		)
		message = c.TextgenClient.Complete(ctx, prompt, fallback)
	}

	logger.Infow("order_status_notification",
		"order_id", order.ID,
		"customer_uid", order.Customer.UID,
		"from", payload.FromStatus,
		"to", payload.ToStatus,
		"message", message,
	)
	return nil
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.ExpirePending(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleReferralExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_referral_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.ReferralService == nil {
		logger.Warnw("worker_referral_expire_skip_service_nil")
		return nil
	}
	if _, err := c.ReferralService.ExpireCodes(); err != nil {
		logger.Warnw("worker_referral_expire_failed", "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleStaffDailyReset(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_staff_daily_reset_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StaffDailyResetPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_staff_daily_reset_unmarshal_failed", "error", err)
		return err
	}
	if c.PerformanceService == nil {
		logger.Warnw("worker_staff_daily_reset_skip_service_nil", "restaurant_id", payload.RestaurantID)
		return nil
	}
	if _, err := c.PerformanceService.ResetDaily(payload.RestaurantID); err != nil {
		logger.Warnw("worker_staff_daily_reset_failed", "restaurant_id", payload.RestaurantID, "error", err)
		return err
	}
	return nil
}
