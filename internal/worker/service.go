package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	referralExpireInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.ReferralService != nil {
		go s.runReferralExpireLoop(ctx)
	}
	if s.consumer != nil && s.consumer.PerformanceService != nil {
		go s.runDailyResetLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runReferralExpireLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.ReferralService == nil {
		return
	}
	runOnce := func() {
		if qc := s.consumer.QueueClient; qc.Enabled() {
			if err := qc.EnqueueReferralExpire(); err != nil {
				logger.Warnw("worker_referral_expire_enqueue_failed", "error", err)
			}
			return
		}
		if _, err := s.consumer.ReferralService.ExpireCodes(); err != nil {
			logger.Warnw("worker_referral_expire_loop_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(referralExpireInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// runDailyResetLoop 在每日重置时刻清零所有员工的当日计数
func (s *Service) runDailyResetLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PerformanceService == nil {
		return
	}
	cfg := s.consumer.Config.Performance
	loc, err := time.LoadLocation(cfg.ResetTimezone)
	if err != nil {
		loc = time.Local
	}

	for {
		next := nextResetTime(time.Now().In(loc), cfg.ResetHour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if qc := s.consumer.QueueClient; qc.Enabled() {
				if err := qc.EnqueueStaffDailyReset(queue.StaffDailyResetPayload{}); err != nil {
					logger.Warnw("worker_daily_reset_enqueue_failed", "error", err)
				}
			} else if _, err := s.consumer.PerformanceService.ResetDaily(0); err != nil {
				logger.Warnw("worker_daily_reset_failed", "error", err)
			}
			s.reportLowStock()
		}
	}
}

// reportLowStock 每日重置时顺带提示低于阈值的食材
func (s *Service) reportLowStock() {
	if s == nil || s.consumer == nil || s.consumer.InventoryService == nil {
		return
	}
	ingredients, err := s.consumer.InventoryService.ListLowStock(0)
	if err != nil {
		logger.Warnw("worker_low_stock_report_failed", "error", err)
		return
	}
	for _, ingredient := range ingredients {
		logger.Warnw("ingredient_below_threshold",
			"ingredient_id", ingredient.ID,
			"restaurant_id", ingredient.RestaurantID,
			"name", ingredient.Name,
			"current_stock", ingredient.CurrentStock.String(),
			"min_threshold", ingredient.MinThreshold.String(),
		)
	}
}

func nextResetTime(now time.Time, resetHour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
