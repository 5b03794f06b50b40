package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prato-next/internal/cache"
	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PerformanceService 员工绩效服务
type PerformanceService struct {
	staffRepo    repository.StaffRepository
	auditService *AuditService
	resetHour    int
	location     *time.Location
}

// NewPerformanceService 创建员工绩效服务
func NewPerformanceService(staffRepo repository.StaffRepository, auditService *AuditService, cfg config.PerformanceConfig) *PerformanceService {
	loc, err := time.LoadLocation(cfg.ResetTimezone)
	if err != nil {
		logger.Warnw("performance_timezone_invalid", "timezone", cfg.ResetTimezone, "error", err)
		loc = time.Local
	}
	return &PerformanceService{
		staffRepo:    staffRepo,
		auditService: auditService,
		resetHour:    cfg.ResetHour,
		location:     loc,
	}
}

// RecordDelivered 订单送达后累计相关员工的绩效指标
// 服务员与配送员各计一单；单个员工统计失败不影响其他员工。
func (s *PerformanceService) RecordDelivered(order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	var firstErr error
	for _, staffID := range []*uint{order.WaiterID, order.DriverID} {
		if staffID == nil || *staffID == 0 {
			continue
		}
		if err := s.recordForStaff(*staffID, order.Total.Decimal); err != nil {
			logger.Warnw("staff_performance_record_failed",
				"staff_id", *staffID,
				"order_id", order.ID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

const staffCacheTTL = 30 * time.Second

func staffCacheKey(staffID uint) string {
	return fmt.Sprintf("staff:%d", staffID)
}

func (s *PerformanceService) recordForStaff(staffID uint, total decimal.Decimal) error {
	today := s.currentStatDate(time.Now())
	err := s.staffRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.staffRepo.WithTx(tx)
		staff, err := repo.GetByIDForUpdate(staffID)
		if err != nil {
			return err
		}
		if staff == nil {
			return ErrStaffNotFound
		}

		staff.TotalOrders++
		staff.TotalSales = models.NewMoneyFromDecimal(staff.TotalSales.Decimal.Add(total))
		staff.AverageTicket = models.NewMoneyFromDecimal(
			staff.TotalSales.Decimal.Div(decimal.NewFromInt(staff.TotalOrders)).Round(2),
		)

		// 跨统计日的首单先清零当日计数
		if staff.TodayDate != today {
			staff.TodayDate = today
			staff.TodayOrders = 0
			staff.TodaySales = models.NewMoneyFromDecimal(decimal.Zero)
		}
		staff.TodayOrders++
		staff.TodaySales = models.NewMoneyFromDecimal(staff.TodaySales.Decimal.Add(total))
		staff.UpdatedAt = time.Now()
		return repo.Update(staff)
	})
	if err != nil {
		return err
	}
	if err := cache.Del(context.Background(), staffCacheKey(staffID)); err != nil {
		logger.Debugw("staff_cache_del_failed", "staff_id", staffID, "error", err)
	}
	return nil
}

// ResetDaily 重置某餐厅全部员工的当日计数，由每日定时任务调用
// 累计指标（总单数、总销售额、客单价）不受影响。
func (s *PerformanceService) ResetDaily(restaurantID uint) (int64, error) {
	today := s.currentStatDate(time.Now())
	affected, err := s.staffRepo.ResetTodayCounters(restaurantID, today)
	if err != nil {
		return 0, err
	}
	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       "system",
			Action:       constants.AuditActionPerformanceReset,
			RestaurantID: restaurantID,
			Details: models.JSON{
				"date":           today,
				"staff_affected": affected,
			},
		})
	}
	logger.Infow("staff_daily_counters_reset", "restaurant_id", restaurantID, "date", today, "affected", affected)
	return affected, nil
}

// GetStaff 查询单个员工，命中缓存时不回源
func (s *PerformanceService) GetStaff(staffID uint) (*models.Staff, error) {
	ctx := context.Background()
	key := staffCacheKey(staffID)

	var cached models.Staff
	if hit, err := cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	if err := cache.SetJSON(ctx, key, staff, staffCacheTTL); err != nil {
		logger.Debugw("staff_cache_set_failed", "staff_id", staffID, "error", err)
	}
	return staff, nil
}

// ListStaff 按筛选条件列出员工绩效
func (s *PerformanceService) ListStaff(filter repository.StaffListFilter) ([]models.Staff, int64, error) {
	return s.staffRepo.List(filter)
}

// currentStatDate 计算统计意义上的"今天"
// 重置时刻之前的时间仍归属前一统计日。
func (s *PerformanceService) currentStatDate(now time.Time) string {
	local := now.In(s.location)
	if local.Hour() < s.resetHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}
