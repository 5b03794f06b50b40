package service

import (
	"strings"
	"time"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
)

// AuditRecordInput 审计记录输入
type AuditRecordInput struct {
	UserID       string
	UserEmail    string
	Action       string
	Details      models.JSON
	RestaurantID uint
	RequestID    string
}

// AuditService 审计日志服务
// 写入永远是尽力而为：失败只记本地 warning，绝不向调用方抛错。
type AuditService struct {
	repo                repository.AuditLogRepository
	discountWarnPercent decimal.Decimal
	listLimitCap        int
}

// NewAuditService 创建审计日志服务
func NewAuditService(repo repository.AuditLogRepository, discountWarnPercent float64, listLimitCap int) *AuditService {
	if listLimitCap <= 0 {
		listLimitCap = 200
	}
	return &AuditService{
		repo:                repo,
		discountWarnPercent: decimal.NewFromFloat(discountWarnPercent),
		listLimitCap:        listLimitCap,
	}
}

// Record 追加一条审计日志，返回值仅供调用方参考
func (s *AuditService) Record(input AuditRecordInput) *models.AuditLog {
	if s == nil || s.repo == nil {
		return nil
	}
	action := strings.TrimSpace(input.Action)
	if action == "" {
		return nil
	}

	entry := &models.AuditLog{
		UserID:       strings.TrimSpace(input.UserID),
		UserEmail:    strings.TrimSpace(input.UserEmail),
		Action:       action,
		Details:      input.Details,
		Severity:     s.SeverityFor(action, input.Details),
		RestaurantID: input.RestaurantID,
		RequestID:    strings.TrimSpace(input.RequestID),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(entry); err != nil {
		logger.Warnw("audit_log_write_failed",
			"action", action,
			"restaurant_id", input.RestaurantID,
			"error", err,
		)
		return nil
	}
	return entry
}

// SeverityFor 根据动作与参数推导日志级别
// 取消与退款恒为 danger；跳段转移与超阈值折扣为 warning；其余为 info。
func (s *AuditService) SeverityFor(action string, details models.JSON) string {
	switch strings.TrimSpace(action) {
	case constants.AuditActionOrderCancelled, constants.AuditActionRefundIssued:
		return constants.AuditSeverityDanger
	case constants.AuditActionStatusChanged:
		if detailsFlag(details, "anomalous") {
			return constants.AuditSeverityWarning
		}
		if toStatus, ok := details["to"].(string); ok {
			if normalized, valid := NormalizeOrderStatus(toStatus); valid && normalized == constants.OrderStatusCancelled {
				return constants.AuditSeverityDanger
			}
		}
	case constants.AuditActionDiscountApplied:
		if s.discountExceedsThreshold(details) {
			return constants.AuditSeverityWarning
		}
	case constants.AuditActionStockDeducted:
		if detailsFlag(details, "deficit") {
			return constants.AuditSeverityWarning
		}
	}
	return constants.AuditSeverityInfo
}

// List 查询审计日志，单页大小受上限约束
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuditLog{}, 0, nil
	}
	if filter.PageSize <= 0 || filter.PageSize > s.listLimitCap {
		filter.PageSize = s.listLimitCap
	}
	return s.repo.List(filter)
}

func (s *AuditService) discountExceedsThreshold(details models.JSON) bool {
	if details == nil || s.discountWarnPercent.LessThanOrEqual(decimal.Zero) {
		return false
	}
	discount, okDiscount := detailsDecimal(details, "discount")
	total, okTotal := detailsDecimal(details, "order_total")
	if !okDiscount || !okTotal || total.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return discount.Div(total).GreaterThan(s.discountWarnPercent)
}

func detailsFlag(details models.JSON, key string) bool {
	if details == nil {
		return false
	}
	flag, ok := details[key].(bool)
	return ok && flag
}

func detailsDecimal(details models.JSON, key string) (decimal.Decimal, bool) {
	switch value := details[key].(type) {
	case string:
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	case float64:
		return decimal.NewFromFloat(value), true
	case int:
		return decimal.NewFromInt(int64(value)), true
	case int64:
		return decimal.NewFromInt(value), true
	case models.Money:
		return value.Decimal, true
	case decimal.Decimal:
		return value, true
	}
	return decimal.Zero, false
}
