package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/prato-next/internal/cache"
	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/queue"
	"github.com/prato-next/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OrderService 订单生命周期服务
type OrderService struct {
	orderRepo          repository.OrderRepository
	menuItemRepo       repository.MenuItemRepository
	inventoryService   *InventoryService
	referralService    *ReferralService
	performanceService *PerformanceService
	auditService       *AuditService
	queueClient        *queue.Client
	pinLimiter         *cache.PinLimiter
	pinLength          int
	pendingExpire      time.Duration
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	menuItemRepo repository.MenuItemRepository,
	inventoryService *InventoryService,
	referralService *ReferralService,
	performanceService *PerformanceService,
	auditService *AuditService,
	queueClient *queue.Client,
	cfg config.OrderConfig,
) *OrderService {
	pinLength := cfg.PinLength
	if pinLength <= 0 {
		pinLength = 4
	}
	pendingExpire := time.Duration(cfg.PendingExpireMinutes) * time.Minute
	return &OrderService{
		orderRepo:          orderRepo,
		menuItemRepo:       menuItemRepo,
		inventoryService:   inventoryService,
		referralService:    referralService,
		performanceService: performanceService,
		auditService:       auditService,
		queueClient:        queueClient,
		pinLimiter:         cache.NewPinLimiter(cfg.PinMaxAttempts, cfg.PinBlockSeconds),
		pinLength:          pinLength,
		pendingExpire:      pendingExpire,
	}
}

// OrderCreateItemInput 下单菜品项
type OrderCreateItemInput struct {
	MenuItemID uint
	Quantity   int
}

// OrderCreateInput 下单入参
type OrderCreateInput struct {
	RestaurantID     uint
	Customer         models.OrderCustomer
	Items            []OrderCreateItemInput
	PaymentMethod    string
	WaiterID         *uint
	DriverID         *uint
	TableNumber      *int
	ReferralCode     string
	UseCashback      bool
	PredictedMinutes float64
}

// OrderCreateResult 下单结果
// DeliveryPin 仅在创建响应里返回一次，落库只存哈希。
type OrderCreateResult struct {
	Order       *models.Order
	DeliveryPin string
}

// CreateOrder 创建订单
// 推荐码校验、首单奖励、返现抵扣与订单落库在同一事务内完成。
func (s *OrderService) CreateOrder(input OrderCreateInput) (*OrderCreateResult, error) {
	if input.RestaurantID == 0 || strings.TrimSpace(input.Customer.UID) == "" {
		return nil, ErrOrderNotFound
	}
	if len(input.Items) == 0 {
		return nil, ErrInvalidOrderItem
	}

	items, total, err := s.buildOrderItems(input.RestaurantID, input.Items)
	if err != nil {
		return nil, err
	}

	var referral *models.ReferralCode
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referral, err = s.referralService.ValidateCode(code, input.Customer.UID, input.RestaurantID)
		if err != nil {
			return nil, err
		}
	}

	var discount decimal.Decimal
	if input.UseCashback {
		discount, err = s.referralService.PreviewDiscount(input.Customer.UID, input.RestaurantID, total)
		if err != nil {
			return nil, err
		}
	}

	pin, pinHash, err := s.generateDeliveryPin()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		RestaurantID:    input.RestaurantID,
		Customer:        input.Customer,
		Total:           models.NewMoneyFromDecimal(total),
		DiscountApplied: models.NewMoneyFromDecimal(discount),
		Status:          constants.OrderStatusPending,
		PaymentStatus:   constants.PaymentStatusPending,
		PaymentMethod:   normalizePaymentMethod(input.PaymentMethod),
		DeliveryPinHash: pinHash,
		WaiterID:        input.WaiterID,
		DriverID:        input.DriverID,
		TableNumber:     input.TableNumber,
		AIMetrics: models.OrderAIMetrics{
			PredictedMinutes: input.PredictedMinutes,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if referral != nil {
		order.ReferralCode = referral.Code
	}

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order, items); err != nil {
			return err
		}
		if referral != nil {
			if _, err := s.referralService.RedeemCodeInTx(tx, referral, input.Customer.UID, order.ID); err != nil {
				return err
			}
		}
		if discount.GreaterThan(decimal.Zero) {
			if err := s.referralService.DebitDiscountInTx(tx, order, discount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Items = items

	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       order.Customer.UID,
			Action:       constants.AuditActionOrderCreated,
			RestaurantID: order.RestaurantID,
			Details: models.JSON{
				"order_id":    order.ID,
				"order_total": order.Total.String(),
				"discount":    order.DiscountApplied.String(),
				"items":       len(items),
			},
		})
	}
	s.enqueuePendingTimeout(order.ID)

	return &OrderCreateResult{Order: order, DeliveryPin: pin}, nil
}

// Transition 执行订单状态迁移
// 状态写入用条件更新做并发保护；库存扣减、奖励发放、绩效累计
// 等副作用在状态落库之后执行，失败只记日志不回滚状态。
func (s *OrderService) Transition(orderID uint, toStatus, actorID string) (*models.Order, error) {
	return s.transition(orderID, toStatus, actorID, nil)
}

func (s *OrderService) transition(orderID uint, toStatus, actorID string, extraUpdates map[string]interface{}) (*models.Order, error) {
	normalized, ok := NormalizeOrderStatus(toStatus)
	if !ok {
		return nil, ErrOrderStatusInvalid
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	from := order.Status
	if !CanTransition(from, normalized) {
		if IsTerminalStatus(from) {
			return nil, ErrOrderAlreadyTerminal
		}
		return nil, ErrOrderTransitionNotAllowed
	}
	anomalous := IsAnomalousTransition(from, normalized)

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	for k, v := range extraUpdates {
		updates[k] = v
	}
	switch normalized {
	case constants.OrderStatusDispatched:
		updates["dispatched_at"] = now
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
		actual := now.Sub(order.CreatedAt).Minutes()
		updates["ai_actual_minutes"] = actual
		updates["ai_delta_minutes"] = actual - order.AIMetrics.PredictedMinutes
	case constants.OrderStatusCancelled:
		updates["canceled_at"] = now
	}

	rows, err := s.orderRepo.UpdateStatusFrom(order.ID, from, normalized, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrOrderStatusConflict
	}

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil || updated == nil {
		// 状态已落库，读回失败不再向上报错
		logger.Warnw("order_reload_after_transition_failed", "order_id", order.ID, "error", err)
		updated = order
		updated.Status = normalized
	}

	s.runTransitionSideEffects(updated, from, normalized, actorID, anomalous)
	return updated, nil
}

// runTransitionSideEffects 状态落库后的副作用，全部尽力而为
func (s *OrderService) runTransitionSideEffects(order *models.Order, from, to, actorID string, anomalous bool) {
	switch to {
	case constants.OrderStatusPreparing:
		if s.inventoryService != nil {
			if result, err := s.inventoryService.DeductForOrder(order); err != nil {
				logger.Warnw("stock_deduction_failed", "order_id", order.ID, "error", err)
			} else if result != nil && !result.Success {
				logger.Warnw("stock_deduction_partial", "order_id", order.ID, "errors", result.Errors)
			}
		}
	case constants.OrderStatusDelivered:
		if s.referralService != nil {
			if _, err := s.referralService.GrantReferrerBonus(order); err != nil {
				logger.Warnw("referrer_bonus_grant_failed", "order_id", order.ID, "error", err)
			}
		}
		if s.performanceService != nil {
			if err := s.performanceService.RecordDelivered(order); err != nil {
				logger.Warnw("performance_rollup_failed", "order_id", order.ID, "error", err)
			}
		}
	}

	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       actorID,
			Action:       constants.AuditActionStatusChanged,
			RestaurantID: order.RestaurantID,
			Details: models.JSON{
				"order_id":  order.ID,
				"from":      from,
				"to":        to,
				"anomalous": anomalous,
			},
		})
	}

	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ActorID:    actorID,
		}); err != nil {
			logger.Warnw("order_status_notify_enqueue_failed", "order_id", order.ID, "error", err)
		}
	}
}

// Cancel 取消订单
// 不做补偿：已扣库存与已发奖励保持不动。
func (s *OrderService) Cancel(orderID uint, actorID, reason string) (*models.Order, error) {
	order, err := s.transition(orderID, constants.OrderStatusCancelled, actorID, nil)
	if err != nil {
		return nil, err
	}
	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       actorID,
			Action:       constants.AuditActionOrderCancelled,
			RestaurantID: order.RestaurantID,
			Details: models.JSON{
				"order_id": order.ID,
				"reason":   strings.TrimSpace(reason),
			},
		})
	}
	return order, nil
}

// ExpirePending 取消超时未处理的 PENDING 订单，由延迟任务调用
func (s *OrderService) ExpirePending(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil || order.Status != constants.OrderStatusPending {
		return nil
	}
	_, err = s.Cancel(orderID, "system", "pending timeout")
	if err == ErrOrderStatusConflict || err == ErrOrderAlreadyTerminal {
		return nil
	}
	return err
}

// ConfirmDelivery 凭 PIN 确认送达
// 失败次数超限后锁定一段时间，校验通过时清零计数并迁移到 DELIVERED。
func (s *OrderService) ConfirmDelivery(ctx context.Context, orderID uint, pin, actorID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusDispatched {
		if IsTerminalStatus(order.Status) {
			return nil, ErrOrderAlreadyTerminal
		}
		return nil, ErrOrderTransitionNotAllowed
	}
	if order.DeliveryPinHash == "" {
		return nil, ErrDeliveryProofRequired
	}

	blocked, err := s.pinLimiter.Blocked(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrDeliveryPinBlocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(order.DeliveryPinHash), []byte(strings.TrimSpace(pin))); err != nil {
		nowBlocked, recErr := s.pinLimiter.RecordFailure(ctx, orderID)
		if recErr != nil {
			logger.Warnw("pin_failure_record_failed", "order_id", orderID, "error", recErr)
		}
		if nowBlocked {
			return nil, ErrDeliveryPinBlocked
		}
		return nil, ErrDeliveryPinInvalid
	}
	s.pinLimiter.Reset(ctx, orderID)

	updated, err := s.transition(orderID, constants.OrderStatusDelivered, actorID, map[string]interface{}{
		"delivery_proof": constants.DeliveryProofPin,
	})
	if err != nil {
		return nil, err
	}
	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       actorID,
			Action:       constants.AuditActionDeliveryConfirm,
			RestaurantID: updated.RestaurantID,
			Details: models.JSON{
				"order_id": updated.ID,
				"proof":    constants.DeliveryProofPin,
			},
		})
	}
	return updated, nil
}

// ConfirmDeliveryWithPhoto 凭照片确认送达，供无 PIN 渠道兜底
func (s *OrderService) ConfirmDeliveryWithPhoto(orderID uint, actorID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusDispatched {
		if IsTerminalStatus(order.Status) {
			return nil, ErrOrderAlreadyTerminal
		}
		return nil, ErrOrderTransitionNotAllowed
	}

	updated, err := s.transition(orderID, constants.OrderStatusDelivered, actorID, map[string]interface{}{
		"delivery_proof": constants.DeliveryProofPhoto,
	})
	if err != nil {
		return nil, err
	}
	if s.auditService != nil {
		s.auditService.Record(AuditRecordInput{
			UserID:       actorID,
			Action:       constants.AuditActionDeliveryConfirm,
			RestaurantID: updated.RestaurantID,
			Details: models.JSON{
				"order_id": updated.ID,
				"proof":    constants.DeliveryProofPhoto,
			},
		})
	}
	return updated, nil
}

// GetOrder 查询订单
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 分页查询订单
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.Status != "" {
		normalized, ok := NormalizeOrderStatus(filter.Status)
		if !ok {
			return nil, 0, ErrOrderStatusInvalid
		}
		filter.Status = normalized
	}
	return s.orderRepo.List(filter)
}

// buildOrderItems 按当前菜单价格生成订单项快照并汇总金额
func (s *OrderService) buildOrderItems(restaurantID uint, inputs []OrderCreateItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uint, 0, len(inputs))
	for _, item := range inputs {
		if item.MenuItemID == 0 || item.Quantity <= 0 {
			return nil, decimal.Zero, ErrInvalidOrderItem
		}
		ids = append(ids, item.MenuItemID)
	}

	menuItems, err := s.menuItemRepo.GetByIDs(ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint]*models.MenuItem, len(menuItems))
	for i := range menuItems {
		byID[menuItems[i].ID] = &menuItems[i]
	}

	items := make([]models.OrderItem, 0, len(inputs))
	total := decimal.Zero
	now := time.Now()
	for _, input := range inputs {
		menuItem := byID[input.MenuItemID]
		if menuItem == nil || menuItem.RestaurantID != restaurantID || !menuItem.Active {
			return nil, decimal.Zero, ErrMenuItemNotFound
		}
		line := menuItem.Price.Decimal.Mul(decimal.NewFromInt(int64(input.Quantity)))
		total = total.Add(line)
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   input.Quantity,
			UnitPrice:  menuItem.Price,
			CreatedAt:  now,
		})
	}
	return items, total.Round(2), nil
}

func (s *OrderService) generateDeliveryPin() (string, string, error) {
	var builder strings.Builder
	builder.Grow(s.pinLength)
	max := big.NewInt(10)
	for i := 0; i < s.pinLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", "", err
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}
	pin := builder.String()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return pin, string(hash), nil
}

func (s *OrderService) enqueuePendingTimeout(orderID uint) {
	if s.queueClient == nil || !s.queueClient.Enabled() || s.pendingExpire <= 0 {
		return
	}
	if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: orderID}, s.pendingExpire); err != nil {
		logger.Warnw("order_timeout_enqueue_failed", "order_id", orderID, "error", err)
	}
}

func normalizePaymentMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case constants.PaymentMethodCard:
		return constants.PaymentMethodCard
	case constants.PaymentMethodPix:
		return constants.PaymentMethodPix
	case constants.PaymentMethodCashback:
		return constants.PaymentMethodCashback
	default:
		return constants.PaymentMethodCash
	}
}
