package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/gateway"
	"github.com/prato-next/internal/http/response"
	"github.com/prato-next/internal/logger"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"
	"github.com/prato-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	MenuItemID uint `json:"id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	RestaurantID     uint               `json:"restaurantId" binding:"required"`
	CustomerName     string             `json:"customerName"`
	CustomerPhone    string             `json:"customerPhone"`
	CustomerCPF      string             `json:"customerCpf"`
	Items            []OrderItemRequest `json:"items" binding:"required"`
	PaymentMethod    string             `json:"paymentMethod"`
	WaiterID         *uint              `json:"waiterId"`
	DriverID         *uint              `json:"driverId"`
	TableNumber      *int               `json:"tableNumber"`
	ReferralCode     string             `json:"referralCode"`
	UseCashback      bool               `json:"useCashback"`
	PredictedMinutes float64            `json:"predictedMinutes"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	actorID, _, ok := getActor(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	items := make([]service.OrderCreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderCreateItemInput{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	result, err := h.OrderService.CreateOrder(service.OrderCreateInput{
		RestaurantID: req.RestaurantID,
		Customer: models.OrderCustomer{
			UID:   actorID,
			Name:  strings.TrimSpace(req.CustomerName),
			Phone: strings.TrimSpace(req.CustomerPhone),
			CPF:   strings.TrimSpace(req.CustomerCPF),
		},
		Items:            items,
		PaymentMethod:    req.PaymentMethod,
		WaiterID:         req.WaiterID,
		DriverID:         req.DriverID,
		TableNumber:      req.TableNumber,
		ReferralCode:     req.ReferralCode,
		UseCashback:      req.UseCashback,
		PredictedMinutes: req.PredictedMinutes,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	payload := gin.H{
		"order":       result.Order,
		"deliveryPin": result.DeliveryPin,
	}
	if charge := h.createCharge(c, result.Order); charge != nil {
		payload["payment"] = gin.H{
			"chargeId":   charge.ChargeID,
			"status":     charge.Status,
			"paymentUrl": charge.PaymentURL,
		}
	}
	response.Success(c, payload)
}

// createCharge 在线支付方式下向网关发起收款，失败不阻断下单
func (h *Handler) createCharge(c *gin.Context, order *models.Order) *gateway.ChargeResult {
	if h.GatewayClient == nil || !h.GatewayClient.Enabled() {
		return nil
	}
	switch order.PaymentMethod {
	case constants.PaymentMethodPix, constants.PaymentMethodCard:
	default:
		return nil
	}

	amount := order.Total.Decimal.Sub(order.DiscountApplied.Decimal)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	charge, err := h.GatewayClient.CreateCharge(c.Request.Context(), gateway.ChargeInput{
		OrderID:  order.ID,
		Amount:   amount.StringFixed(2),
		Currency: constants.SiteCurrencyDefault,
		Method:   order.PaymentMethod,
	})
	if err != nil {
		logger.Warnw("order_charge_create_failed", "order_id", order.ID, "error", err)
		return nil
	}
	return charge
}

// GetOrder 查询订单
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 分页查询订单
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	restaurantID, _ := strconv.ParseUint(c.Query("restaurant_id"), 10, 64)
	staffID, _ := strconv.ParseUint(c.Query("staff_id"), 10, 64)

	filter := repository.OrderListFilter{
		Page:         page,
		PageSize:     pageSize,
		RestaurantID: uint(restaurantID),
		CustomerUID:  strings.TrimSpace(c.Query("customer_id")),
		Status:       strings.TrimSpace(c.Query("status")),
		StaffID:      uint(staffID),
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// TransitionOrderRequest 状态迁移请求
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionOrder 迁移订单状态
// 角色到目标状态的授权由策略矩阵判定。
func (h *Handler) TransitionOrder(c *gin.Context) {
	actorID, actorRole, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	normalized, valid := service.NormalizeOrderStatus(req.Status)
	if !valid {
		respondError(c, response.CodeBadRequest, "error.order_status_invalid", nil)
		return
	}

	allowed, err := h.AuthzService.EnforceTransition(actorRole, normalized)
	if err != nil || !allowed {
		respondError(c, response.CodeForbidden, "error.forbidden", err)
		return
	}

	order, err := h.OrderService.Transition(orderID, normalized, actorID)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	actorID, actorRole, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	allowed, err := h.AuthzService.EnforceTransition(actorRole, constants.OrderStatusCancelled)
	if err != nil || !allowed {
		respondError(c, response.CodeForbidden, "error.forbidden", err)
		return
	}

	order, err := h.OrderService.Cancel(orderID, actorID, req.Reason)
	if err != nil {
		respondOrderTransitionError(c, err)
		return
	}
	response.Success(c, order)
}

// ConfirmDeliveryRequest 送达确认请求
type ConfirmDeliveryRequest struct {
	Pin   string `json:"pin"`
	Proof string `json:"proof"`
}

// ConfirmDelivery 确认送达
// 默认走 PIN 校验；proof=photo 时走照片兜底。
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	actorID, actorRole, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	allowed, err := h.AuthzService.EnforceTransition(actorRole, constants.OrderStatusDelivered)
	if err != nil || !allowed {
		respondError(c, response.CodeForbidden, "error.forbidden", err)
		return
	}

	var order *models.Order
	if strings.EqualFold(strings.TrimSpace(req.Proof), constants.DeliveryProofPhoto) {
		order, err = h.OrderService.ConfirmDeliveryWithPhoto(orderID, actorID)
	} else {
		order, err = h.OrderService.ConfirmDelivery(c.Request.Context(), orderID, req.Pin, actorID)
	}
	if err != nil {
		respondDeliveryConfirmError(c, err)
		return
	}
	response.Success(c, order)
}

// PreviewDiscountRequest 抵扣预览请求
type PreviewDiscountRequest struct {
	RestaurantID uint   `json:"restaurantId" binding:"required"`
	OrderTotal   string `json:"orderTotal" binding:"required"`
}

// PreviewDiscount 预览返现抵扣金额
func (h *Handler) PreviewDiscount(c *gin.Context) {
	actorID, _, ok := getActor(c)
	if !ok {
		return
	}

	var req PreviewDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	total, err := decimal.NewFromString(strings.TrimSpace(req.OrderTotal))
	if err != nil || total.LessThanOrEqual(decimal.Zero) {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	discount, err := h.ReferralService.PreviewDiscount(actorID, req.RestaurantID, total)
	if err != nil {
		respondDiscountPreviewError(c, err)
		return
	}
	response.Success(c, gin.H{
		"orderTotal": total.StringFixed(2),
		"discount":   discount.StringFixed(2),
		"computedAt": time.Now(),
	})
}
