package constants

// 订单状态常量（规范形式为大写，读取侧同时兼容历史小写写入）
const (
	OrderStatusPending    = "PENDING"
	OrderStatusPreparing  = "PREPARING"
	OrderStatusReady      = "READY"
	OrderStatusDispatched = "DISPATCHED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// 历史写入方使用的调度状态别名
const (
	OrderStatusOutForDelivery = "OUT_FOR_DELIVERY"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCard     = "card"
	PaymentMethodPix      = "pix"
	PaymentMethodCash     = "cash"
	PaymentMethodCashback = "cashback"
)

// 角色常量
const (
	RoleCustomer   = "customer"
	RoleKitchen    = "kitchen"
	RoleDispatcher = "dispatcher"
	RoleDriver     = "driver"
	RoleWaiter     = "waiter"
	RoleManager    = "manager"
)

// 审计日志级别常量
const (
	AuditSeverityInfo    = "info"
	AuditSeverityWarning = "warning"
	AuditSeverityDanger  = "danger"
)

// 审计动作常量
const (
	AuditActionOrderCreated     = "order_created"
	AuditActionStatusChanged    = "status_changed"
	AuditActionOrderCancelled   = "order_cancelled"
	AuditActionStockDeducted    = "stock_deducted"
	AuditActionStockAdjusted    = "stock_adjusted"
	AuditActionDiscountApplied  = "discount_applied"
	AuditActionRewardGranted    = "reward_granted"
	AuditActionRefundIssued     = "refund_issued"
	AuditActionDeliveryConfirm  = "delivery_confirmed"
	AuditActionPerformanceReset = "performance_daily_reset"
)

// 返现奖励类型常量
const (
	RewardTypeReferrerBonus    = "referrer_bonus"
	RewardTypeReferredDiscount = "referred_discount"
)

// 返现钱包流水类型常量
const (
	CashbackEntryTypeReferralBonus = "referral_bonus"
	CashbackEntryTypeOrderDiscount = "order_discount"
	CashbackEntryTypeManualAdjust  = "manual_adjust"
)

// 返现钱包流水方向常量
const (
	CashbackDirectionIn  = "in"
	CashbackDirectionOut = "out"
)

// 配送确认方式常量
const (
	DeliveryProofPin   = "pin"
	DeliveryProofPhoto = "photo"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderStatusNotify  = "order:status_notify"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskReferralExpire     = "referral:expire_codes"
	TaskStaffDailyReset    = "staff:daily_reset"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pn"
)

// 站点默认币种常量
const (
	SiteCurrencyDefault = "BRL"
)
