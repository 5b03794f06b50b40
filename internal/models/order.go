package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderCustomer 下单客户信息快照
type OrderCustomer struct {
	UID   string `gorm:"column:customer_uid;type:varchar(64);index;not null" json:"uid"` // 客户标识
	Name  string `gorm:"column:customer_name;type:varchar(200)" json:"name"`             // 客户姓名
	Phone string `gorm:"column:customer_phone;type:varchar(40)" json:"phone"`            // 联系电话
	CPF   string `gorm:"column:customer_cpf;type:varchar(20)" json:"cpf"`                // 税号
}

// OrderAIMetrics 配送时长预测指标（仅用于参考学习，不参与一致性判断）
type OrderAIMetrics struct {
	PredictedMinutes float64 `gorm:"column:ai_predicted_minutes;not null;default:0" json:"predicted"` // 预测配送分钟数
	ActualMinutes    float64 `gorm:"column:ai_actual_minutes;not null;default:0" json:"actual"`       // 实际配送分钟数
	DeltaMinutes     float64 `gorm:"column:ai_delta_minutes;not null;default:0" json:"delta"`         // 预测偏差
}

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                // 主键
	RestaurantID    uint           `gorm:"index;not null" json:"restaurantId"`                  // 餐厅ID
	Customer        OrderCustomer  `gorm:"embedded" json:"customer"`                            // 客户快照
	Total           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`  // 订单总额
	DiscountApplied Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discountApplied"` // 已抵扣返现金额
	Status          string         `gorm:"type:varchar(30);index;not null" json:"status"`       // 订单状态
	PaymentStatus   string         `gorm:"type:varchar(30);index;not null" json:"paymentStatus"` // 支付状态
	PaymentMethod   string         `gorm:"type:varchar(30);not null" json:"paymentMethod"`      // 支付方式
	DeliveryPinHash string         `gorm:"type:varchar(200)" json:"-"`                          // 送达确认 PIN 的哈希
	DeliveryProof   string         `gorm:"type:varchar(20)" json:"deliveryProof,omitempty"`     // 送达凭证类型（pin/photo）
	WaiterID        *uint          `gorm:"index" json:"waiterId,omitempty"`                     // 服务员ID
	DriverID        *uint          `gorm:"index" json:"driverId,omitempty"`                     // 配送员ID
	TableNumber     *int           `json:"tableNumber,omitempty"`                               // 堂食桌号
	ReferralCode    string         `gorm:"type:varchar(32);index" json:"referralCode,omitempty"` // 下单使用的推荐码
	AIMetrics       OrderAIMetrics `gorm:"embedded" json:"aiMetrics"`                           // 配送时长指标
	DispatchedAt    *time.Time     `gorm:"index" json:"dispatchedAt,omitempty"`                 // 派送时间
	DeliveredAt     *time.Time     `gorm:"index" json:"deliveredAt,omitempty"`                  // 送达时间
	CanceledAt      *time.Time     `gorm:"index" json:"canceledAt,omitempty"`                   // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"createdAt"`                              // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updatedAt"`                              // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单项表
type OrderItem struct {
	ID         uint           `gorm:"primarykey" json:"-"`                                     // 主键
	OrderID    uint           `gorm:"index;not null" json:"-"`                                 // 订单ID
	MenuItemID uint           `gorm:"index;not null" json:"id"`                                // 菜品ID
	Name       string         `gorm:"type:varchar(200);not null" json:"name"`                  // 菜品名称快照
	Quantity   int            `gorm:"not null" json:"quantity"`                                // 数量
	UnitPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unitPrice"`  // 单价快照
	CreatedAt  time.Time      `gorm:"index" json:"-"`                                          // 创建时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
