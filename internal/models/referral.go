package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralCode 推荐码表
// 说明：同一（推荐人，餐厅）同时最多一个有效码；失效后只停用不删除。
type ReferralCode struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                     // 主键
	Code         string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`        // 推荐码
	ReferrerUID  string         `gorm:"type:varchar(64);index;not null" json:"referrerId"`        // 推荐人标识
	RestaurantID uint           `gorm:"index;not null" json:"restaurantId"`                       // 餐厅ID
	UsageCount   int            `gorm:"not null;default:0" json:"usageCount"`                     // 使用次数
	Active       bool           `gorm:"not null;default:true;index" json:"active"`                // 是否有效
	ExpiresAt    time.Time      `gorm:"index;not null" json:"expiresAt"`                          // 过期时间
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`                                   // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updatedAt"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (ReferralCode) TableName() string {
	return "referral_codes"
}

// IsExpired 判断推荐码是否已过期
func (c ReferralCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// ReferralReward 推荐奖励表
// 说明：(order_id, type) 唯一索引保证同一订单同类奖励只发放一次。
type ReferralReward struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                                    // 主键
	BeneficiaryUID string         `gorm:"type:varchar(64);index;not null" json:"beneficiaryId"`                    // 受益人标识
	RestaurantID   uint           `gorm:"index;not null" json:"restaurantId"`                                      // 餐厅ID
	OrderID        uint           `gorm:"index:idx_reward_order_type,unique;not null" json:"orderId"`              // 触发订单ID
	Type           string         `gorm:"type:varchar(30);index:idx_reward_order_type,unique;not null" json:"type"` // 奖励类型
	Amount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                     // 奖励金额
	SourceCode     string         `gorm:"type:varchar(32);index;not null" json:"sourceCode"`                       // 来源推荐码
	IsUsed         bool           `gorm:"not null;default:false;index" json:"isUsed"`                              // 是否已核销
	ExpiresAt      *time.Time     `gorm:"index" json:"expiresAt,omitempty"`                                        // 过期时间
	CreatedAt      time.Time      `gorm:"index" json:"createdAt"`                                                  // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updatedAt"`                                                  // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                          // 软删除时间
}

// TableName 指定表名
func (ReferralReward) TableName() string {
	return "referral_rewards"
}
